package layout

import (
	"cmp"
	"slices"

	"github.com/mbertrand/alluvial/pkg/flow"
)

// Segment is one category's share of the population at one time point,
// expressed both as counts and as fractions of the denominator N. Segments
// for a fixed time tile [0, N] with no gaps or overlaps, ordered by category.
type Segment struct {
	Time     int
	Category int

	LowFrac   float64
	HighFrac  float64
	LowCount  float64
	HighCount float64

	Color string
	Label string
}

// Share returns the segment's fraction of the total population.
func (s Segment) Share() float64 { return s.HighFrac - s.LowFrac }

// MidFrac returns the vertical midpoint in fraction units.
func (s Segment) MidFrac() float64 { return (s.LowFrac + s.HighFrac) / 2 }

// StackSegments stacks the node table into segments. Nodes are grouped by
// time; within each group they are sorted by category ascending and folded
// with a running cumulative count that resets at each group boundary.
//
// The returned slice is sorted by (time, category). n is the population
// denominator and must already be validated positive and constant across
// times.
func StackSegments(nodes []flow.Node, n float64) []Segment {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b flow.Node) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	segments := make([]Segment, 0, len(sorted))
	currTime := 0
	cumulative := 0.0

	for _, node := range sorted {
		if node.Time != currTime {
			currTime = node.Time
			cumulative = 0
		}
		low := cumulative
		high := cumulative + node.Size
		cumulative = high

		segments = append(segments, Segment{
			Time:      node.Time,
			Category:  node.Category,
			LowCount:  low,
			HighCount: high,
			LowFrac:   low / n,
			HighFrac:  high / n,
		})
	}
	return segments
}
