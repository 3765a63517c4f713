package layout

import (
	"cmp"
	"slices"

	"github.com/mbertrand/alluvial/pkg/flow"
)

// ResolvedLink is a link annotated with the vertical sub-interval it occupies
// inside its origin and destination segments. All four bounds are absolute
// fractions of the population denominator, so a band can interpolate between
// them directly.
type ResolvedLink struct {
	flow.Link

	OriginLow  float64
	OriginHigh float64
	DestLow    float64
	DestHigh   float64
}

// ResolveEdges computes origin and destination sub-extents for every link in
// two independent stacking passes over the segment containers.
//
// Origin pass: links are grouped by (time1, category1) and stacked in
// (time2, category2) order, offset starting at the origin segment's low edge.
// Destination pass: grouped by (time2, category2), stacked in
// (time1, category1) order from the destination segment's low edge. The sort
// keys are what determine visual stacking order; both passes are
// order-sensitive and must stay sequential within a group.
//
// A group's offsets are not required to exhaust the containing segment:
// population entering or leaving the study between time points simply leaves
// an unlinked remainder at the top of the segment.
//
// The returned slice is sorted by (time1, category1, time2, category2).
func ResolveEdges(links []flow.Link, segments []Segment, n float64) []ResolvedLink {
	segLow := make(map[[2]int]float64, len(segments))
	for _, s := range segments {
		segLow[[2]int{s.Time, s.Category}] = s.LowFrac
	}

	resolved := make([]ResolvedLink, len(links))
	for i, l := range links {
		resolved[i] = ResolvedLink{Link: l}
	}
	slices.SortFunc(resolved, func(a, b ResolvedLink) int {
		if c := cmp.Compare(a.Time1, b.Time1); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Category1, b.Category1); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Time2, b.Time2); c != 0 {
			return c
		}
		return cmp.Compare(a.Category2, b.Category2)
	})

	// Origin pass. The master sort above already orders each
	// (time1, category1) group by (time2, category2), so a single sweep with
	// an offset reset at group boundaries implements the fold.
	var group [2]int
	offset := 0.0
	started := false
	for i := range resolved {
		l := &resolved[i]
		key := [2]int{l.Time1, l.Category1}
		if !started || key != group {
			group = key
			offset = segLow[key]
			started = true
		}
		l.OriginLow = offset
		l.OriginHigh = offset + l.Thickness/n
		offset = l.OriginHigh
	}

	// Destination pass: independent grouping and ordering, so sweep over a
	// separately sorted view of the same entries.
	byDest := make([]*ResolvedLink, len(resolved))
	for i := range resolved {
		byDest[i] = &resolved[i]
	}
	slices.SortFunc(byDest, func(a, b *ResolvedLink) int {
		if c := cmp.Compare(a.Time2, b.Time2); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Category2, b.Category2); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Time1, b.Time1); c != 0 {
			return c
		}
		return cmp.Compare(a.Category1, b.Category1)
	})

	started = false
	for _, l := range byDest {
		key := [2]int{l.Time2, l.Category2}
		if !started || key != group {
			group = key
			offset = segLow[key]
			started = true
		}
		l.DestLow = offset
		l.DestHigh = offset + l.Thickness/n
		offset = l.DestHigh
	}

	return resolved
}
