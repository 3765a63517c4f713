// Package flow defines the two normalized input tables for alluvial charts:
// per-(time, category) population counts and per-transition counts.
//
// Both tables are immutable inputs. A Dataset is validated once, before any
// layout computation, and the layout engine assumes validity afterwards.
// Subject-level preprocessing (turning raw longitudinal records into these
// tables) is a separate concern and lives outside this repository.
package flow

import (
	"math"
	"slices"

	"github.com/mbertrand/alluvial/pkg/errors"
)

// tol is the floating tolerance used when comparing per-time population sums.
const tol = 1e-9

// Node is one (time, category) cell of the population table.
type Node struct {
	Time          int     `json:"time" bson:"time"`
	Category      int     `json:"category" bson:"category"`
	Size          float64 `json:"size" bson:"size"`
	TimeLabel     string  `json:"time_label,omitempty" bson:"time_label,omitempty"`
	CategoryLabel string  `json:"category_label,omitempty" bson:"category_label,omitempty"`
}

// Link is one transition: Thickness subjects moving from (Time1, Category1)
// to (Time2, Category2). Time1 must be strictly less than Time2.
type Link struct {
	Time1     int     `json:"time1" bson:"time1"`
	Category1 int     `json:"category1" bson:"category1"`
	Time2     int     `json:"time2" bson:"time2"`
	Category2 int     `json:"category2" bson:"category2"`
	Thickness float64 `json:"thickness" bson:"thickness"`
}

// Dataset bundles the two input tables.
type Dataset struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Links []Link `json:"links" bson:"links"`
}

// Validate checks structural validity of both tables. It returns an error for
// non-positive time or category ordinals, negative sizes or thicknesses,
// non-increasing link time ordering, and links referencing a (time, category)
// cell with no population entry.
//
// Note: a cell's population is NOT required to be fully accounted for by its
// incoming/outgoing links. Cohorts may enter or leave the study between time
// points; unlinked population renders as an implicit gap.
func (d *Dataset) Validate() error {
	if len(d.Nodes) == 0 {
		return errors.New(errors.ErrCodeInputMissing, "node table is empty")
	}

	cells := make(map[[2]int]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.Time < 1 {
			return errors.New(errors.ErrCodeInvalidInput, "node time %d: must be >= 1", n.Time)
		}
		if n.Category < 1 {
			return errors.New(errors.ErrCodeInvalidInput, "node category %d: must be >= 1", n.Category)
		}
		if n.Size < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "node (%d,%d): negative size %v", n.Time, n.Category, n.Size)
		}
		key := [2]int{n.Time, n.Category}
		if cells[key] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate node for time %d category %d", n.Time, n.Category)
		}
		cells[key] = true
	}

	for _, l := range d.Links {
		if l.Time1 >= l.Time2 {
			return errors.New(errors.ErrCodeComputation, "link (%d,%d)->(%d,%d): time1 must be < time2",
				l.Time1, l.Category1, l.Time2, l.Category2)
		}
		if l.Thickness < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "link (%d,%d)->(%d,%d): negative thickness %v",
				l.Time1, l.Category1, l.Time2, l.Category2, l.Thickness)
		}
		if !cells[[2]int{l.Time1, l.Category1}] {
			return errors.New(errors.ErrCodeInvalidInput, "link origin (%d,%d) has no node entry", l.Time1, l.Category1)
		}
		if !cells[[2]int{l.Time2, l.Category2}] {
			return errors.New(errors.ErrCodeInvalidInput, "link destination (%d,%d) has no node entry", l.Time2, l.Category2)
		}
	}
	return nil
}

// Denominator derives the population denominator N: the sum of node sizes at
// any one time point, validated equal across all time points. It returns an
// error when the sums disagree or when N is not positive.
func (d *Dataset) Denominator() (float64, error) {
	if len(d.Nodes) == 0 {
		return 0, errors.New(errors.ErrCodeInputMissing, "node table is empty")
	}

	sums := make(map[int]float64)
	for _, n := range d.Nodes {
		sums[n.Time] += n.Size
	}

	times := d.Times()
	n := sums[times[0]]
	for _, t := range times[1:] {
		if math.Abs(sums[t]-n) > tol {
			return 0, errors.New(errors.ErrCodeConfig,
				"inconsistent population: time %d sums to %v, time %d sums to %v",
				times[0], n, t, sums[t])
		}
	}
	if n <= 0 {
		return 0, errors.New(errors.ErrCodeConfig, "population denominator must be positive, got %v", n)
	}
	return n, nil
}

// Times returns the distinct time points in ascending order.
func (d *Dataset) Times() []int {
	seen := make(map[int]bool)
	var times []int
	for _, n := range d.Nodes {
		if !seen[n.Time] {
			seen[n.Time] = true
			times = append(times, n.Time)
		}
	}
	slices.Sort(times)
	return times
}

// MaxCategory returns the highest category ordinal present in the node table.
func (d *Dataset) MaxCategory() int {
	maxCat := 0
	for _, n := range d.Nodes {
		if n.Category > maxCat {
			maxCat = n.Category
		}
	}
	return maxCat
}

// TimeLabels returns the display label for each time point. Times without an
// explicit label are absent from the map.
func (d *Dataset) TimeLabels() map[int]string {
	labels := make(map[int]string)
	for _, n := range d.Nodes {
		if n.TimeLabel != "" {
			labels[n.Time] = n.TimeLabel
		}
	}
	return labels
}

// CategoryLabels returns the display label for each category ordinal.
// Categories without an explicit label are absent from the map.
func (d *Dataset) CategoryLabels() map[int]string {
	labels := make(map[int]string)
	for _, n := range d.Nodes {
		if n.CategoryLabel != "" {
			labels[n.Category] = n.CategoryLabel
		}
	}
	return labels
}
