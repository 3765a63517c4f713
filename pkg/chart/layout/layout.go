package layout

import (
	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/palette"
	"github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/flow"
)

// Layout is the full computed chart geometry in normalized units
// (fractions of N vertically, time-axis units horizontally). Scaling to
// percent or count happens later, at primitive emission.
type Layout struct {
	// N is the population denominator, constant across time points.
	N float64

	// Times are the distinct time points, ascending.
	Times []int

	// TimeLabels maps each time point to its formatted display label.
	TimeLabels map[int]string

	// BarWidth is the bar width in time-axis units, carried for renderers.
	BarWidth float64

	Segments []Segment
	Links    []ResolvedLink
	Bands    []Band
}

// Build runs the complete layout computation: validation, segment stacking,
// edge resolution, and band sampling.
//
// All input, schema, and configuration checks run before any geometry is
// computed; a failure aborts with zero output. After validation the inputs
// are assumed valid.
func Build(ds flow.Dataset, cfg chart.Config) (Layout, error) {
	// Validation phase.
	if err := cfg.Validate(); err != nil {
		return Layout{}, err
	}
	if err := ds.Validate(); err != nil {
		return Layout{}, err
	}
	n, err := ds.Denominator()
	if err != nil {
		return Layout{}, err
	}

	pal := palette.New(cfg.Colors)
	if maxCat := ds.MaxCategory(); maxCat > pal.Len() {
		return Layout{}, errors.New(errors.ErrCodeConfig,
			"palette exhausted: %d categories but only %d colors", maxCat, pal.Len())
	}

	// Layout phase.
	segments := StackSegments(ds.Nodes, n)

	catLabels := ds.CategoryLabels()
	for i := range segments {
		s := &segments[i]
		color, err := pal.ColorFor(s.Category)
		if err != nil {
			return Layout{}, err
		}
		s.Color = color
		s.Label = cfg.FormatCategory(s.Category, catLabels[s.Category])
	}

	links := ResolveEdges(ds.Links, segments, n)

	bands := make([]Band, len(links))
	for i, l := range links {
		bands[i] = GenerateBand(l, cfg.BarWidth, cfg.Interpolation)
	}

	timeLabels := make(map[int]string)
	rawTimeLabels := ds.TimeLabels()
	times := ds.Times()
	for _, t := range times {
		timeLabels[t] = cfg.FormatTime(t, rawTimeLabels[t])
	}

	return Layout{
		N:          n,
		Times:      times,
		TimeLabels: timeLabels,
		BarWidth:   cfg.BarWidth,
		Segments:   segments,
		Links:      links,
		Bands:      bands,
	}, nil
}

// SegmentAt returns the segment for a (time, category) cell, if present.
func (l Layout) SegmentAt(time, category int) (Segment, bool) {
	for _, s := range l.Segments {
		if s.Time == time && s.Category == category {
			return s, true
		}
	}
	return Segment{}, false
}
