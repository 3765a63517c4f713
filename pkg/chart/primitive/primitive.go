// Package primitive defines the draw primitives emitted by the layout engine
// and the final scaling stage that produces them.
//
// Primitives are plain data handed to a rendering sink; the layout engine
// never draws. Scaling between percent and count is a pure linear transform
// applied here, so stacking order and curve shape are identical in both
// statistics.
package primitive

import "github.com/mbertrand/alluvial/pkg/chart/layout"

// Primitive is one draw instruction. Implementations are the closed set
// [Bar], [Band], and [Label].
type Primitive interface {
	// Kind returns the primitive's type tag ("bar", "band", or "label").
	Kind() string
}

// Bar is one stacked bar segment. X is the time point in axis units; Y values
// are in the output statistic's scale (percent or count).
type Bar struct {
	Time        int     `json:"time"`
	X           float64 `json:"x"`
	Width       float64 `json:"width"`
	LowY        float64 `json:"low_y"`
	HighY       float64 `json:"high_y"`
	Color       string  `json:"color"`
	LegendLabel string  `json:"legend_label"`
}

// Kind implements [Primitive].
func (Bar) Kind() string { return "bar" }

// Band is one filled flow region between two bars. The curve's two bounds
// enclose the region; Color is the origin segment's color at a fixed
// transparency.
type Band struct {
	Curve   []layout.Sample `json:"curve"`
	Color   string          `json:"color"`
	Opacity float64         `json:"opacity"`
}

// Kind implements [Primitive].
func (Band) Kind() string { return "band" }

// Label is one centered text annotation.
type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Kind implements [Primitive].
func (Label) Kind() string { return "label" }
