package primitive

import (
	"fmt"
	"strconv"

	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/layout"
)

// labelThreshold is the minimum segment share that still receives a data
// label. Smaller segments are suppressed to avoid clutter.
const labelThreshold = 0.01

// thresholdSlack absorbs accumulated rounding so a share of exactly 1% is
// never suppressed by a last-bit error.
const thresholdSlack = 1e-12

// bandOpacity is the fixed fill transparency of band primitives.
const bandOpacity = 0.5

// Emit turns a computed layout into the ordered primitive list. Bands come
// first, then bars, then labels, matching paint order back to front.
func Emit(l layout.Layout, cfg chart.Config) []Primitive {
	scale := 100.0
	if cfg.Stat == chart.StatCount {
		scale = l.N
	}

	prims := make([]Primitive, 0, len(l.Bands)+2*len(l.Segments))

	for _, b := range l.Bands {
		seg, _ := l.SegmentAt(b.Link.Time1, b.Link.Category1)
		curve := make([]layout.Sample, len(b.Curve))
		for i, s := range b.Curve {
			curve[i] = layout.Sample{X: s.X, YLow: s.YLow * scale, YHigh: s.YHigh * scale}
		}
		prims = append(prims, Band{Curve: curve, Color: seg.Color, Opacity: bandOpacity})
	}

	for _, s := range l.Segments {
		prims = append(prims, Bar{
			Time:        s.Time,
			X:           float64(s.Time),
			Width:       l.BarWidth,
			LowY:        s.LowFrac * scale,
			HighY:       s.HighFrac * scale,
			Color:       s.Color,
			LegendLabel: s.Label,
		})
	}

	if cfg.ShowDataLabels {
		for _, s := range l.Segments {
			if s.Share()+thresholdSlack < labelThreshold {
				continue
			}
			prims = append(prims, Label{
				X:    float64(s.Time),
				Y:    s.MidFrac() * scale,
				Text: labelText(s, l.N, cfg.Stat),
			})
		}
	}

	return prims
}

// labelText formats a segment's value in the requested statistic.
func labelText(s layout.Segment, n float64, stat chart.Stat) string {
	if stat == chart.StatCount {
		return strconv.FormatFloat(s.Share()*n, 'f', -1, 64)
	}
	return fmt.Sprintf("%.0f%%", s.Share()*100)
}
