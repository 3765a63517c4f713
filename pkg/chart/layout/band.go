package layout

import (
	"math"

	"github.com/mbertrand/alluvial/pkg/chart"
)

// sampleStep is the fixed horizontal sampling step in axis units.
const sampleStep = 0.01

// barInset keeps band endpoints strictly inside the bar so the band visually
// tucks under the bar edge (0.48 of the bar width on each side, against a
// half-width of 0.5).
const barInset = 0.48

// Sample is one point of a band curve: the lower and upper bound of the band
// at horizontal position X.
type Sample struct {
	X     float64 `json:"x"`
	YLow  float64 `json:"y_low"`
	YHigh float64 `json:"y_high"`
}

// Band is the sampled curve connecting a link's origin edge to its
// destination edge. Y values are in fraction-of-N units; X is in time-axis
// units.
type Band struct {
	Link  ResolvedLink
	Curve []Sample
}

// GenerateBand samples the curve for one resolved link. The curve spans from
// just right of the origin bar to just left of the destination bar, inclusive
// at both ends, with the endpoint samples pinned exactly to the resolved edge
// values in both interpolation modes.
func GenerateBand(l ResolvedLink, barWidth float64, mode chart.Interpolation) Band {
	leftX := float64(l.Time1) + barInset*barWidth
	rightX := float64(l.Time2) - barInset*barWidth
	span := rightX - leftX

	// Inclusive closed-form sample count: off-by-one here would leave a
	// visible gap between the band end and the bar edge.
	count := int(math.Ceil(span/sampleStep)) + 1

	curve := make([]Sample, count)
	for i := 0; i < count; i++ {
		x := leftX + float64(i)*sampleStep
		if i == count-1 {
			x = rightX
		}
		t := (x - leftX) / span
		curve[i] = Sample{
			X:     x,
			YLow:  interpolate(l.OriginLow, l.DestLow, t, mode),
			YHigh: interpolate(l.OriginHigh, l.DestHigh, t, mode),
		}
	}

	// Pin endpoints bit-exactly; interpolate is exact only up to rounding.
	curve[0].YLow, curve[0].YHigh = l.OriginLow, l.OriginHigh
	curve[count-1].YLow, curve[count-1].YHigh = l.DestLow, l.DestHigh

	return Band{Link: l, Curve: curve}
}

// interpolate blends start into end at parameter t in [0,1].
//
// The cosine mode is a raised-cosine blend: amplitude = (start-end)/2,
// offset = start-amplitude, y = amplitude*cos(pi*t) + offset. Its derivative
// vanishes at t=0 and t=1, so the band meets the vertical bar edges
// tangentially.
func interpolate(start, end, t float64, mode chart.Interpolation) float64 {
	if mode == chart.InterpLinear {
		return start + (end-start)*t
	}
	amplitude := (start - end) / 2
	offset := start - amplitude
	return amplitude*math.Cos(math.Pi*t) + offset
}
