// Package sink renders the emitted primitive list into output formats: SVG
// (native), JSON (data interchange), and PNG/PDF (via SVG conversion).
package sink

import (
	"bytes"
	"fmt"

	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/layout"
	"github.com/mbertrand/alluvial/pkg/chart/primitive"
)

const (
	defaultWidth  = 960.0
	defaultHeight = 600.0

	marginTop    = 20.0
	marginBottom = 40.0
	marginLeft   = 60.0
	legendWidth  = 160.0

	legendSwatch  = 14.0
	legendRowGap  = 22.0
	fontFamily    = "Helvetica, Arial, sans-serif"
	axisFontSize  = 13.0
	labelFontSize = 12.0
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width  float64
	height float64
	legend bool
}

// WithSize overrides the default 960x600 canvas.
func WithSize(width, height float64) SVGOption {
	return func(r *svgRenderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
	}
}

// WithoutLegend suppresses the legend panel.
func WithoutLegend() SVGOption { return func(r *svgRenderer) { r.legend = false } }

// frame maps data coordinates to pixel coordinates. Data y grows upward,
// SVG y grows downward, so the y axis is flipped here and only here.
type frame struct {
	xMin, xMax float64
	yMax       float64
	plotX      float64
	plotY      float64
	plotW      float64
	plotH      float64
}

func (f frame) px(x float64) float64 {
	return f.plotX + (x-f.xMin)/(f.xMax-f.xMin)*f.plotW
}

func (f frame) py(y float64) float64 {
	return f.plotY + (1-y/f.yMax)*f.plotH
}

// RenderSVG renders the layout as a standalone SVG document. Output is
// deterministic: identical layout and options produce identical bytes.
func RenderSVG(l layout.Layout, cfg chart.Config, opts ...SVGOption) []byte {
	r := svgRenderer{width: defaultWidth, height: defaultHeight, legend: true}
	for _, opt := range opts {
		opt(&r)
	}

	yMax := 100.0
	if cfg.Stat == chart.StatCount {
		yMax = l.N
	}

	rightMargin := 20.0
	if r.legend {
		rightMargin = legendWidth
	}
	f := frame{
		xMin:  float64(l.Times[0]) - 0.5,
		xMax:  float64(l.Times[len(l.Times)-1]) + 0.5,
		yMax:  yMax,
		plotX: marginLeft,
		plotY: marginTop,
		plotW: r.width - marginLeft - rightMargin,
		plotH: r.height - marginTop - marginBottom,
	}

	prims := primitive.Emit(l, cfg)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="#ffffff"/>`+"\n", r.width, r.height)

	for _, p := range prims {
		switch v := p.(type) {
		case primitive.Band:
			renderBand(&buf, f, v)
		case primitive.Bar:
			renderBar(&buf, f, v)
		case primitive.Label:
			renderLabel(&buf, f, v)
		}
	}

	renderTimeAxis(&buf, f, l)
	if r.legend {
		renderLegend(&buf, f, cfg, prims)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderBand(buf *bytes.Buffer, f frame, b primitive.Band) {
	if len(b.Curve) == 0 {
		return
	}
	var path bytes.Buffer
	for i, s := range b.Curve {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.2f,%.2f ", cmd, f.px(s.X), f.py(s.YLow))
	}
	for i := len(b.Curve) - 1; i >= 0; i-- {
		s := b.Curve[i]
		fmt.Fprintf(&path, "L%.2f,%.2f ", f.px(s.X), f.py(s.YHigh))
	}
	fmt.Fprintf(buf, `  <path d="%sZ" fill="%s" fill-opacity="%.2f" stroke="none"/>`+"\n",
		path.String(), b.Color, b.Opacity)
}

func renderBar(buf *bytes.Buffer, f frame, b primitive.Bar) {
	halfW := b.Width / 2
	x := f.px(b.X - halfW)
	w := f.px(b.X+halfW) - x
	// HighY maps to the smaller pixel y.
	y := f.py(b.HighY)
	h := f.py(b.LowY) - y
	fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
		x, y, w, h, b.Color)
}

func renderLabel(buf *bytes.Buffer, f frame, l primitive.Label) {
	fmt.Fprintf(buf,
		`  <text x="%.2f" y="%.2f" font-family="%s" font-size="%.0f" text-anchor="middle" dominant-baseline="middle" fill="#000000">%s</text>`+"\n",
		f.px(l.X), f.py(l.Y), fontFamily, labelFontSize, escapeText(l.Text))
}

func renderTimeAxis(buf *bytes.Buffer, f frame, l layout.Layout) {
	y := f.plotY + f.plotH + 24
	for _, t := range l.Times {
		fmt.Fprintf(buf,
			`  <text x="%.2f" y="%.2f" font-family="%s" font-size="%.0f" text-anchor="middle" fill="#000000">%s</text>`+"\n",
			f.px(float64(t)), y, fontFamily, axisFontSize, escapeText(l.TimeLabels[t]))
	}
}

// renderLegend draws one swatch per distinct category, in bar order.
func renderLegend(buf *bytes.Buffer, f frame, cfg chart.Config, prims []primitive.Primitive) {
	type entry struct {
		label string
		color string
	}
	// Bars arrive in (time, category) order, so first-seen order is category
	// order.
	seen := make(map[string]bool)
	var entries []entry
	for _, p := range prims {
		b, ok := p.(primitive.Bar)
		if !ok || seen[b.LegendLabel] {
			continue
		}
		seen[b.LegendLabel] = true
		entries = append(entries, entry{label: b.LegendLabel, color: b.Color})
	}

	x := f.plotX + f.plotW + 20
	y := f.plotY

	if cfg.LegendTitle != "" {
		fmt.Fprintf(buf,
			`  <text x="%.2f" y="%.2f" font-family="%s" font-size="%.0f" font-weight="bold" fill="#000000">%s</text>`+"\n",
			x, y+legendSwatch-2, fontFamily, axisFontSize, escapeText(cfg.LegendTitle))
		y += legendRowGap
	}

	for _, e := range entries {
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.0f" height="%.0f" fill="%s"/>`+"\n",
			x, y, legendSwatch, legendSwatch, e.color)
		fmt.Fprintf(buf,
			`  <text x="%.2f" y="%.2f" font-family="%s" font-size="%.0f" fill="#000000">%s</text>`+"\n",
			x+legendSwatch+6, y+legendSwatch-3, fontFamily, labelFontSize, escapeText(e.label))
		y += legendRowGap
	}
}

func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
