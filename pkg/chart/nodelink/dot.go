// Package nodelink renders a dataset's transition structure as a node-link
// diagram: one node per (time, category) cell, one edge per transition, laid
// out left to right by time with Graphviz.
//
// This is a diagnostic companion view to the alluvial chart. It shows the
// same links without stacking, which makes sparse or surprising transitions
// easier to spot.
package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/palette"
	"github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/flow"
	"github.com/mbertrand/alluvial/pkg/svgconv"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes cell sizes and shares in node labels.
	// When false, only the category label is shown.
	Detailed bool
}

// ToDOT converts a dataset to Graphviz DOT format. Node rows are grouped by
// time (same-rank clusters left to right); edge pen width is proportional to
// the transition's share of the population.
func ToDOT(ds flow.Dataset, cfg chart.Config, opts Options) (string, error) {
	if err := ds.Validate(); err != nil {
		return "", err
	}
	n, err := ds.Denominator()
	if err != nil {
		return "", err
	}
	pal := palette.New(cfg.Colors)
	if maxCat := ds.MaxCategory(); maxCat > pal.Len() {
		return "", errors.New(errors.ErrCodeConfig,
			"palette exhausted: %d categories but only %d colors", maxCat, pal.Len())
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	catLabels := ds.CategoryLabels()
	timeLabels := ds.TimeLabels()

	byTime := make(map[int][]flow.Node)
	for _, nd := range ds.Nodes {
		byTime[nd.Time] = append(byTime[nd.Time], nd)
	}

	for _, t := range ds.Times() {
		fmt.Fprintf(&buf, "  subgraph cluster_t%d {\n", t)
		fmt.Fprintf(&buf, "    label=%q;\n", cfg.FormatTime(t, timeLabels[t]))
		buf.WriteString("    style=invis;\n")
		buf.WriteString("    rank=same;\n")
		for _, nd := range byTime[t] {
			color, err := pal.ColorFor(nd.Category)
			if err != nil {
				return "", err
			}
			label := nodeLabel(nd, n, cfg, catLabels, opts.Detailed)
			fmt.Fprintf(&buf, "    %q [label=%q, fillcolor=%q];\n", cellID(nd.Time, nd.Category), label, color)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, l := range ds.Links {
		// Pen width scales with the transition's population share.
		width := 0.5 + 10*l.Thickness/n
		fmt.Fprintf(&buf, "  %q -> %q [penwidth=%.2f];\n",
			cellID(l.Time1, l.Category1), cellID(l.Time2, l.Category2), width)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func cellID(time, category int) string {
	return fmt.Sprintf("t%d_c%d", time, category)
}

func nodeLabel(nd flow.Node, n float64, cfg chart.Config, catLabels map[int]string, detailed bool) string {
	label := cfg.FormatCategory(nd.Category, catLabels[nd.Category])
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\nn=%v (%.1f%%)", label, nd.Size, 100*nd.Size/n)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [svgconv.ToPDF] or [svgconv.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return svgconv.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return svgconv.ToPNG(svg, scale)
}
