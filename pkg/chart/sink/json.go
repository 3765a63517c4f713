package sink

import (
	"encoding/json"

	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/layout"
	"github.com/mbertrand/alluvial/pkg/chart/primitive"
	"github.com/mbertrand/alluvial/pkg/errors"
)

type jsonOutput struct {
	N          float64         `json:"n"`
	Stat       string          `json:"stat"`
	Times      []int           `json:"times"`
	TimeLabels map[int]string  `json:"time_labels"`
	BarWidth   float64         `json:"bar_width"`
	Primitives []jsonPrimitive `json:"primitives"`
}

// jsonPrimitive is a kind-tagged union: exactly one of the payload fields is
// set, matching Kind.
type jsonPrimitive struct {
	Kind  string           `json:"kind"`
	Bar   *primitive.Bar   `json:"bar,omitempty"`
	Band  *primitive.Band  `json:"band,omitempty"`
	Label *primitive.Label `json:"label,omitempty"`
}

// RenderJSON exports the emitted primitive list, plus the axis metadata a
// downstream renderer needs, as a pretty-printed JSON document. This is the
// data interchange format for external visualization tools.
func RenderJSON(l layout.Layout, cfg chart.Config) ([]byte, error) {
	prims := primitive.Emit(l, cfg)

	out := jsonOutput{
		N:          l.N,
		Stat:       string(cfg.Stat),
		Times:      l.Times,
		TimeLabels: l.TimeLabels,
		BarWidth:   l.BarWidth,
		Primitives: make([]jsonPrimitive, len(prims)),
	}

	for i, p := range prims {
		jp := jsonPrimitive{Kind: p.Kind()}
		switch v := p.(type) {
		case primitive.Bar:
			jp.Bar = &v
		case primitive.Band:
			jp.Band = &v
		case primitive.Label:
			jp.Label = &v
		}
		out.Primitives[i] = jp
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal primitives")
	}
	return data, nil
}
