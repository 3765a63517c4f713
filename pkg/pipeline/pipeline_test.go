package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mbertrand/alluvial/pkg/cache"
	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/flow"
)

const datasetJSON = `{
  "nodes": [
    {"time": 1, "category": 1, "size": 10},
    {"time": 1, "category": 2, "size": 5},
    {"time": 2, "category": 1, "size": 8},
    {"time": 2, "category": 2, "size": 7}
  ],
  "links": [
    {"time1": 1, "category1": 1, "time2": 2, "category2": 1, "thickness": 8},
    {"time1": 1, "category1": 2, "time2": 2, "category2": 2, "thickness": 5},
    {"time1": 1, "category1": 2, "time2": 2, "category2": 1, "thickness": 2}
  ]
}`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cohort.json")
	if err := os.WriteFile(path, []byte(datasetJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{Input: "cohort.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.VizType != VizTypeAlluvial {
		t.Errorf("VizType = %q, want %q", opts.VizType, VizTypeAlluvial)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("size = %vx%v, want defaults", opts.Width, opts.Height)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger default not applied")
	}
}

func TestOptionsValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"no input", Options{}, errors.ErrCodeInputMissing},
		{"two inputs", Options{Input: "a.json", Dataset: &flow.Dataset{}}, errors.ErrCodeConfig},
		{"half a CSV pair", Options{NodesPath: "nodes.csv"}, errors.ErrCodeConfig},
		{"bad format", Options{Input: "a.json", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"bad viz type", Options{Input: "a.json", VizType: "sunburst"}, errors.ErrCodeConfig},
		{"nodelink json", Options{Input: "a.json", VizType: VizTypeNodelink, Formats: []string{"json"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.ValidateAndSetDefaults()
			if errors.GetCode(err) != tc.wantCode {
				t.Errorf("code = %v, want %s (err: %v)", errors.GetCode(err), tc.wantCode, err)
			}
		})
	}
}

func TestOptionsChartConfig(t *testing.T) {
	opts := Options{
		Input:       "a.json",
		Stat:        "count",
		BarWidth:    0.5,
		NoLabels:    true,
		LegendTitle: "Status",
	}
	cfg, err := opts.ChartConfig()
	if err != nil {
		t.Fatalf("ChartConfig error: %v", err)
	}
	if cfg.Stat != chart.StatCount || cfg.BarWidth != 0.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ShowDataLabels {
		t.Error("NoLabels not applied")
	}
	if cfg.Interpolation != chart.InterpCosine {
		t.Error("untouched fields should keep defaults")
	}

	bad := Options{Input: "a.json", Interpolation: "bezier"}
	if _, err := bad.ChartConfig(); errors.GetCode(err) != errors.ErrCodeConfig {
		t.Errorf("invalid interpolation: code = %v, want %s", errors.GetCode(err), errors.ErrCodeConfig)
	}
}

func TestRunnerExecute(t *testing.T) {
	r := NewRunner(nil, nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		Input:   writeDataset(t),
		Formats: []string{"svg", "json"},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.Stats.NodeCount != 4 || result.Stats.LinkCount != 3 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.DatasetHash == "" {
		t.Error("dataset hash not computed")
	}
	if result.Layout.N != 15 {
		t.Errorf("layout N = %v, want 15", result.Layout.N)
	}

	svg := string(result.Artifacts["svg"])
	if !strings.HasPrefix(svg, "<svg") {
		t.Error("svg artifact missing or malformed")
	}
	var doc map[string]any
	if err := json.Unmarshal(result.Artifacts["json"], &doc); err != nil {
		t.Errorf("json artifact invalid: %v", err)
	}
}

func TestRunnerExecuteInlineDataset(t *testing.T) {
	var ds flow.Dataset
	if err := json.Unmarshal([]byte(datasetJSON), &ds); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil)
	result, err := r.Execute(context.Background(), Options{Dataset: &ds})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(result.Artifacts["svg"]) == 0 {
		t.Error("no svg artifact from inline dataset")
	}
}

func TestRunnerExecuteCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil)
	defer r.Close()

	opts := Options{Input: writeDataset(t), Formats: []string{"svg"}}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Error("cold cache reported hits")
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("warm cache missed: %+v", second.CacheInfo)
	}
	if string(first.Artifacts["svg"]) != string(second.Artifacts["svg"]) {
		t.Error("cached artifact differs from rendered artifact")
	}

	// Refresh bypasses the cache.
	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("refresh Execute error: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Error("refresh run reported cache hits")
	}
}

func TestRunnerExecuteBadInput(t *testing.T) {
	r := NewRunner(nil, nil)

	_, err := r.Execute(context.Background(), Options{Input: filepath.Join(t.TempDir(), "absent.json")})
	if errors.GetCode(err) != errors.ErrCodeInputMissing {
		t.Errorf("missing file: code = %v, want %s", errors.GetCode(err), errors.ErrCodeInputMissing)
	}

	// Inconsistent population aborts before rendering.
	ds := flow.Dataset{Nodes: []flow.Node{
		{Time: 1, Category: 1, Size: 10},
		{Time: 2, Category: 1, Size: 9},
	}}
	_, err = r.Execute(context.Background(), Options{Dataset: &ds})
	if errors.GetCode(err) != errors.ErrCodeConfig {
		t.Errorf("inconsistent population: code = %v, want %s", errors.GetCode(err), errors.ErrCodeConfig)
	}
}
