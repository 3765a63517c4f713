// Package pipeline provides the core chart pipeline: import → layout →
// render. CLI and server share this logic, so both entry points behave
// identically and caching lives in one place.
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Input:   "cohort.json",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Stages can also run individually: [Runner.Load], [Runner.ComputeLayout],
// and [Runner.Render].
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/layout"
	"github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/flow"
)

// Default frame dimensions in pixels.
const (
	DefaultWidth  = 960.0
	DefaultHeight = 600.0

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0
)

// Visualization types.
const (
	VizTypeAlluvial = "alluvial"
	VizTypeNodelink = "nodelink"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizTypeAlluvial

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeAlluvial: true,
	VizTypeNodelink: true,
}

// Options contains all configuration for the chart pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options. Exactly one source: an inline dataset, a JSON dataset
	// path, or a CSV node/link table pair.
	Dataset   *flow.Dataset `json:"dataset,omitempty"`
	Input     string        `json:"input,omitempty"`
	NodesPath string        `json:"nodes,omitempty"`
	LinksPath string        `json:"links,omitempty"`

	// Chart options. ConfigPath points at a TOML file; the scalar fields
	// override whatever the file (or the defaults) set.
	ConfigPath    string   `json:"config,omitempty"`
	Stat          string   `json:"stat,omitempty"`
	Interpolation string   `json:"interpolation,omitempty"`
	BarWidth      float64  `json:"bar_width,omitempty"`
	NoLabels      bool     `json:"no_labels,omitempty"`
	LegendTitle   string   `json:"legend_title,omitempty"`
	Colors        []string `json:"colors,omitempty"`

	// Render options
	VizType  string   `json:"viz_type,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // nodelink node detail labels
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Dataset is the imported input.
	Dataset flow.Dataset

	// DatasetHash is the content hash of the dataset, used in cache keys.
	DatasetHash string

	// Layout is the computed chart geometry (alluvial runs only).
	Layout layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	ImportTime time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return errors.New(errors.ErrCodeConfig,
			"invalid viz_type: %q (must be one of: alluvial, nodelink)", vizType)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := o.validateRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that exactly one input source is configured.
func (o *Options) ValidateForLoad() error {
	sources := 0
	if o.Dataset != nil {
		sources++
	}
	if o.Input != "" {
		sources++
	}
	if o.NodesPath != "" || o.LinksPath != "" {
		if o.NodesPath == "" || o.LinksPath == "" {
			return errors.New(errors.ErrCodeConfig, "CSV input needs both a node table and a link table")
		}
		sources++
	}
	if sources == 0 {
		return errors.New(errors.ErrCodeInputMissing, "no input: provide a dataset, a JSON file, or CSV tables")
	}
	if sources > 1 {
		return errors.New(errors.ErrCodeConfig, "multiple inputs: provide exactly one of dataset, JSON file, or CSV tables")
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return o.validateRender()
}

func (o *Options) validateRender() error {
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.IsNodelink() {
		for _, f := range o.Formats {
			if f == FormatJSON {
				return errors.New(errors.ErrCodeInvalidFormat, "json output is only available for alluvial charts")
			}
		}
	}
	return nil
}

// IsAlluvial returns true if this is an alluvial visualization.
func (o *Options) IsAlluvial() bool {
	return o.VizType == "" || o.VizType == VizTypeAlluvial
}

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizTypeNodelink
}

// ChartConfig resolves the effective chart configuration: defaults, then the
// TOML file when set, then the option fields. The returned config is
// validated.
func (o *Options) ChartConfig() (chart.Config, error) {
	cfg := chart.Default()
	if o.ConfigPath != "" {
		loaded, err := chart.Load(o.ConfigPath)
		if err != nil {
			return chart.Config{}, err
		}
		cfg = loaded
	}

	if o.Stat != "" {
		cfg.Stat = chart.Stat(o.Stat)
	}
	if o.Interpolation != "" {
		cfg.Interpolation = chart.Interpolation(o.Interpolation)
	}
	if o.BarWidth != 0 {
		cfg.BarWidth = o.BarWidth
	}
	if o.NoLabels {
		cfg.ShowDataLabels = false
	}
	if o.LegendTitle != "" {
		cfg.LegendTitle = o.LegendTitle
	}
	if len(o.Colors) > 0 {
		cfg.Colors = o.Colors
	}

	if err := cfg.Validate(); err != nil {
		return chart.Config{}, err
	}
	return cfg, nil
}

// layoutKeyOpts returns the option fields that affect layout geometry, for
// cache keying.
func (o *Options) layoutKeyOpts(cfg chart.Config) any {
	return struct {
		BarWidth      float64
		Interpolation string
		Colors        []string
	}{cfg.BarWidth, string(cfg.Interpolation), cfg.Colors}
}

// artifactKeyOpts returns the option fields that affect rendered artifacts,
// for cache keying.
func (o *Options) artifactKeyOpts(cfg chart.Config) any {
	return struct {
		VizType     string
		Detailed    bool
		Width       float64
		Height      float64
		Scale       float64
		BarWidth    float64
		Interp      string
		Stat        string
		Labels      bool
		LegendTitle string
		Colors      []string
	}{
		o.VizType, o.Detailed, o.Width, o.Height, o.Scale,
		cfg.BarWidth, string(cfg.Interpolation), string(cfg.Stat),
		cfg.ShowDataLabels, cfg.LegendTitle, cfg.Colors,
	}
}
