// Package chart holds the user-facing configuration for alluvial charts.
//
// A Config is built from defaults, optionally overlaid with a TOML file, and
// finally adjusted by command-line flags. Validation happens once, before any
// layout computation, so a bad option never produces a partial chart.
package chart

import (
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/mbertrand/alluvial/pkg/errors"
)

// Interpolation selects the band curve shape.
type Interpolation string

// Supported interpolation modes. Cosine is the default: the raised-cosine
// blend has zero slope at both endpoints, so bands meet the vertical bar
// edges tangentially.
const (
	InterpLinear Interpolation = "linear"
	InterpCosine Interpolation = "cosine"
)

// Stat selects the vertical scale of emitted primitives.
type Stat string

// Supported statistics.
const (
	StatPercent Stat = "percent"
	StatCount   Stat = "count"
)

// LabelFormatter renders a display label for an ordinal. The raw label from
// the input table (possibly empty) is passed alongside the ordinal.
type LabelFormatter func(ordinal int, label string) string

// Config contains all chart options. The zero value is not usable; start from
// [Default] and overlay.
type Config struct {
	// Colors is the ordered color list, one per category ordinal.
	// Empty means the default 12-color qualitative palette.
	Colors []string `toml:"colors"`

	// BarWidth is the bar width as a fraction of the time-step spacing, (0,1].
	BarWidth float64 `toml:"bar_width"`

	// Interpolation is the band curve mode: "linear" or "cosine".
	Interpolation Interpolation `toml:"interpolation"`

	// Stat scales output to "percent" or "count".
	Stat Stat `toml:"stat"`

	// ShowDataLabels emits a centered value label per segment (shares under
	// 1% are suppressed to avoid clutter).
	ShowDataLabels bool `toml:"show_data_labels"`

	// LegendTitle is the legend heading text. Empty means no heading.
	LegendTitle string `toml:"legend_title"`

	// TimeFormat and CategoryFormat are display formatting callbacks for
	// axis and legend text. Nil means raw label values (falling back to the
	// ordinal when no label is present).
	TimeFormat     LabelFormatter `toml:"-"`
	CategoryFormat LabelFormatter `toml:"-"`
}

// Default returns the chart configuration defaults.
func Default() Config {
	return Config{
		BarWidth:       0.25,
		Interpolation:  InterpCosine,
		Stat:           StatPercent,
		ShowDataLabels: true,
	}
}

// Load reads a TOML config file and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfig, err, "load config %s", path)
	}
	return cfg, nil
}

// Validate checks all option values. It must be called (and pass) before the
// config is handed to the layout engine.
func (c *Config) Validate() error {
	if c.BarWidth <= 0 || c.BarWidth > 1 {
		return errors.New(errors.ErrCodeConfig, "bar_width %v outside (0,1]", c.BarWidth)
	}
	switch c.Interpolation {
	case InterpLinear, InterpCosine:
	default:
		return errors.New(errors.ErrCodeConfig,
			"invalid interpolation %q (must be %q or %q)", c.Interpolation, InterpLinear, InterpCosine)
	}
	switch c.Stat {
	case StatPercent, StatCount:
	default:
		return errors.New(errors.ErrCodeConfig,
			"invalid stat %q (must be %q or %q)", c.Stat, StatPercent, StatCount)
	}
	return nil
}

// FormatTime renders the display label for a time point.
func (c *Config) FormatTime(time int, label string) string {
	if c.TimeFormat != nil {
		return c.TimeFormat(time, label)
	}
	if label != "" {
		return label
	}
	return strconv.Itoa(time)
}

// FormatCategory renders the display label for a category ordinal.
func (c *Config) FormatCategory(category int, label string) string {
	if c.CategoryFormat != nil {
		return c.CategoryFormat(category, label)
	}
	if label != "" {
		return label
	}
	return strconv.Itoa(category)
}
