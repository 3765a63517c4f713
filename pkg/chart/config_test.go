package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mbertrand/alluvial/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BarWidth != 0.25 {
		t.Errorf("BarWidth = %v, want 0.25", cfg.BarWidth)
	}
	if cfg.Interpolation != InterpCosine {
		t.Errorf("Interpolation = %q, want cosine", cfg.Interpolation)
	}
	if cfg.Stat != StatPercent {
		t.Errorf("Stat = %q, want percent", cfg.Stat)
	}
	if !cfg.ShowDataLabels {
		t.Error("ShowDataLabels should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, valid: true},
		{name: "linear", mutate: func(c *Config) { c.Interpolation = InterpLinear }, valid: true},
		{name: "count", mutate: func(c *Config) { c.Stat = StatCount }, valid: true},
		{name: "full-width bars", mutate: func(c *Config) { c.BarWidth = 1 }, valid: true},
		{name: "zero bar width", mutate: func(c *Config) { c.BarWidth = 0 }},
		{name: "negative bar width", mutate: func(c *Config) { c.BarWidth = -0.5 }},
		{name: "oversize bar width", mutate: func(c *Config) { c.BarWidth = 1.01 }},
		{name: "unknown interpolation", mutate: func(c *Config) { c.Interpolation = "bezier" }},
		{name: "unknown stat", mutate: func(c *Config) { c.Stat = "ratio" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.valid && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.valid && !errors.Is(err, errors.ErrCodeConfig) {
				t.Fatalf("Validate() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.toml")
	content := `
bar_width = 0.4
interpolation = "linear"
stat = "count"
show_data_labels = false
legend_title = "Response"
colors = ["#ff0000", "#00ff00"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BarWidth != 0.4 {
		t.Errorf("BarWidth = %v, want 0.4", cfg.BarWidth)
	}
	if cfg.Interpolation != InterpLinear {
		t.Errorf("Interpolation = %q, want linear", cfg.Interpolation)
	}
	if cfg.Stat != StatCount {
		t.Errorf("Stat = %q, want count", cfg.Stat)
	}
	if cfg.ShowDataLabels {
		t.Error("ShowDataLabels should be false")
	}
	if cfg.LegendTitle != "Response" {
		t.Errorf("LegendTitle = %q", cfg.LegendTitle)
	}
	if len(cfg.Colors) != 2 {
		t.Errorf("Colors = %v, want 2 entries", cfg.Colors)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.toml")
	if err := os.WriteFile(path, []byte(`legend_title = "Arm"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BarWidth != 0.25 || cfg.Interpolation != InterpCosine || !cfg.ShowDataLabels {
		t.Errorf("unset keys should keep defaults, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeConfig) {
		t.Fatalf("Load() = %v, want INVALID_CONFIG", err)
	}
}

func TestFormatters(t *testing.T) {
	cfg := Default()

	if got := cfg.FormatTime(3, ""); got != "3" {
		t.Errorf("FormatTime = %q, want %q", got, "3")
	}
	if got := cfg.FormatTime(3, "Month 6"); got != "Month 6" {
		t.Errorf("FormatTime = %q, want raw label", got)
	}

	cfg.CategoryFormat = func(ordinal int, label string) string { return "cat-" + label }
	if got := cfg.FormatCategory(1, "Mild"); got != "cat-Mild" {
		t.Errorf("FormatCategory = %q, want callback output", got)
	}
}
