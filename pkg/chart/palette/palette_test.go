package palette

import (
	"testing"

	"github.com/mbertrand/alluvial/pkg/errors"
)

func TestDefaultPalette(t *testing.T) {
	p := New(nil)
	if p.Len() != 12 {
		t.Fatalf("default palette has %d colors, want 12", p.Len())
	}

	first, err := p.ColorFor(1)
	if err != nil {
		t.Fatalf("ColorFor(1) error: %v", err)
	}
	if first != "#8dd3c7" {
		t.Errorf("ColorFor(1) = %q, want %q", first, "#8dd3c7")
	}

	last, err := p.ColorFor(12)
	if err != nil {
		t.Fatalf("ColorFor(12) error: %v", err)
	}
	if last != "#ffed6f" {
		t.Errorf("ColorFor(12) = %q, want %q", last, "#ffed6f")
	}
}

func TestCustomPalette(t *testing.T) {
	p := New([]string{"red", "blue"})
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	got, err := p.ColorFor(2)
	if err != nil {
		t.Fatalf("ColorFor(2) error: %v", err)
	}
	if got != "blue" {
		t.Errorf("ColorFor(2) = %q, want %q", got, "blue")
	}
}

func TestColorForOutOfRange(t *testing.T) {
	p := New([]string{"red", "blue"})

	tests := []struct {
		name     string
		category int
	}{
		{name: "zero ordinal", category: 0},
		{name: "negative ordinal", category: -3},
		{name: "beyond palette", category: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ColorFor(tt.category)
			if !errors.Is(err, errors.ErrCodeConfig) {
				t.Fatalf("ColorFor(%d) = %v, want INVALID_CONFIG", tt.category, err)
			}
		})
	}
}
