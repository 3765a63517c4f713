// Package palette maps category ordinals to display colors.
//
// Lookup is positional over an ordered color list. Running out of colors is a
// configuration error rather than silent blank output: a chart with more
// categories than colors needs an explicit, longer color list.
package palette

import "github.com/mbertrand/alluvial/pkg/errors"

// Default is the 12-entry qualitative palette used when no color list is
// configured (ColorBrewer Set3).
var Default = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072",
	"#80b1d3", "#fdb462", "#b3de69", "#fccde5",
	"#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

// Palette is an immutable ordered color list.
type Palette struct {
	colors []string
}

// New creates a palette from the given color list.
// An empty list selects [Default].
func New(colors []string) Palette {
	if len(colors) == 0 {
		colors = Default
	}
	return Palette{colors: colors}
}

// Len returns the number of colors.
func (p Palette) Len() int { return len(p.colors) }

// ColorFor returns the color for a 1-based category ordinal.
// Ordinals beyond the palette length are a configuration error.
func (p Palette) ColorFor(category int) (string, error) {
	if category < 1 {
		return "", errors.New(errors.ErrCodeConfig, "category ordinal %d: must be >= 1", category)
	}
	if category > len(p.colors) {
		return "", errors.New(errors.ErrCodeConfig,
			"palette exhausted: category %d exceeds %d configured colors", category, len(p.colors))
	}
	return p.colors[category-1], nil
}
