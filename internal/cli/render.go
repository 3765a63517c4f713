package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbertrand/alluvial/pkg/cache"
	"github.com/mbertrand/alluvial/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file path (or base path for multiple formats)
	nodesPath   string   // CSV node table
	linksPath   string   // CSV link table
	configPath  string   // TOML chart config
	vizType     string   // "alluvial" or "nodelink"
	formats     []string // output formats: "svg", "json", "pdf", "png"
	stat        string   // "percent" or "count"
	interp      string   // "linear" or "cosine"
	barWidth    float64  // bar width as a fraction of the time step, (0,1]
	noLabels    bool     // suppress per-segment value labels
	legendTitle string   // legend heading
	colors      []string // explicit color list, one per category
	detailed    bool     // detailed node labels (nodelink)
	width       float64  // frame width in pixels
	height      float64  // frame height in pixels
	scale       float64  // PNG resolution multiplier
	cacheDir    string   // artifact cache directory ("" disables caching)
	refresh     bool     // recompute even on cache hit
}

// newRenderCmd creates the render command for generating charts.
// Input is either a combined JSON dataset (positional argument) or a CSV
// node/link table pair (--nodes and --links).
func newRenderCmd() *cobra.Command {
	var formatsStr, colorsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [dataset.json]",
		Short: "Render a flow dataset as a chart",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			opts.formats = splitList(formatsStr, "svg")
			opts.colors = splitList(colorsStr, "")
			return runRender(cmd.Context(), input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&opts.nodesPath, "nodes", "", "CSV node table (requires --links)")
	cmd.Flags().StringVar(&opts.linksPath, "links", "", "CSV link table (requires --nodes)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML chart configuration file")
	cmd.Flags().StringVarP(&opts.vizType, "type", "t", "", "visualization type: alluvial (default), nodelink")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.stat, "stat", "", "vertical scale: percent (default), count")
	cmd.Flags().StringVar(&opts.interp, "interpolation", "", "band curve: cosine (default), linear")
	cmd.Flags().Float64Var(&opts.barWidth, "bar-width", 0, "bar width as a fraction of the time step, (0,1]")
	cmd.Flags().BoolVar(&opts.noLabels, "no-labels", false, "suppress per-segment value labels")
	cmd.Flags().StringVar(&opts.legendTitle, "legend-title", "", "legend heading text")
	cmd.Flags().StringVar(&colorsStr, "colors", "", "category colors, comma-separated (default: built-in palette)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show sizes and shares in node labels (nodelink)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "frame width in pixels")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "frame height in pixels")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG resolution multiplier")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "artifact cache directory (empty disables caching)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// splitList parses a comma-separated flag value, falling back to def when the
// flag is empty. An empty def yields a nil slice.
func splitList(s, def string) []string {
	if s == "" {
		s = def
	}
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// runRender executes the pipeline and writes each rendered format to disk.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	c, err := openCache(opts.cacheDir)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(c, logger)
	defer runner.Close()

	p := newProgress(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Input:         input,
		NodesPath:     opts.nodesPath,
		LinksPath:     opts.linksPath,
		ConfigPath:    opts.configPath,
		Stat:          opts.stat,
		Interpolation: opts.interp,
		BarWidth:      opts.barWidth,
		NoLabels:      opts.noLabels,
		LegendTitle:   opts.legendTitle,
		Colors:        opts.colors,
		VizType:       opts.vizType,
		Detailed:      opts.detailed,
		Width:         opts.width,
		Height:        opts.height,
		Scale:         opts.scale,
		Formats:       opts.formats,
		Refresh:       opts.refresh,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Rendered %d format(s)", len(result.Artifacts)))

	base := basePath(opts.output, input, opts.nodesPath)
	for _, format := range opts.formats {
		path := outputPath(opts.output, base, format, len(opts.formats))
		if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
			return err
		}
		printFile(path)
	}

	printSuccess("Generated %s chart", displayVizType(opts.vizType))
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.RenderHit)
	return nil
}

// displayVizType names the visualization in output messages.
func displayVizType(vizType string) string {
	if vizType == "" {
		return pipeline.VizTypeAlluvial
	}
	return vizType
}

// basePath derives the base output path from the output flag and the input
// file. If output is empty, it strips the extension from the input (or the
// node table for CSV input). A known format extension on the output path is
// stripped as well.
func basePath(output, input, nodesPath string) string {
	if output == "" {
		src := input
		if src == "" {
			src = nodesPath
		}
		return strings.TrimSuffix(src, filepath.Ext(src))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath resolves the file name for one format. With a single format and
// an explicit output flag, the flag is used verbatim.
func outputPath(output, base, format string, formatCount int) string {
	if output != "" && formatCount == 1 {
		return output
	}
	return base + "." + format
}

// openCache builds the artifact cache from the --cache-dir flag.
func openCache(dir string) (cache.Cache, error) {
	if dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
