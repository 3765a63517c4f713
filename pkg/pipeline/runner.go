package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mbertrand/alluvial/pkg/cache"
	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/chart/layout"
	"github.com/mbertrand/alluvial/pkg/chart/nodelink"
	"github.com/mbertrand/alluvial/pkg/chart/sink"
	"github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/flow"
	"github.com/mbertrand/alluvial/pkg/flow/flowio"
	"github.com/mbertrand/alluvial/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete import → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Import
	importStart := time.Now()
	ds, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Dataset = ds
	result.Stats.ImportTime = time.Since(importStart)
	result.Stats.NodeCount = len(ds.Nodes)
	result.Stats.LinkCount = len(ds.Links)

	dsData, err := json.Marshal(ds)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash dataset")
	}
	result.DatasetHash = cache.Hash(dsData)

	r.Logger.Info("imported dataset",
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"duration", result.Stats.ImportTime)

	cfg, err := opts.ChartConfig()
	if err != nil {
		return nil, err
	}

	// Stage 2: Layout (alluvial only; nodelink renders straight from the
	// dataset).
	if opts.IsAlluvial() {
		layoutStart := time.Now()
		l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, ds, cfg, result.DatasetHash, opts)
		if err != nil {
			return nil, err
		}
		result.Layout = l
		result.Stats.LayoutTime = time.Since(layoutStart)
		result.CacheInfo.LayoutHit = layoutHit

		r.Logger.Info("computed layout",
			"segments", len(l.Segments),
			"bands", len(l.Bands),
			"duration", result.Stats.LayoutTime)
	} else {
		// Nodelink skips geometry but still fails fast on bad input.
		if err := ds.Validate(); err != nil {
			return nil, err
		}
		if _, err := ds.Denominator(); err != nil {
			return nil, err
		}
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, ds, result.Layout, cfg, result.DatasetHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load imports the dataset from whichever source the options name.
func (r *Runner) Load(ctx context.Context, opts Options) (flow.Dataset, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return flow.Dataset{}, err
	}

	source := opts.Input
	if source == "" {
		source = opts.NodesPath
	}
	if opts.Dataset != nil {
		source = "inline"
	}

	start := time.Now()
	observability.Pipeline().OnImportStart(ctx, source)

	var ds flow.Dataset
	var err error
	if opts.Dataset != nil {
		ds = *opts.Dataset
	} else {
		ds, err = flowio.Import(opts.Input, opts.NodesPath, opts.LinksPath)
	}

	observability.Pipeline().OnImportComplete(ctx, source, len(ds.Nodes), len(ds.Links), time.Since(start), err)
	return ds, err
}

// ComputeLayout computes the alluvial layout, consulting the cache.
func (r *Runner) ComputeLayout(ctx context.Context, ds flow.Dataset, cfg chart.Config, opts Options) (layout.Layout, error) {
	dsData, err := json.Marshal(ds)
	if err != nil {
		return layout.Layout{}, errors.Wrap(errors.ErrCodeInternal, err, "hash dataset")
	}
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, ds, cfg, cache.Hash(dsData), opts)
	return l, err
}

// ComputeLayoutWithCacheInfo computes the layout and reports whether it came
// from cache.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, ds flow.Dataset, cfg chart.Config, datasetHash string, opts Options) (layout.Layout, bool, error) {
	key := cache.LayoutKey(datasetHash, opts.layoutKeyOpts(cfg))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached layout.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Corrupt entry: fall through and recompute.
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, VizTypeAlluvial, len(ds.Nodes))
	l, err := layout.Build(ds, cfg)
	observability.Pipeline().OnLayoutComplete(ctx, VizTypeAlluvial, time.Since(start), err)
	if err != nil {
		return layout.Layout{}, false, err
	}

	if data, err := json.Marshal(l); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}
	return l, false, nil
}

// Render renders all requested formats, consulting the cache.
func (r *Runner) Render(ctx context.Context, ds flow.Dataset, l layout.Layout, cfg chart.Config, opts Options) (map[string][]byte, error) {
	dsData, err := json.Marshal(ds)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash dataset")
	}
	artifacts, _, err := r.RenderWithCacheInfo(ctx, ds, l, cfg, cache.Hash(dsData), opts)
	return artifacts, err
}

// RenderWithCacheInfo renders all requested formats and reports whether every
// artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, ds flow.Dataset, l layout.Layout, cfg chart.Config, datasetHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Try to satisfy every format from cache first.
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		allCached := true
		for _, format := range opts.Formats {
			key := cache.ArtifactKey(datasetHash, format, opts.artifactKeyOpts(cfg))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				allCached = false
				break
			}
			artifacts[format] = data
		}
		if allCached {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, err := r.renderAll(ctx, ds, l, cfg, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range artifacts {
		key := cache.ArtifactKey(datasetHash, format, opts.artifactKeyOpts(cfg))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

func (r *Runner) renderAll(ctx context.Context, ds flow.Dataset, l layout.Layout, cfg chart.Config, opts Options) (map[string][]byte, error) {
	if opts.IsNodelink() {
		return r.renderNodelink(ctx, ds, cfg, opts)
	}

	sizeOpt := sink.WithSize(opts.Width, opts.Height)
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error
		switch format {
		case FormatSVG:
			data = sink.RenderSVG(l, cfg, sizeOpt)
		case FormatJSON:
			data, err = sink.RenderJSON(l, cfg)
		case FormatPNG:
			data, err = sink.RenderPNG(l, cfg, sink.WithScale(opts.Scale), sink.WithPNGSVGOptions(sizeOpt))
		case FormatPDF:
			data, err = sink.RenderPDF(l, cfg, sink.WithPDFSVGOptions(sizeOpt))
		}
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func (r *Runner) renderNodelink(ctx context.Context, ds flow.Dataset, cfg chart.Config, opts Options) (map[string][]byte, error) {
	dot, err := nodelink.ToDOT(ds, cfg, nodelink.Options{Detailed: opts.Detailed})
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error
		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		}
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
