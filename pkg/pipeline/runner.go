package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathstep/pkg/cache"
	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/observability"
	"github.com/matzehuels/pathstep/pkg/trace"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching and validation stay in one place.
//
// The Runner holds no per-run state; multiple goroutines can share one.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.DefaultTTL,
	}
}

// Run executes parse → generate → render with caching.
// Rendering is skipped when opts.Formats is empty.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()

	result := &Result{
		Step:      -1,
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Parse
	hooks.OnParseStart(ctx)
	parseStart := time.Now()
	g, start, err := Parse(opts)
	result.Stats.ParseTime = time.Since(parseStart)
	if err != nil {
		hooks.OnParseComplete(ctx, 0, 0, result.Stats.ParseTime, err)
		return nil, fmt.Errorf("parse: %w", err)
	}
	hooks.OnParseComplete(ctx, g.NodeCount(), g.EdgeCount(), result.Stats.ParseTime, nil)
	result.Graph = g
	result.Start = start
	result.GraphHash = cache.GraphHash(g.Text())
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	r.Logger.Debug("parsed graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"start", start,
		"duration", result.Stats.ParseTime)

	// Stage 2: Generate
	genStart := time.Now()
	tr, traceHash, hit, err := r.GenerateWithCacheInfo(ctx, g, start, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	result.Trace = tr
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.StepCount = tr.Len()
	result.CacheInfo.TraceHit = hit

	r.Logger.Info("generated trace",
		"steps", tr.Len(),
		"cache", hit,
		"duration", result.Stats.GenerateTime)

	if len(opts.Formats) == 0 {
		return result, nil
	}

	// Stage 3: Render
	index, err := ResolveStep(tr, opts.Step)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, tr, traceHash, index, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Step = index
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered step",
		"step", index,
		"formats", opts.Formats,
		"cache", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// GenerateWithCacheInfo returns the trace of g from start, consulting the
// cache unless refresh is set. It also returns the content hash of the
// encoded trace, used to key rendered artifacts, and whether the cache hit.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, g *graph.Graph, start string, refresh bool) (*trace.Trace, string, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, start, g.NodeCount())
	began := time.Now()

	cacheKey := r.Keyer.TraceKey(cache.GraphHash(g.Text()), start)

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if tr, err := trace.Decode(data); err == nil {
				hooks.OnGenerateComplete(ctx, start, tr.Len(), time.Since(began))
				return tr, cache.Hash(data), true, nil
			}
			// Undecodable entries are recomputed and overwritten.
		} else if err != nil {
			r.Logger.Warn("trace cache lookup failed", "error", err)
		}
	}

	tr := trace.Generate(g, start)
	hooks.OnGenerateComplete(ctx, start, tr.Len(), time.Since(began))

	data, err := trace.Encode(tr)
	if err != nil {
		return nil, "", false, err
	}
	if err := r.Cache.Set(ctx, cacheKey, data, r.TTL); err != nil {
		r.Logger.Warn("trace cache store failed", "error", err)
	}
	return tr, cache.Hash(data), false, nil
}

// Generate is a convenience wrapper that discards the cache information.
func (r *Runner) Generate(ctx context.Context, g *graph.Graph, start string) (*trace.Trace, error) {
	tr, _, _, err := r.GenerateWithCacheInfo(ctx, g, start, false)
	return tr, err
}

// RenderWithCacheInfo renders step index of tr with caching and reports
// whether every artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, tr *trace.Trace, traceHash string, index int, opts Options) (artifacts map[string][]byte, allCached bool, err error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	began := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(began), err) }()

	// Try to get all formats from cache
	artifacts = make(map[string][]byte, len(opts.Formats))
	allCached = true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(traceHash, opts.ArtifactKeyOpts(format, index))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, g, tr, index, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(traceHash, opts.ArtifactKeyOpts(format, index))
		_ = r.Cache.Set(ctx, key, data, r.TTL)
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
