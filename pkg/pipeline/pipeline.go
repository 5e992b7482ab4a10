// Package pipeline runs the pathstep parse → generate → render pipeline.
//
// The same pipeline backs the CLI commands and the HTTP API so that every
// entry point validates input, resolves the start node and caches traces
// identically.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: validate node and edge text into a [graph.Graph]
//  2. Generate: produce the Dijkstra [trace.Trace] from the start node
//  3. Render: draw one step of the trace (DOT, SVG, PDF, PNG, JSON)
//
// Rendering is skipped when no formats are requested.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Run(ctx, pipeline.Options{
//	    Nodes:   "A, B, C",
//	    Edges:   "A-B:4, A-C:1, C-B:2",
//	    Step:    pipeline.LastStep,
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathstep/pkg/cache"
	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/graph"
	"github.com/matzehuels/pathstep/pkg/render/nodelink"
	"github.com/matzehuels/pathstep/pkg/trace"
)

const (
	// LastStep selects the final step of the trace.
	LastStep = -1

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultEngine is the Graphviz layout used for step diagrams.
	DefaultEngine = string(nodelink.EngineCirco)
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ValidEngines is the set of supported layout engines.
var ValidEngines = map[string]bool{
	string(nodelink.EngineCirco): true,
	string(nodelink.EngineDot):   true,
}

// Options contains all configuration for one pipeline run.
// It supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Nodes string `json:"nodes"`
	Edges string `json:"edges"`
	Start string `json:"start,omitempty"` // empty selects the first node

	// Generate options
	Refresh bool `json:"refresh,omitempty"` // bypass the trace cache

	// Render options
	Step      int      `json:"step"` // LastStep selects the final step
	Formats   []string `json:"formats,omitempty"`
	Engine    string   `json:"engine,omitempty"`
	Distances bool     `json:"distances,omitempty"`
	Scale     float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the validated input graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph's canonical text.
	GraphHash string

	// Start is the resolved start node.
	Start string

	// Trace is the complete step sequence.
	Trace *trace.Trace

	// Step is the index of the rendered step, or -1 when nothing was rendered.
	Step int

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	StepCount    int
	ParseTime    time.Duration
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TraceHit  bool // Whether the trace came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.Invalid(errors.ErrCodeInvalidFormat, format,
			"invalid format: %q (must be one of: %s)", format, joinKeys(ValidFormats))
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

// ValidateEngine checks that a layout engine is valid.
func ValidateEngine(engine string) error {
	if !ValidEngines[engine] {
		return errors.Invalid(errors.ErrCodeInvalidInput, engine,
			"invalid engine: %q (must be one of: %s)", engine, joinKeys(ValidEngines))
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func joinKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}

// ValidateAndSetDefaults checks option values and applies defaults.
// It is idempotent. Node, edge and start validation happen during parsing
// because they need the graph.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Step < LastStep {
		return errors.Invalid(errors.ErrCodeStepOutOfRange, fmt.Sprint(o.Step),
			"step must be %d (last) or a non-negative index, got %d", LastStep, o.Step)
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	o.SetRenderDefaults()
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// NodelinkOptions returns diagram options for a step with the given caption.
func (o *Options) NodelinkOptions(caption string) nodelink.Options {
	return nodelink.Options{
		Distances: o.Distances,
		Engine:    nodelink.Engine(o.Engine),
		Caption:   caption,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered step.
func (o *Options) ArtifactKeyOpts(format string, step int) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:    format,
		Step:      step,
		Engine:    o.Engine,
		Distances: o.Distances,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}
