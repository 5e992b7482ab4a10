package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathstep/pkg/observability"
)

// logHooks writes pipeline, cache and playback events to a logger at
// debug level.
type logHooks struct {
	logger *log.Logger
}

// installLogHooks registers logHooks for every hook kind except HTTP, which
// the server logs itself.
func installLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetPlaybackHooks(h)
}

func (h logHooks) OnParseStart(context.Context) {}

func (h logHooks) OnParseComplete(_ context.Context, nodes, edges int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("parse failed", "error", err, "duration", dur)
		return
	}
	h.logger.Debug("parse complete", "nodes", nodes, "edges", edges, "duration", dur)
}

func (h logHooks) OnGenerateStart(_ context.Context, start string, nodes int) {
	h.logger.Debug("generate", "start", start, "nodes", nodes)
}

func (h logHooks) OnGenerateComplete(_ context.Context, start string, steps int, dur time.Duration) {
	h.logger.Debug("generate complete", "start", start, "steps", steps, "duration", dur)
}

func (h logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render", "formats", formats)
}

func (h logHooks) OnRenderComplete(_ context.Context, formats []string, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "formats", formats, "error", err)
		return
	}
	h.logger.Debug("render complete", "formats", formats, "duration", dur)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnAdvance(index, length int, auto bool) {
	h.logger.Debug("advance", "index", index, "len", length, "auto", auto)
}

func (h logHooks) OnAutoPlay(playing bool, delayMs int) {
	h.logger.Debug("auto-play", "playing", playing, "delay_ms", delayMs)
}

func (h logHooks) OnReset(length int) {
	h.logger.Debug("reset", "len", length)
}

var (
	_ observability.PipelineHooks = logHooks{}
	_ observability.CacheHooks    = logHooks{}
	_ observability.PlaybackHooks = logHooks{}
)
