package cli

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mmdrender/pkg/observability"
)

// logHooks traces renders, cache lookups, and watch events at debug level.
type logHooks struct {
	logger *log.Logger
}

func registerLogHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetRenderHooks(h)
	observability.SetWatchHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnRenderStart(_ context.Context, source string, formats []string) {
	h.logger.Debug("render start", "source", filepath.Base(source), "formats", strings.Join(formats, ","))
}

func (h logHooks) OnRenderComplete(_ context.Context, source string, _ []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "source", filepath.Base(source), "took", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("render done", "source", filepath.Base(source), "took", d.Round(time.Millisecond))
}

func (h logHooks) OnEvent(_ context.Context, kind, path string) {
	h.logger.Debug("fs event", "kind", kind, "path", filepath.Base(path))
}

func (h logHooks) OnReconcile(_ context.Context, action, stem string, artifacts int, err error) {
	h.logger.Debug("reconcile", "action", action, "stem", stem, "artifacts", artifacts, "err", err)
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
