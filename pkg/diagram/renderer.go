package diagram

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/mmdrender/pkg/artifact"
	"github.com/matzehuels/mmdrender/pkg/cache"
	"github.com/matzehuels/mmdrender/pkg/errors"
	"github.com/matzehuels/mmdrender/pkg/mermaid"
	"github.com/matzehuels/mmdrender/pkg/observability"
)

// scratchPrefix names the transient files handed to the renderer.
const scratchPrefix = "mmdrender-"

// Renderer renders single diagram sources. The zero value is not usable:
// Mermaid and Layout must be set.
type Renderer struct {
	Mermaid mermaid.Renderer
	Layout  artifact.Layout

	// Init is prepended to sources lacking an init directive.
	Init string

	// Formats selects the artifacts produced by Render. Empty means svg+png.
	Formats []mermaid.Format

	// Cache short-circuits renders whose inputs were seen before.
	// Nil disables caching.
	Cache cache.Cache

	// Identity distinguishes renderer configurations in cache keys
	// (command line, background).
	Identity []string

	// ScratchDir holds the transient prepared source. Empty means os.TempDir().
	ScratchDir string

	Logger *log.Logger
}

func (r *Renderer) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func (r *Renderer) formats() []mermaid.Format {
	if len(r.Formats) == 0 {
		return []mermaid.Format{mermaid.FormatSVG, mermaid.FormatPNG}
	}
	return r.Formats
}

// Render renders sourcePath with the configured formats and returns the
// artifacts written. A nil error means every invocation succeeded.
func (r *Renderer) Render(ctx context.Context, sourcePath string) ([]artifact.Artifact, error) {
	return r.RenderFormats(ctx, sourcePath, r.formats())
}

// RenderFormats renders sourcePath into the artifacts for formats.
// Artifacts are produced in set order (vector, then variants). The first
// failure stops the remaining invocations for this source.
func (r *Renderer) RenderFormats(ctx context.Context, sourcePath string, formats []mermaid.Format) (done []artifact.Artifact, err error) {
	names := formatNames(formats)
	start := time.Now()
	observability.Render().OnRenderStart(ctx, sourcePath, names)
	defer func() {
		observability.Render().OnRenderComplete(ctx, sourcePath, names, time.Since(start), err)
	}()

	if len(formats) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no output formats requested")
	}

	text, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceNotFound, err, "read %s", filepath.Base(sourcePath))
	}
	prepared := []byte(mermaid.Prepare(string(text), r.Init))

	if err := os.MkdirAll(r.Layout.Dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeArtifactIO, err, "create output directory")
	}

	scratch, release, err := r.writeScratch(prepared)
	if err != nil {
		return nil, err
	}
	defer release()

	sourceHash := cache.Hash(prepared)
	for _, a := range r.Layout.For(artifact.Stem(sourcePath), formats) {
		if err := r.renderArtifact(ctx, scratch, sourceHash, a); err != nil {
			return done, errors.Wrap(errors.ErrCodeRenderFailed, err, "%s to %s", filepath.Base(sourcePath), a.Name())
		}
		done = append(done, a)
	}
	return done, nil
}

// writeScratch persists the prepared text and returns its path together
// with a release func that deletes it.
func (r *Renderer) writeScratch(prepared []byte) (string, func(), error) {
	dir := r.ScratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, scratchPrefix+uuid.NewString()+".mmd")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "create scratch file")
	}
	release := func() { _ = os.Remove(path) }

	if _, err := f.Write(prepared); err != nil {
		f.Close()
		release()
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "write scratch file")
	}
	if err := f.Close(); err != nil {
		release()
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "close scratch file")
	}
	return path, release, nil
}

func (r *Renderer) renderArtifact(ctx context.Context, scratch, sourceHash string, a artifact.Artifact) error {
	logger := r.logger()
	c := r.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	key := cache.ArtifactKey(cache.ArtifactKeyOpts{
		SourceHash: sourceHash,
		Format:     string(a.Format),
		Width:      a.Width,
		Renderer:   r.Identity,
	})

	data, hit, err := c.Get(ctx, key)
	if err != nil {
		logger.Debug("cache read failed", "artifact", a.Name(), "err", err)
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		if err := os.WriteFile(a.Path, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeArtifactIO, err, "write %s", a.Name())
		}
		logger.Debug("artifact from cache", "artifact", a.Name())
		return nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	if err := r.Mermaid.RenderToFile(ctx, scratch, a.Path, a.Format, a.Width); err != nil {
		return err
	}

	if _, isNull := c.(*cache.NullCache); isNull {
		return nil
	}
	out, err := os.ReadFile(a.Path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "renderer produced no %s", a.Name())
	}
	if err := c.Set(ctx, key, out, cache.DefaultTTL); err != nil {
		logger.Debug("cache write failed", "artifact", a.Name(), "err", err)
		return nil
	}
	observability.Cache().OnCacheSet(ctx, "artifact", len(out))
	return nil
}

func formatNames(formats []mermaid.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
