package diagram

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mmdrender/pkg/artifact"
	"github.com/matzehuels/mmdrender/pkg/errors"
)

// DefaultExtension is the diagram source extension.
const DefaultExtension = ".mmd"

// Result is the outcome of rendering one source.
type Result struct {
	Source    string
	Artifacts []artifact.Artifact
	Duration  time.Duration
	Err       error
}

// Summary tallies a batch run.
type Summary struct {
	Results []Result
}

// Total returns the number of sources attempted.
func (s Summary) Total() int { return len(s.Results) }

// Succeeded returns the number of sources rendered without error.
func (s Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (s Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// ExitCode is 0 when every source rendered (or there was nothing to do)
// and 1 otherwise.
func (s Summary) ExitCode() int {
	if s.Succeeded() == s.Total() {
		return 0
	}
	return 1
}

// Reporter receives per-source progress from a batch run.
type Reporter interface {
	Begin(source string)
	End(r Result)
}

type nopReporter struct{}

func (nopReporter) Begin(string) {}
func (nopReporter) End(Result)   {}

// Batch renders a working set of sources.
type Batch struct {
	Renderer  *Renderer
	SourceDir string
	Extension string
	Reporter  Reporter
	Logger    *log.Logger
}

func (b *Batch) ext() string {
	if b.Extension == "" {
		return DefaultExtension
	}
	return b.Extension
}

func (b *Batch) logger() *log.Logger {
	if b.Logger == nil {
		return log.Default()
	}
	return b.Logger
}

func (b *Batch) reporter() Reporter {
	if b.Reporter == nil {
		return nopReporter{}
	}
	return b.Reporter
}

// CheckSourceDir reports a SOURCE_DIR_NOT_FOUND error unless the source
// directory exists.
func (b *Batch) CheckSourceDir() error {
	info, err := os.Stat(b.SourceDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSourceDirNotFound, err, "%s directory not found", b.SourceDir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeSourceDirNotFound, "%s is not a directory", b.SourceDir)
	}
	return nil
}

// Resolve returns the sorted, de-duplicated working set for patterns.
//
// With no patterns every source directly inside SourceDir is selected.
// A pattern containing a path separator, or an absolute path, names a file
// directly; the extension is appended when missing. Any other pattern is
// a glob matched against file names in SourceDir, with the extension
// appended unless already present.
func (b *Batch) Resolve(patterns []string) ([]string, error) {
	if err := b.CheckSourceDir(); err != nil {
		return nil, err
	}
	ext := b.ext()

	if len(patterns) == 0 {
		return b.scan("*" + ext)
	}

	var files []string
	for _, p := range patterns {
		if isPathPattern(p) {
			path := p
			if filepath.Ext(path) == "" {
				path += ext
			}
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				b.logger().Warn("no such diagram", "path", path)
				continue
			}
			files = append(files, filepath.Clean(path))
			continue
		}

		if !strings.HasSuffix(p, ext) {
			p += ext
		}
		matches, err := b.scan(p)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			b.logger().Debug("pattern matched nothing", "pattern", p)
		}
		files = append(files, matches...)
	}
	return dedupe(files), nil
}

func isPathPattern(p string) bool {
	return filepath.IsAbs(p) || strings.ContainsRune(p, '/') || strings.ContainsRune(p, filepath.Separator)
}

// scan matches pattern against non-directory entries of SourceDir.
func (b *Batch) scan(pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pattern %q", pattern)
	}
	entries, err := os.ReadDir(b.SourceDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceDirNotFound, err, "read %s", b.SourceDir)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != b.ext() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			out = append(out, filepath.Join(b.SourceDir, e.Name()))
		}
	}
	slices.Sort(out)
	return out, nil
}

// dedupe removes paths naming the same file and sorts the result.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// RenderAll resolves patterns and renders every selected source.
// Per-source failures are recorded in the summary and do not stop the run.
// The returned error is non-nil only when the working set could not be
// established or ctx was cancelled between sources.
func (b *Batch) RenderAll(ctx context.Context, patterns []string) (Summary, error) {
	files, err := b.Resolve(patterns)
	if err != nil {
		return Summary{}, err
	}
	return b.RenderFiles(ctx, files)
}

// RenderFiles renders files in order.
func (b *Batch) RenderFiles(ctx context.Context, files []string) (Summary, error) {
	var summary Summary
	logger := b.logger()
	rep := b.reporter()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rep.Begin(f)
		start := time.Now()
		arts, err := b.Renderer.Render(ctx, f)
		res := Result{Source: f, Artifacts: arts, Duration: time.Since(start), Err: err}
		if err != nil {
			logger.Debug("render failed", "source", f, "err", err)
		}
		rep.End(res)
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}
