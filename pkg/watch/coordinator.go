package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mmdrender/pkg/artifact"
	"github.com/matzehuels/mmdrender/pkg/diagram"
	"github.com/matzehuels/mmdrender/pkg/errors"
	"github.com/matzehuels/mmdrender/pkg/observability"
)

// DiagramRenderer renders one diagram source to its artifact set.
// *diagram.Renderer satisfies it.
type DiagramRenderer interface {
	Render(ctx context.Context, sourcePath string) ([]artifact.Artifact, error)
}

// Action is what the coordinator did in response to an event.
type Action string

// Actions reported in an Outcome.
const (
	ActionRender    Action = "render"
	ActionDelete    Action = "delete"
	ActionRename    Action = "rename"
	ActionDebounced Action = "debounced"
	ActionIgnore    Action = "skip"
)

// Outcome describes the handling of one event.
type Outcome struct {
	Event  Event
	Action Action
	Source string // source path acted on
	Stem   string
	Paths  []string // artifacts written, removed, or renamed to
	Err    error
}

// Coordinator maps filesystem events to artifact reconciliation.
// Handle must be called from a single goroutine.
type Coordinator struct {
	Dir       string
	Extension string
	Layout    artifact.Layout
	Renderer  DiagramRenderer
	Debouncer *Debouncer
	Logger    *log.Logger
}

// NewCoordinator returns a coordinator for sources in dir with the
// default debounce window.
func NewCoordinator(dir, ext string, layout artifact.Layout, r DiagramRenderer, logger *log.Logger) *Coordinator {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if ext == "" {
		ext = diagram.DefaultExtension
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		Dir:       dir,
		Extension: ext,
		Layout:    layout,
		Renderer:  r,
		Debouncer: NewDebouncer(DefaultDebounce),
		Logger:    logger,
	}
}

// Handle applies one event and reports what was done.
// Failures are reported in the Outcome; Handle never panics on I/O errors.
func (c *Coordinator) Handle(ctx context.Context, ev Event) Outcome {
	observability.Watch().OnEvent(ctx, ev.Kind.String(), ev.subject())

	var out Outcome
	switch ev.Kind {
	case Modified, Created:
		out = c.render(ctx, ev.Path)
	case Deleted:
		out = c.deleted(ev.Path)
	case Moved:
		out = c.moved(ctx, ev.From, ev.To)
	default:
		c.Logger.Debug("unknown event", "event", ev)
		out = Outcome{Action: ActionIgnore}
	}
	out.Event = ev

	if out.Action != ActionIgnore {
		observability.Watch().OnReconcile(ctx, string(out.Action), out.Stem, len(out.Paths), out.Err)
	}
	return out
}

func (c *Coordinator) isSource(path string) bool {
	return path != "" && filepath.Ext(path) == c.Extension
}

func (c *Coordinator) inside(path string) bool {
	if path == "" {
		return false
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Dir(path) == filepath.Clean(c.Dir)
}

func (c *Coordinator) render(ctx context.Context, path string) Outcome {
	if !c.isSource(path) {
		return Outcome{Action: ActionIgnore}
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Outcome{Action: ActionIgnore}
	}
	stem := artifact.Stem(path)
	if !c.Debouncer.Allow(path) {
		c.Logger.Debug("debounced", "source", filepath.Base(path))
		return Outcome{Action: ActionDebounced, Source: path, Stem: stem}
	}

	arts, err := c.Renderer.Render(ctx, path)
	if errors.Is(err, errors.ErrCodeSourceNotFound) {
		// Deleted before we got to it; the Deleted event cleans up.
		c.Logger.Debug("source vanished before render", "source", filepath.Base(path))
		c.Debouncer.Forget(path)
		return Outcome{Action: ActionIgnore}
	}
	out := Outcome{Action: ActionRender, Source: path, Stem: stem, Err: err}
	for _, a := range arts {
		out.Paths = append(out.Paths, a.Path)
	}
	if err != nil {
		c.Logger.Error("render failed", "source", filepath.Base(path), "err", err)
	}
	return out
}

func (c *Coordinator) remove(path string) Outcome {
	stem := artifact.Stem(path)
	c.Debouncer.Forget(path)
	removed, err := c.Layout.Remove(stem)
	if err != nil {
		c.Logger.Error("remove artifacts", "stem", stem, "err", err)
	}
	return Outcome{Action: ActionDelete, Source: path, Stem: stem, Paths: removed, Err: err}
}

func (c *Coordinator) deleted(path string) Outcome {
	if !c.isSource(path) {
		return Outcome{Action: ActionIgnore}
	}
	return c.remove(path)
}

func (c *Coordinator) moved(ctx context.Context, from, to string) Outcome {
	// Left the watched directory: same as a delete.
	if to == "" || !c.inside(to) {
		if !c.isSource(from) {
			return Outcome{Action: ActionIgnore}
		}
		return c.remove(from)
	}
	if !c.isSource(to) {
		return Outcome{Action: ActionIgnore}
	}
	// Renamed from a temp or foreign name into place: a new source.
	if !c.isSource(from) {
		return c.render(ctx, to)
	}

	fromStem, toStem := artifact.Stem(from), artifact.Stem(to)
	if len(c.Layout.Existing(fromStem)) == 0 {
		c.Debouncer.Forget(from)
		return c.render(ctx, to)
	}

	c.Debouncer.Forget(from)
	renamed, err := c.Layout.Rename(fromStem, toStem)
	if err != nil {
		c.Logger.Error("rename artifacts", "from", fromStem, "to", toStem, "err", err)
	}
	return Outcome{Action: ActionRename, Source: to, Stem: toStem, Paths: renamed, Err: err}
}
