package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/mmdrender/pkg/errors"
)

// DefaultPairWindow is how long a Rename waits for its matching Create.
const DefaultPairWindow = 250 * time.Millisecond

// Source turns fsnotify notifications for one directory into Events.
type Source struct {
	Dir        string
	PairWindow time.Duration
	Logger     *log.Logger

	watcher *fsnotify.Watcher
	pairer  *pairer
	events  chan Event
}

// NewSource subscribes to dir. The caller must call Close.
func NewSource(dir string, logger *log.Logger) (*Source, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, errors.Wrap(errors.ErrCodeSourceDirNotFound, err, "watch %s", dir)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Source{
		Dir:        dir,
		PairWindow: DefaultPairWindow,
		Logger:     logger,
		watcher:    w,
		pairer:     newPairer(dir),
		events:     make(chan Event),
	}, nil
}

// Events returns the channel Run delivers to. It is closed when Run returns.
func (s *Source) Events() <-chan Event { return s.events }

// Close releases the underlying watcher.
func (s *Source) Close() error { return s.watcher.Close() }

// Run pumps notifications until ctx is cancelled or the watcher closes.
func (s *Source) Run(ctx context.Context) error {
	defer close(s.events)

	p := s.pairer
	var (
		timer  *time.Timer
		expire <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	emit := func(evs []Event) error {
		for _, ev := range evs {
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(s.PairWindow)
		} else {
			timer.Reset(s.PairWindow)
		}
		expire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case fe, ok := <-s.watcher.Events:
			if !ok {
				return emit(p.flush())
			}
			s.Logger.Debug("fsnotify", "op", fe.Op.String(), "name", fe.Name)
			prev := p.pending
			out := p.feed(fe)
			switch {
			case !p.waiting():
				expire = nil
			case p.pending != prev || len(out) > 0:
				arm()
			}
			if err := emit(out); err != nil {
				return err
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return emit(p.flush())
			}
			s.Logger.Warn("watcher error", "err", err)

		case <-expire:
			expire = nil
			if err := emit(p.flush()); err != nil {
				return err
			}
		}
	}
}

// pairer joins a Rename with the Create that immediately follows it. The
// two are only joined when the created path is the same file the renamed
// path was, so a move out and an unrelated move in stay separate.
type pairer struct {
	pending string
	seen    map[string]os.FileInfo

	stat func(string) (os.FileInfo, error)
	same func(a, b os.FileInfo) bool
}

// newPairer remembers the identity of every file already in dir.
func newPairer(dir string) *pairer {
	p := &pairer{
		seen: make(map[string]os.FileInfo),
		stat: os.Stat,
		same: os.SameFile,
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if !e.IsDir() {
			p.track(filepath.Join(dir, e.Name()))
		}
	}
	return p
}

func (p *pairer) track(path string) {
	if fi, err := p.stat(path); err == nil && !fi.IsDir() {
		p.seen[path] = fi
	}
}

func (p *pairer) waiting() bool { return p.pending != "" }

// flush reports a pending rename as a move out of the directory.
func (p *pairer) flush() []Event {
	if p.pending == "" {
		return nil
	}
	ev := MovedEvent(p.pending, "")
	delete(p.seen, p.pending)
	p.pending = ""
	return []Event{ev}
}

// joins reports whether the file now at path is the one that left pending.
func (p *pairer) joins(path string) (os.FileInfo, bool) {
	prev, ok := p.seen[p.pending]
	if !ok {
		return nil, false
	}
	cur, err := p.stat(path)
	if err != nil {
		return nil, false
	}
	return cur, p.same(prev, cur)
}

func (p *pairer) feed(fe fsnotify.Event) []Event {
	switch {
	case fe.Has(fsnotify.Create):
		if p.pending != "" {
			if cur, ok := p.joins(fe.Name); ok {
				ev := MovedEvent(p.pending, fe.Name)
				delete(p.seen, p.pending)
				p.seen[fe.Name] = cur
				p.pending = ""
				return []Event{ev}
			}
		}
		out := append(p.flush(), CreatedEvent(fe.Name))
		p.track(fe.Name)
		return out

	case fe.Has(fsnotify.Remove):
		delete(p.seen, fe.Name)
		return append(p.flush(), DeletedEvent(fe.Name))

	case fe.Has(fsnotify.Rename):
		out := p.flush()
		p.pending = fe.Name
		return out

	case fe.Has(fsnotify.Write):
		out := append(p.flush(), ModifiedEvent(fe.Name))
		p.track(fe.Name)
		return out
	}
	// Chmod and friends carry no content change.
	return nil
}
