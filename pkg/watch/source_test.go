package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mmdrender/pkg/diagram"
)

// fileInfo stands in for a stat result; id plays the role of the inode.
type fileInfo struct {
	os.FileInfo
	id int
}

func (fileInfo) IsDir() bool { return false }

// testPairer builds a pairer over files, a name to identity map. The map is
// what stat sees, so tests change it to model files appearing.
func testPairer(files map[string]int) *pairer {
	p := &pairer{
		seen: make(map[string]os.FileInfo),
		stat: func(name string) (os.FileInfo, error) {
			id, ok := files[name]
			if !ok {
				return nil, os.ErrNotExist
			}
			return fileInfo{id: id}, nil
		},
		same: func(a, b os.FileInfo) bool { return a.(fileInfo).id == b.(fileInfo).id },
	}
	for name := range files {
		p.track(name)
	}
	return p
}

func TestPairer(t *testing.T) {
	ev := func(op fsnotify.Op, name string) fsnotify.Event { return fsnotify.Event{Name: name, Op: op} }

	tests := []struct {
		name  string
		files map[string]int
		in    []fsnotify.Event
		want  []Event
		trail bool // pending rename left at the end
	}{
		{
			name: "write",
			in:   []fsnotify.Event{ev(fsnotify.Write, "a.mmd")},
			want: []Event{ModifiedEvent("a.mmd")},
		},
		{
			name: "create",
			in:   []fsnotify.Event{ev(fsnotify.Create, "a.mmd")},
			want: []Event{CreatedEvent("a.mmd")},
		},
		{
			name: "remove",
			in:   []fsnotify.Event{ev(fsnotify.Remove, "a.mmd")},
			want: []Event{DeletedEvent("a.mmd")},
		},
		{
			name:  "rename then create of the same file is a move",
			files: map[string]int{"a.mmd": 1, "b.mmd": 1},
			in:    []fsnotify.Event{ev(fsnotify.Rename, "a.mmd"), ev(fsnotify.Create, "b.mmd")},
			want:  []Event{MovedEvent("a.mmd", "b.mmd")},
		},
		{
			name:  "rename then create of another file stays apart",
			files: map[string]int{"a.mmd": 1, "b.mmd": 2},
			in:    []fsnotify.Event{ev(fsnotify.Rename, "a.mmd"), ev(fsnotify.Create, "b.mmd")},
			want:  []Event{MovedEvent("a.mmd", ""), CreatedEvent("b.mmd")},
		},
		{
			name:  "rename of an unknown file is never joined",
			files: map[string]int{"b.mmd": 1},
			in:    []fsnotify.Event{ev(fsnotify.Rename, "a.mmd"), ev(fsnotify.Create, "b.mmd")},
			want:  []Event{MovedEvent("a.mmd", ""), CreatedEvent("b.mmd")},
		},
		{
			name: "rename then write flushes a move out",
			in:   []fsnotify.Event{ev(fsnotify.Rename, "a.mmd"), ev(fsnotify.Write, "c.mmd")},
			want: []Event{MovedEvent("a.mmd", ""), ModifiedEvent("c.mmd")},
		},
		{
			name:  "two renames",
			files: map[string]int{"a.mmd": 1, "b.mmd": 2, "c.mmd": 2},
			in:    []fsnotify.Event{ev(fsnotify.Rename, "a.mmd"), ev(fsnotify.Rename, "b.mmd"), ev(fsnotify.Create, "c.mmd")},
			want:  []Event{MovedEvent("a.mmd", ""), MovedEvent("b.mmd", "c.mmd")},
		},
		{
			name:  "unpaired rename stays pending",
			in:    []fsnotify.Event{ev(fsnotify.Rename, "a.mmd")},
			trail: true,
		},
		{
			name: "chmod is dropped",
			in:   []fsnotify.Event{ev(fsnotify.Chmod, "a.mmd")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPairer(tt.files)
			var got []Event
			for _, fe := range tt.in {
				got = append(got, p.feed(fe)...)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.trail, p.waiting())
		})
	}
}

func TestPairerTracksCreatedFiles(t *testing.T) {
	files := map[string]int{}
	p := testPairer(files)

	files["a.mmd"] = 7
	assert.Equal(t, []Event{CreatedEvent("a.mmd")}, p.feed(fsnotify.Event{Name: "a.mmd", Op: fsnotify.Create}))

	delete(files, "a.mmd")
	files["b.mmd"] = 7
	p.feed(fsnotify.Event{Name: "a.mmd", Op: fsnotify.Rename})
	assert.Equal(t, []Event{MovedEvent("a.mmd", "b.mmd")}, p.feed(fsnotify.Event{Name: "b.mmd", Op: fsnotify.Create}))
	assert.Contains(t, p.seen, "b.mmd")
	assert.NotContains(t, p.seen, "a.mmd")
}

func TestPairerFlush(t *testing.T) {
	p := testPairer(map[string]int{"a.mmd": 1})
	assert.Nil(t, p.flush())
	p.feed(fsnotify.Event{Name: "a.mmd", Op: fsnotify.Rename})
	assert.Equal(t, []Event{MovedEvent("a.mmd", "")}, p.flush())
	assert.False(t, p.waiting())
	assert.Empty(t, p.seen)
}

func TestNewPairerSeedsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.mmd")
	require.NoError(t, os.WriteFile(path, []byte("graph TD\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	p := newPairer(dir)
	assert.Len(t, p.seen, 1)
	assert.Contains(t, p.seen, path)
}

// next returns the first event matching keep, or fails after a timeout.
func next(t *testing.T, events <-chan Event, keep func(Event) bool) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed")
			if keep(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func startSource(t *testing.T, dir string, window time.Duration) *Source {
	t.Helper()
	src, err := NewSource(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	if window > 0 {
		src.PairWindow = window
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go src.Run(ctx)
	return src
}

func TestSourceRenameInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "flow.mmd")
	to := filepath.Join(dir, "process.mmd")
	require.NoError(t, os.WriteFile(from, []byte("graph TD\n"), 0o644))

	src := startSource(t, dir, 0)
	require.NoError(t, os.Rename(from, to))

	ev := next(t, src.Events(), func(e Event) bool { return e.Kind == Moved })
	assert.Equal(t, from, ev.From)
	assert.Equal(t, to, ev.To)
}

func TestSourceRenameOutOfDirectory(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()
	from := filepath.Join(dir, "flow.mmd")
	require.NoError(t, os.WriteFile(from, []byte("graph TD\n"), 0o644))

	src := startSource(t, dir, 20*time.Millisecond)
	require.NoError(t, os.Rename(from, filepath.Join(elsewhere, "flow.mmd")))

	ev := next(t, src.Events(), func(e Event) bool { return e.Kind == Moved })
	assert.Equal(t, from, ev.From)
	assert.Empty(t, ev.To)
}

func TestSourceSwapIsNotARename(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()
	old := filepath.Join(dir, "old.mmd")
	fresh := filepath.Join(elsewhere, "fresh.mmd")
	require.NoError(t, os.WriteFile(old, []byte("graph TD\nOLD-->X\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("graph TD\nNEW-->Y\n"), 0o644))

	src := startSource(t, dir, 2*time.Second)
	require.NoError(t, os.Rename(old, filepath.Join(elsewhere, "old.mmd")))
	require.NoError(t, os.Rename(fresh, filepath.Join(dir, "fresh.mmd")))

	ev := next(t, src.Events(), func(e Event) bool { return e.Kind == Moved })
	assert.Equal(t, old, ev.From)
	assert.Empty(t, ev.To, "an unrelated file moving in is not the rename target")

	ev = next(t, src.Events(), func(e Event) bool { return e.Kind == Created })
	assert.Equal(t, filepath.Join(dir, "fresh.mmd"), ev.Path)
}

func TestSourceWriteAndRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.mmd")
	src := startSource(t, dir, 0)

	require.NoError(t, os.WriteFile(path, []byte("graph TD\n"), 0o644))
	ev := next(t, src.Events(), func(e Event) bool { return e.Kind == Created || e.Kind == Modified })
	assert.Equal(t, path, ev.Path)

	require.NoError(t, os.Remove(path))
	ev = next(t, src.Events(), func(e Event) bool { return e.Kind == Deleted })
	assert.Equal(t, path, ev.Path)
}

func TestNewSourceMissingDirectory(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
}

func TestSessionReconcilesRename(t *testing.T) {
	e := newEnv(t)
	e.write(t, "flow.mmd", "graph TD\n")
	e.c.Debouncer.Now = time.Now

	outcomes := make(chan Outcome, 16)
	ready := make(chan struct{})
	var initial diagram.Summary
	s := &Session{
		Batch:       &diagram.Batch{Renderer: e.r, SourceDir: e.src, Extension: ".mmd"},
		Coordinator: e.c,
		OutputDir:   e.out,
		PairWindow:  50 * time.Millisecond,
		OnInitial:   func(sum diagram.Summary) { initial = sum },
		OnReady:     func() { close(ready) },
		OnOutcome:   func(o Outcome) { outcomes <- o },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("session stopped early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("session never became ready")
	}
	assert.Equal(t, 1, initial.Total())
	assert.Equal(t, 0, initial.ExitCode())
	e.fake.Reset()

	require.NoError(t, os.Rename(filepath.Join(e.src, "flow.mmd"), filepath.Join(e.src, "process.mmd")))

	deadline := time.After(5 * time.Second)
	for {
		var o Outcome
		select {
		case o = <-outcomes:
		case <-deadline:
			t.Fatal("no rename outcome")
		}
		if o.Action == ActionRename {
			require.NoError(t, o.Err)
			break
		}
	}
	assert.ElementsMatch(t, []string{"process.svg", "process@4x.png"}, e.outputs(t))
	assert.Empty(t, e.fake.Calls())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSessionMissingSourceDir(t *testing.T) {
	e := newEnv(t)
	s := &Session{
		Batch:       &diagram.Batch{Renderer: e.r, SourceDir: filepath.Join(e.src, "missing")},
		Coordinator: e.c,
	}
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, e.fake.Calls())
}

func TestSessionRendererCheckFails(t *testing.T) {
	e := newEnv(t)
	e.write(t, "flow.mmd", "graph TD\n")
	s := &Session{
		Batch:       &diagram.Batch{Renderer: e.r, SourceDir: e.src},
		Coordinator: e.c,
		Check:       func() error { return os.ErrNotExist },
	}
	require.ErrorIs(t, s.Run(context.Background()), os.ErrNotExist)
	assert.Empty(t, e.fake.Calls())
}
