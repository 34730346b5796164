package watch

import "time"

// DefaultDebounce is the window within which repeated triggers are dropped.
const DefaultDebounce = time.Second

// Debouncer suppresses repeated triggers for the same path.
// It is owned by a single Coordinator and is not safe for concurrent use.
type Debouncer struct {
	Window time.Duration
	Now    func() time.Time

	last map[string]time.Time
}

// NewDebouncer returns a Debouncer with the given window.
// A non-positive window disables debouncing.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{Window: window, Now: time.Now, last: make(map[string]time.Time)}
}

// Allow reports whether path may trigger now, and if so records the trigger.
func (d *Debouncer) Allow(path string) bool {
	if d.last == nil {
		d.last = make(map[string]time.Time)
	}
	now := d.Now()
	if d.Window > 0 {
		if prev, ok := d.last[path]; ok && now.Sub(prev) < d.Window {
			return false
		}
	}
	d.last[path] = now
	return true
}

// Forget drops the record for path, so the next trigger is allowed.
func (d *Debouncer) Forget(path string) {
	delete(d.last, path)
}

// Len returns the number of recorded paths.
func (d *Debouncer) Len() int { return len(d.last) }
