// Package watch keeps generated artifacts in sync with a source directory.
//
// # Events
//
// Filesystem notifications are normalized into [Event], a tagged variant
// with four kinds: Modified, Created, Deleted and Moved. [Source] produces
// them from fsnotify. fsnotify reports a rename as Rename(old) followed by
// Create(new); Source pairs the two into a single Moved event and reports a
// Rename with no matching Create as a move out of the directory.
//
// # Reconciliation
//
// [Coordinator.Handle] applies one event at a time:
//
//   - Modified/Created source: render (debounced per path)
//   - Deleted source: remove existing artifacts
//   - Moved out of the directory: remove existing artifacts
//   - Moved to a non-source name: ignored
//   - Moved to a source name: rename existing artifacts, or render the
//     destination if there were none
//
// Every rule acts on the artifacts present on disk when the event is
// handled, never on cached assumptions, so bursts of events converge.
//
// # Sessions
//
// [Session.Run] performs an initial batch render, subscribes, and runs a
// single consumer goroutine until the context is cancelled.
package watch
