// Package mermaidtest provides a fake mermaid.Renderer for tests.
package mermaidtest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/matzehuels/mmdrender/pkg/mermaid"
)

// Call records one RenderToFile invocation.
type Call struct {
	Source string
	Input  string // contents of Source at call time
	Output string
	Format mermaid.Format
	Width  int
}

// Fake writes deterministic bytes derived from its input.
type Fake struct {
	// Fail, when set, is consulted before writing; a non-nil result is
	// returned as the render error.
	Fail func(c Call) error

	mu    sync.Mutex
	calls []Call
}

// RenderToFile implements mermaid.Renderer.
func (f *Fake) RenderToFile(ctx context.Context, sourcePath, outputPath string, format mermaid.Format, width int) error {
	input, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	c := Call{Source: sourcePath, Input: string(input), Output: outputPath, Format: format, Width: width}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	fail := f.Fail
	f.mu.Unlock()

	if fail != nil {
		if err := fail(c); err != nil {
			return err
		}
	}
	return os.WriteFile(outputPath, Output(c.Input, format, width), 0o644)
}

// Output returns the bytes the fake writes for the given input.
func Output(input string, format mermaid.Format, width int) []byte {
	return []byte(fmt.Sprintf("%s/%d\n%s", format, width, input))
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Reset forgets recorded invocations.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

var _ mermaid.Renderer = (*Fake)(nil)
