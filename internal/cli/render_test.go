package cli

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mmdrender/pkg/artifact"
	"github.com/matzehuels/mmdrender/pkg/diagram"
	"github.com/matzehuels/mmdrender/pkg/errors"
	"github.com/matzehuels/mmdrender/pkg/mermaid"
	"github.com/matzehuels/mmdrender/pkg/watch"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return &buf
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name string
		res  diagram.Result
		want []string
	}{
		{
			name: "success lists artifacts",
			res: diagram.Result{
				Source: "/d/flow.mmd",
				Artifacts: []artifact.Artifact{
					{Format: mermaid.FormatSVG, Path: "/d/flow.svg"},
					{Format: mermaid.FormatPNG, Path: "/d/flow@4x.png"},
				},
				Duration: 1500 * time.Millisecond,
			},
			want: []string{iconSuccess, "flow.mmd", "flow.svg, flow@4x.png", "1.5s"},
		},
		{
			name: "failure shows renderer diagnostics",
			res: diagram.Result{
				Source: "/d/seq.mmd",
				Err: errors.Wrap(errors.ErrCodeRenderFailed,
					&errors.RenderError{Output: "seq.svg", Stderr: "Parse error on line 2\nExpecting 'SOLID'", Err: stderrors.New("exit status 1")},
					"seq.mmd to seq.svg"),
			},
			want: []string{iconError, "seq.mmd: seq.mmd to seq.svg", "Parse error on line 2", "Expecting 'SOLID'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			printResult(tt.res)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("printResult output %q should contain %q", buf.String(), w)
				}
			}
		})
	}
}

func TestPrintSummary(t *testing.T) {
	buf := captureOutput(t)
	printSummary(diagram.Summary{Results: []diagram.Result{{Source: "a"}, {Source: "b", Err: stderrors.New("x")}}})

	got := buf.String()
	if !strings.Contains(got, "Done:") || !strings.Contains(got, "1") || !strings.Contains(got, "2") {
		t.Errorf("printSummary output = %q", got)
	}
	if !strings.Contains(got, iconWarning) {
		t.Errorf("partial failure should be a warning, got %q", got)
	}
}

func TestErrRenderFailures(t *testing.T) {
	err := &errRenderFailures{failed: 1, total: 3}
	if got, want := err.Error(), "1 of 3 diagrams failed to render"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestReporterNonInteractive(t *testing.T) {
	buf := captureOutput(t)
	var sink bytes.Buffer
	r := newReporter(t.Context(), &sink)
	if r.interactive {
		t.Fatal("a buffer is never interactive")
	}

	r.Begin("/d/flow.mmd")
	r.End(diagram.Result{Source: "/d/flow.mmd"})

	if sink.Len() != 0 {
		t.Errorf("non-interactive reporter drew a spinner: %q", sink.String())
	}
	if !strings.Contains(buf.String(), "flow.mmd") {
		t.Errorf("reporter should print the result, got %q", buf.String())
	}
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome watch.Outcome
		want    []string
		empty   bool
	}{
		{
			name:    "render",
			outcome: watch.Outcome{Action: watch.ActionRender, Source: "/d/flow.mmd", Paths: []string{"/o/flow.svg"}},
			want:    []string{"Change detected: flow.mmd", "flow.svg"},
		},
		{
			name:    "delete",
			outcome: watch.Outcome{Action: watch.ActionDelete, Source: "/d/flow.mmd", Paths: []string{"/o/flow.svg", "/o/flow@4x.png"}},
			want:    []string{"Deleted: flow.mmd", "removed flow.svg", "removed flow@4x.png"},
		},
		{
			name:    "delete with nothing to remove is silent",
			outcome: watch.Outcome{Action: watch.ActionDelete, Source: "/d/flow.mmd"},
			empty:   true,
		},
		{
			name: "rename",
			outcome: watch.Outcome{
				Event:  watch.MovedEvent("/d/flow.mmd", "/d/process.mmd"),
				Action: watch.ActionRename, Source: "/d/process.mmd",
				Paths: []string{"/o/process.svg", "/o/process@4x.png"},
			},
			want: []string{"Renamed: flow.mmd", "process.mmd", "process.svg, process@4x.png"},
		},
		{
			name:    "debounced is silent",
			outcome: watch.Outcome{Action: watch.ActionDebounced, Source: "/d/flow.mmd"},
			empty:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			printOutcome(tt.outcome)
			if tt.empty {
				if buf.Len() != 0 {
					t.Errorf("expected no output, got %q", buf.String())
				}
				return
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("printOutcome output %q should contain %q", buf.String(), w)
				}
			}
		})
	}
}
