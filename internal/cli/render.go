package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/mmdrender/pkg/diagram"
	"github.com/matzehuels/mmdrender/pkg/errors"
)

// errRenderFailures signals a batch that finished with failed diagrams.
// The failures have already been reported line by line.
type errRenderFailures struct {
	failed, total int
}

func (e *errRenderFailures) Error() string {
	return fmt.Sprintf("%d of %d diagrams failed to render", e.failed, e.total)
}

// runBatch renders the diagrams selected by patterns and prints a summary.
func runBatch(ctx context.Context, logger *log.Logger, p *pipeline, patterns []string) error {
	rep := newReporter(ctx, os.Stderr)
	b := p.batch(logger, rep)

	files, err := b.Resolve(patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		printInfo("No %s files found to render", b.Extension)
		return nil
	}
	if err := p.mermaid.Check(); err != nil {
		return err
	}

	printInfo("Rendering %d diagram(s) to %s...", len(files), strings.ToUpper(strings.Join(p.cfg.Formats, " + ")))
	prog := newProgress(logger)

	summary, err := b.RenderFiles(ctx, files)
	if err != nil {
		return err
	}
	printSummary(summary)
	prog.done("batch complete")

	if code := summary.ExitCode(); code != 0 {
		return &errRenderFailures{failed: len(summary.Failed()), total: summary.Total()}
	}
	return nil
}

func printSummary(s diagram.Summary) {
	msg := fmt.Sprintf("Done: %s/%s diagrams rendered",
		StyleNumber.Render(fmt.Sprint(s.Succeeded())), StyleNumber.Render(fmt.Sprint(s.Total())))
	if s.ExitCode() == 0 {
		printSuccess("%s", msg)
		return
	}
	printWarning("%s", msg)
}

// =============================================================================
// Reporter
// =============================================================================

// reporter prints one line per diagram, with a spinner on terminals.
type reporter struct {
	ctx         context.Context
	w           io.Writer
	interactive bool
	spinner     *Spinner
}

func newReporter(ctx context.Context, w io.Writer) *reporter {
	f, ok := w.(*os.File)
	return &reporter{ctx: ctx, w: w, interactive: ok && isatty.IsTerminal(f.Fd())}
}

func (r *reporter) Begin(source string) {
	if !r.interactive {
		return
	}
	r.spinner = newSpinner(r.ctx, r.w, "Rendering "+filepath.Base(source))
	r.spinner.Start()
}

func (r *reporter) End(res diagram.Result) {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
	printResult(res)
}

// printResult prints the outcome of one diagram render.
func printResult(res diagram.Result) {
	name := filepath.Base(res.Source)
	if res.Err != nil {
		printError("%s: %s", name, errors.UserMessage(res.Err))
		var rerr *errors.RenderError
		if stderrors.As(res.Err, &rerr) && rerr.Stderr != "" {
			for _, line := range strings.Split(strings.TrimSpace(rerr.Stderr), "\n") {
				printDetail("%s", line)
			}
		}
		return
	}
	names := make([]string, len(res.Artifacts))
	for i, a := range res.Artifacts {
		names[i] = a.Name()
	}
	line := fmt.Sprintf("%s %s %s", name, StyleDim.Render(iconArrow), strings.Join(names, ", "))
	if res.Duration > 0 {
		line += " " + StyleDim.Render("("+res.Duration.Round(time.Millisecond).String()+")")
	}
	printSuccess("%s", line)
}
