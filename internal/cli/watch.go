package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mmdrender/pkg/artifact"
	"github.com/matzehuels/mmdrender/pkg/diagram"
	"github.com/matzehuels/mmdrender/pkg/watch"
)

// runWatch renders everything once, then follows the source directory
// until ctx is cancelled.
func runWatch(ctx context.Context, logger *log.Logger, p *pipeline) error {
	coord := watch.NewCoordinator(p.cfg.SourceDir, p.cfg.Extension, p.renderer.Layout, p.renderer, logger)
	coord.Debouncer.Window = p.cfg.Debounce.Duration

	s := &watch.Session{
		Batch:       p.batch(logger, &reporter{}),
		Coordinator: coord,
		Check:       p.mermaid.Check,
		OutputDir:   p.cfg.Output(),
		Logger:      logger,
		OnInitial: func(sum diagram.Summary) {
			printSummary(sum)
		},
		OnReady: func() {
			printNewline()
			printInfo("Watching %s for changes... %s", StyleHighlight.Render(p.cfg.SourceDir), StyleDim.Render("(Ctrl+C to stop)"))
		},
		OnOutcome: printOutcome,
	}

	printInfo("Initial render...")
	if err := s.Run(ctx); err != nil {
		return err
	}
	printNewline()
	printInfo("Stopped watching")
	return nil
}

// printOutcome reports one reconciliation step.
func printOutcome(o watch.Outcome) {
	switch o.Action {
	case watch.ActionRender:
		printInfo("Change detected: %s", filepath.Base(o.Source))
		var arts []artifact.Artifact
		for _, path := range o.Paths {
			arts = append(arts, artifact.Artifact{Path: path})
		}
		printResult(diagram.Result{Source: o.Source, Artifacts: arts, Err: o.Err})
	case watch.ActionDelete:
		if len(o.Paths) == 0 && o.Err == nil {
			return
		}
		printInfo("Deleted: %s", filepath.Base(o.Source))
		for _, path := range o.Paths {
			printDetail("removed %s", filepath.Base(path))
		}
		if o.Err != nil {
			printError("%v", o.Err)
		}
	case watch.ActionRename:
		printInfo("Renamed: %s %s %s", filepath.Base(o.Event.From), iconArrow, filepath.Base(o.Source))
		names := make([]string, len(o.Paths))
		for i, path := range o.Paths {
			names[i] = filepath.Base(path)
		}
		if len(names) > 0 {
			printDetail("%s", strings.Join(names, ", "))
		}
		if o.Err != nil {
			printError("%v", o.Err)
		}
	}
}
