package watch

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mmdrender/pkg/diagram"
	"github.com/matzehuels/mmdrender/pkg/errors"
)

// Session runs watch mode: an initial batch render, then event-driven
// reconciliation until the context is cancelled.
type Session struct {
	Batch       *diagram.Batch
	Coordinator *Coordinator

	// Check verifies the external renderer is available. Optional.
	Check func() error
	// OutputDir is created before the initial render when set.
	OutputDir  string
	PairWindow time.Duration

	// OnInitial receives the summary of the initial batch render.
	OnInitial func(diagram.Summary)
	// OnReady is called once the directory subscription is live.
	OnReady func()
	// OnOutcome receives every handled event that was not ignored.
	OnOutcome func(Outcome)

	Logger *log.Logger
}

func (s *Session) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

// Run blocks until ctx is cancelled. A cancelled context is a clean stop
// and returns nil. Startup failures (missing source directory, missing
// renderer) are returned before anything is rendered.
func (s *Session) Run(ctx context.Context) error {
	logger := s.logger()

	if err := s.Batch.CheckSourceDir(); err != nil {
		return err
	}
	if s.Check != nil {
		if err := s.Check(); err != nil {
			return err
		}
	}
	if s.OutputDir != "" {
		if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeArtifactIO, err, "create %s", s.OutputDir)
		}
	}

	summary, err := s.Batch.RenderAll(ctx, nil)
	if err != nil {
		return ignoreCanceled(err)
	}
	if s.OnInitial != nil {
		s.OnInitial(summary)
	}

	src, err := NewSource(s.Coordinator.Dir, logger)
	if err != nil {
		return err
	}
	defer src.Close()
	if s.PairWindow > 0 {
		src.PairWindow = s.PairWindow
	}

	logger.Info("watching", "dir", s.Coordinator.Dir)
	if s.OnReady != nil {
		s.OnReady()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return src.Run(gctx) })
	g.Go(func() error {
		// In-flight renders finish even after cancellation.
		hctx := context.WithoutCancel(gctx)
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-src.Events():
				if !ok {
					return nil
				}
				out := s.Coordinator.Handle(hctx, ev)
				if out.Action != ActionIgnore && s.OnOutcome != nil {
					s.OnOutcome(out)
				}
			}
		}
	})
	return ignoreCanceled(g.Wait())
}

func ignoreCanceled(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
