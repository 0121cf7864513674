// Package warmup runs startup steps and tracks service readiness.
package warmup

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gat-college/faqbot/internal/logger"
)

// Step is one named startup task.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Recorder receives warmup metrics.
type Recorder interface {
	RecordWarmupTask(step, status string)
	RecordWarmupDuration(seconds float64)
}

// Run executes steps concurrently and waits for all of them. A failing step
// does not cancel the others; the first error is returned once every step
// has finished. m may be nil.
func Run(ctx context.Context, log *logger.Logger, m Recorder, steps ...Step) error {
	log = log.WithModule("warmup")
	start := time.Now()

	var g errgroup.Group
	for _, step := range steps {
		g.Go(func() (err error) {
			stepStart := time.Now()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				status := "success"
				if err != nil {
					status = "error"
					log.WithError(err).WithField("step", step.Name).Warn("Warmup step failed")
				} else {
					log.WithField("step", step.Name).
						WithField("duration_ms", time.Since(stepStart).Milliseconds()).
						Debug("Warmup step complete")
				}
				if m != nil {
					m.RecordWarmupTask(step.Name, status)
				}
			}()

			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", step.Name, err)
			}
			if err := step.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", step.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()

	duration := time.Since(start)
	if m != nil {
		m.RecordWarmupDuration(duration.Seconds())
	}
	log.WithField("steps", len(steps)).
		WithField("duration_ms", duration.Milliseconds()).
		Info("Warmup complete")

	return err
}
