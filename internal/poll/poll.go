// Package poll runs collectors on fixed intervals. Each collector's cycles
// run strictly one after another; there is no in-cycle retry — a failed
// cycle is logged and the next tick tries again.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Collector is one polled data source. Collect must run a full cycle to
// completion: acquire, fetch, parse, snapshot, release.
type Collector interface {
	Name() string
	Interval() time.Duration
	Collect(ctx context.Context) error
}

// Runner drives a set of collectors until its context is cancelled.
// Collectors are independent of each other; within one collector, cycles
// never overlap.
type Runner struct {
	collectors []Collector
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewRunner creates a Runner over the given collectors.
func NewRunner(collectors []Collector, logger *zap.Logger) *Runner {
	return &Runner{collectors: collectors, logger: logger}
}

// Start launches one polling loop per collector. Each collector runs an
// immediate first cycle, then ticks at its interval.
func (r *Runner) Start(ctx context.Context) {
	for _, c := range r.collectors {
		r.wg.Add(1)
		go func(c Collector) {
			defer r.wg.Done()
			r.loop(ctx, c)
		}(c)
	}
}

// Wait blocks until all polling loops have exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, c Collector) {
	logger := r.logger.With(zap.String("collector", c.Name()))
	logger.Info("polling started", zap.Duration("interval", c.Interval()))

	r.runCycle(ctx, c, logger)

	ticker := time.NewTicker(c.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("polling stopped")
			return
		case <-ticker.C:
			r.runCycle(ctx, c, logger)
		}
	}
}

// runCycle executes one collection cycle. Failures abandon the cycle; the
// next tick retries from scratch.
func (r *Runner) runCycle(ctx context.Context, c Collector, logger *zap.Logger) {
	if ctx.Err() != nil {
		return
	}

	cycleID := uuid.New().String()
	start := time.Now()

	if err := c.Collect(ctx); err != nil {
		logger.Error("cycle failed",
			zap.String("cycle_id", cycleID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	logger.Debug("cycle completed",
		zap.String("cycle_id", cycleID),
		zap.Duration("elapsed", time.Since(start)),
	)
}
