package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingCollector struct {
	name     string
	interval time.Duration
	cycles   atomic.Int64
	err      error
}

func (c *countingCollector) Name() string            { return c.name }
func (c *countingCollector) Interval() time.Duration { return c.interval }

func (c *countingCollector) Collect(context.Context) error {
	c.cycles.Add(1)
	return c.err
}

func TestRunnerRunsImmediateFirstCycle(t *testing.T) {
	c := &countingCollector{name: "test", interval: time.Hour}
	r := NewRunner([]Collector{c}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	deadline := time.After(2 * time.Second)
	for c.cycles.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	r.Wait()

	if got := c.cycles.Load(); got != 1 {
		t.Errorf("expected exactly 1 cycle with an hour interval, got %d", got)
	}
}

func TestRunnerTicks(t *testing.T) {
	c := &countingCollector{name: "test", interval: 20 * time.Millisecond}
	r := NewRunner([]Collector{c}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	deadline := time.After(2 * time.Second)
	for c.cycles.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 cycles, got %d", c.cycles.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	r.Wait()
}

func TestRunnerKeepsPollingAfterFailure(t *testing.T) {
	c := &countingCollector{
		name:     "flaky",
		interval: 20 * time.Millisecond,
		err:      errors.New("device unreachable"),
	}
	r := NewRunner([]Collector{c}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	deadline := time.After(2 * time.Second)
	for c.cycles.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("failures must not stop the loop, got %d cycles", c.cycles.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	r.Wait()
}

func TestRunnerStopsAllCollectors(t *testing.T) {
	collectors := []Collector{
		&countingCollector{name: "a", interval: 10 * time.Millisecond},
		&countingCollector{name: "b", interval: 10 * time.Millisecond},
	}
	r := NewRunner(collectors, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
}
