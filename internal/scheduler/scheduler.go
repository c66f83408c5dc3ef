// Package scheduler periodically generates chore instances for every household.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorewheel/internal/metrics"
)

// Generator is the part of chore.Generator the sweep drives.
type Generator interface {
	EnsureForFamily(ctx context.Context, householdID int64) (int, error)
}

// HouseholdLister lists the households to sweep.
type HouseholdLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// SweepResult summarises one pass.
type SweepResult struct {
	RunID      string
	Households int
	Created    int
	Failed     int
}

// Scheduler runs a sweep on start and then every interval.
type Scheduler struct {
	mu         sync.RWMutex
	generator  Generator
	households HouseholdLister
	interval   time.Duration
	logger     *slog.Logger
	metrics    metrics.Collector
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(gen Generator, households HouseholdLister, interval time.Duration, logger *slog.Logger, m metrics.Collector) *Scheduler {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Scheduler{
		generator:  gen,
		households: households,
		interval:   interval,
		logger:     logger.With("component", "scheduler"),
		metrics:    m,
	}
}

// Start begins the sweep loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.Sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Sweep ensures instances for every household once. A failing household is
// logged and does not stop the others.
func (s *Scheduler) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	res := SweepResult{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", res.RunID)

	ids, err := s.households.ListIDs(ctx)
	if err != nil {
		logger.Error("list households", "error", err)
		return res
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			logger.Info("sweep interrupted", "processed", res.Households)
			break
		}
		created, err := s.generator.EnsureForFamily(ctx, id)
		res.Households++
		if err != nil {
			res.Failed++
			logger.Error("sweep household", "household_id", id, "error", err)
			continue
		}
		res.Created += created
	}

	elapsed := time.Since(start)
	s.metrics.SweepCompleted(res.Households, elapsed.Seconds())
	logger.Info("sweep complete",
		"households", res.Households,
		"created", res.Created,
		"failed", res.Failed,
		"duration", elapsed,
	)
	return res
}
