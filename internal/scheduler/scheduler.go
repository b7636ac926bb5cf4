// Package scheduler gates outbound upstream calls behind a bounded, FIFO-ordered concurrency limit.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultConcurrency is the number of upstream calls allowed in flight at once.
const DefaultConcurrency = 45

// Config for a Scheduler.
type Config struct {
	Concurrency       int
	RequestsPerSecond float64 // 0 disables the token bucket
}

// Scheduler runs units of work with at most Config.Concurrency in flight.
// Waiters are admitted in submission order.
type Scheduler struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	limit   int
	active  atomic.Int64
	log     *slog.Logger
}

// New creates a scheduler.
func New(cfg Config, log *slog.Logger) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		sem:   semaphore.NewWeighted(int64(cfg.Concurrency)),
		limit: cfg.Concurrency,
		log:   log,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return s
}

// Limit returns the concurrency ceiling.
func (s *Scheduler) Limit() int {
	return s.limit
}

// Active returns the number of units currently executing.
func (s *Scheduler) Active() int {
	return int(s.active.Load())
}

// Do waits for a free slot and runs fn. The error from fn is returned to this caller only.
// The scheduler imposes no deadline of its own; ctx bounds only this caller's wait.
func (s *Scheduler) Do(ctx context.Context, fn func(context.Context) error) error {
	start := time.Now()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		tasksTotal.WithLabelValues("abandoned").Inc()
		return fmt.Errorf("scheduler wait: %w", err)
	}
	defer s.sem.Release(1)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			tasksTotal.WithLabelValues("abandoned").Inc()
			return fmt.Errorf("scheduler rate wait: %w", err)
		}
	}
	waitSeconds.Observe(time.Since(start).Seconds())

	s.active.Add(1)
	inFlight.Inc()
	defer func() {
		s.active.Add(-1)
		inFlight.Dec()
	}()

	err := run(ctx, fn)
	if err != nil {
		tasksTotal.WithLabelValues("error").Inc()
		s.log.Debug("scheduled task failed", "error", err)
		return err
	}
	tasksTotal.WithLabelValues("ok").Inc()
	return nil
}

// Submit is Do for work that produces a value.
func Submit[T any](ctx context.Context, s *Scheduler, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := s.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// run converts a panic in fn into an error so the slot is always released.
func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduled task panicked: %v", r)
		}
	}()
	return fn(ctx)
}
