// Package expiry runs the periodic expiry sweep.
package expiry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heartmarshall/clinic-consent/internal/service/consent"
)

type sweepService interface {
	SweepExpired(ctx context.Context) (consent.SweepResult, error)
}

type locker interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

type sweepMetrics interface {
	Sweep(outcome string)
}

// Sweep outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Sweeper calls SweepExpired on a fixed interval. With a locker set, a tick
// only sweeps if it takes the lock; otherwise another replica is sweeping.
type Sweeper struct {
	svc      sweepService
	lock     locker
	metrics  sweepMetrics
	interval time.Duration
	log      *slog.Logger
}

// NewSweeper creates a Sweeper. lock and metrics may be nil.
func NewSweeper(log *slog.Logger, svc sweepService, lock locker, metrics sweepMetrics, interval time.Duration) *Sweeper {
	return &Sweeper{
		svc:      svc,
		lock:     lock,
		metrics:  metrics,
		interval: interval,
		log:      log.With("worker", "expiry"),
	}
}

// WithLock guards every tick with l.
func (s *Sweeper) WithLock(l locker) *Sweeper {
	s.lock = l
	return s
}

// Run sweeps once immediately, then every interval, until ctx is done. It
// only returns ctx's error; failed ticks are logged and retried on the next.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.InfoContext(ctx, "expiry sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			s.log.Info("expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one guarded sweep and returns its outcome.
func (s *Sweeper) Tick(ctx context.Context) string {
	outcome := s.tick(ctx)
	if s.metrics != nil {
		s.metrics.Sweep(outcome)
	}
	return outcome
}

func (s *Sweeper) tick(ctx context.Context) string {
	if ctx.Err() != nil {
		return OutcomeSkipped
	}

	if s.lock != nil {
		release, ok, err := s.lock.TryAcquire(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "sweep lock unavailable, skipping tick", slog.String("error", err.Error()))
			return OutcomeSkipped
		}
		if !ok {
			s.log.DebugContext(ctx, "sweep lock held elsewhere, skipping tick")
			return OutcomeSkipped
		}
		defer func() {
			// Release on a fresh context so shutdown still frees the lock.
			relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := release(relCtx); err != nil {
				s.log.Warn("release sweep lock", slog.String("error", err.Error()))
			}
		}()
	}

	res, err := s.svc.SweepExpired(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return OutcomeSkipped
		}
		s.log.ErrorContext(ctx, "expiry sweep failed", slog.String("error", err.Error()))
		return OutcomeError
	}
	s.log.DebugContext(ctx, "expiry sweep done", slog.Int("expired", res.Expired))
	return OutcomeOK
}
