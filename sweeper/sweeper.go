// Package sweeper runs the periodic reconciliation pass that expires lapsed
// sanctions. It lists accounts holding sanctions due before the cutoff and
// re-derives each one through the engine, with bounded parallelism and a
// store-side rate limit. Per-account failures are collected, not fatal, so a
// single bad record cannot wedge the sweep.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/flocksocial/integrity/engine"
)

var (
	// DefaultConcurrency bounds parallel account reconciliations per batch.
	DefaultConcurrency = 10
	// DefaultSweepsPerSecond throttles store traffic from the sweep.
	DefaultSweepsPerSecond = 100
)

// AccountFailure records one account the sweep could not reconcile.
type AccountFailure struct {
	AccountID string `json:"accountId"`
	Err       string `json:"err"`
}

// BatchResult summarizes one reconciliation pass.
type BatchResult struct {
	Processed int              `json:"processed"`
	Cleared   int              `json:"cleared"`
	Failures  []AccountFailure `json:"failures,omitempty"`
}

type Sweeper struct {
	Engine      *engine.Engine
	Logger      *slog.Logger
	Concurrency int
	Limiter     *rate.Limiter
}

func NewSweeper(eng *engine.Engine, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		Engine:      eng,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
		Limiter:     rate.NewLimiter(rate.Limit(DefaultSweepsPerSecond), 1),
	}
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// BatchReconcile runs a single sweep over every account with a sanction due
// before now. The returned error covers only batch-level problems (listing
// failed, context canceled); per-account errors land in Failures.
func (s *Sweeper) BatchReconcile(ctx context.Context) (*BatchResult, error) {
	start := time.Now()
	now := s.Engine.Now()

	ids, err := s.Engine.Accounts.ListExpiringSanctions(ctx, now)
	if err != nil {
		sweepErrorCount.Inc()
		return nil, err
	}

	res := &BatchResult{}
	var lk sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency())
	for _, id := range ids {
		id := id
		eg.Go(func() error {
			if s.Limiter != nil {
				if err := s.Limiter.Wait(ctx); err != nil {
					return err
				}
			}
			rres, err := s.Engine.CleanExpiredSanctions(ctx, id)
			lk.Lock()
			defer lk.Unlock()
			if err != nil {
				s.logger().Error("reconciling account", "err", err, "account", id)
				res.Failures = append(res.Failures, AccountFailure{AccountID: id, Err: err.Error()})
				return nil
			}
			res.Processed++
			if rres != nil && rres.Cleared {
				res.Cleared++
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		sweepErrorCount.Inc()
		return nil, err
	}

	sweepDuration.Observe(time.Since(start).Seconds())
	sweepAccountCount.Add(float64(res.Processed))
	sweepFailureCount.Add(float64(len(res.Failures)))
	s.logger().Info("reconciliation sweep complete",
		"candidates", len(ids),
		"processed", res.Processed,
		"cleared", res.Cleared,
		"failures", len(res.Failures),
		"duration", time.Since(start),
	)
	return res, nil
}

// RunLoop sweeps on a fixed interval until the context is canceled. Batch
// failures are logged and the loop keeps going.
func (s *Sweeper) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.BatchReconcile(ctx); err != nil {
				s.logger().Error("reconciliation sweep failed", "err", err)
			}
		}
	}
}

func (s *Sweeper) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return DefaultConcurrency
}
