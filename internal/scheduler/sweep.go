package scheduler

import (
	"context"
	"time"

	"rooftrack_backend/internal/contacts/reconcile"
	"rooftrack_backend/platform/logger"
)

const defaultSweepInterval = time.Hour

// SweepRunner periodically runs the reconciliation sweep across every
// organization. It runs once at startup, then on the configured interval.
type SweepRunner struct {
	sweeper  *reconcile.Service
	log      *logger.Logger
	interval time.Duration
}

func NewSweepRunner(sweeper *reconcile.Service, log *logger.Logger, interval time.Duration) *SweepRunner {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SweepRunner{sweeper: sweeper, log: log, interval: interval}
}

func (r *SweepRunner) Run(ctx context.Context) {
	if r == nil || r.sweeper == nil {
		return
	}

	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *SweepRunner) sweep(ctx context.Context) {
	result, err := r.sweeper.CheckContactsWithoutTasks(ctx, nil)
	if err != nil {
		r.log.Error("reconciliation sweep failed", "error", err)
		return
	}
	r.log.Info("reconciliation sweep finished",
		"processed", result.Processed,
		"repaired", len(result.Repaired),
		"failed", result.Failed,
	)
}
