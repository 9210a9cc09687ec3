package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rooftrack_backend/internal/contacts/reconcile"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/internal/notification"
	"rooftrack_backend/internal/scheduler"
	"rooftrack_backend/platform/config"
	"rooftrack_backend/platform/db"
	"rooftrack_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Notification handlers run here too: reminder deliveries originate from
	// this process, not the API.
	notificationModule := notification.NewModule(cfg, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	store := repository.New(pool)
	sweeper := reconcile.New(store, eventBus, log)

	sweepRunner := scheduler.NewSweepRunner(sweeper, log, cfg.GetSweepInterval())
	go sweepRunner.Run(ctx)
	log.Info("reconciliation sweep runner started", "interval", cfg.GetSweepInterval())

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; running sweep loop only")
		<-ctx.Done()
		return
	}

	worker, err := scheduler.NewWorker(cfg, pool, sweeper, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
