package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"civicdesk/pkg/config"
	"civicdesk/pkg/logger"
	"civicdesk/pkg/store"
)

// Start starts the expired-notification sweeper if enabled. Returns a
// cancel func that stops the scheduler.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "batch_size", cfg.BatchSize, "dry_run", cfg.DryRun)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cfg, cronExpr)
	return cancel, nil
}

// runScheduler computes the next cron tick with gronx and sleeps until
// then, running one sweep per tick.
func runScheduler(ctx context.Context, cfg config.RetentionConfig, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(ctx, cfg); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce sweeps expired notifications in batches until none remain or
// ctx is canceled. Exported so admin triggers and tests can run a sweep
// on demand.
func RunOnce(ctx context.Context, cfg config.RetentionConfig) error {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	sleep := time.Duration(cfg.BatchSleepMs) * time.Millisecond
	total := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := store.PurgeExpiredNotifications(time.Now().UTC(), batch, cfg.DryRun)
		if err != nil {
			return err
		}
		total += n
		// dry runs report the backlog once; deleting loops until drained
		if cfg.DryRun || n < batch {
			break
		}
		if sleep > 0 {
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	logger.Info("retention_run_complete", "purged", total, "dry_run", cfg.DryRun)
	return nil
}
