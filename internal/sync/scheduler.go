package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// RunSchedule re-runs CheckAndSync for the cache's active user on the
// given cron schedule until ctx is canceled. An empty cron disables the
// scheduler and returns nil immediately.
func (o *Orchestrator) RunSchedule(ctx context.Context, cron string) error {
	if cron == "" {
		o.logger.Info("sync: schedule disabled")
		return nil
	}
	if !gronx.IsValid(cron) {
		return fmt.Errorf("sync: invalid cron expression %q", cron)
	}
	o.logger.Info("sync: schedule started", slog.String("cron", cron))

	for {
		next, err := gronx.NextTickAfter(cron, o.now(), false)
		if err != nil {
			o.logger.Warn("sync: next tick failed", slog.String("error", err.Error()))
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			return ctx.Err()
		}

		user := o.cache.ActiveUser()
		if user == "" {
			continue
		}
		if _, err := o.CheckAndSync(ctx, user); err != nil {
			o.logger.Warn("sync: scheduled check failed",
				slog.String("user", user),
				slog.String("error", err.Error()))
		}
	}
}
