package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSettlementSweeper runs SettlePending every interval until the returned
// scheduler is shut down. The first run happens immediately.
func StartSettlementSweeper(ctx context.Context, settlements SettlementService, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()

			settled, err := settlements.SettlePending(runCtx)
			if err != nil {
				logger.Error("Sweeper: run failed", slog.Any("error", err))
				return
			}
			if settled > 0 {
				logger.Info("Sweeper: settled pending games", slog.Int("count", settled))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule settlement sweeper: %w", err)
	}

	sched.Start()
	logger.Info("Settlement sweeper started", slog.Duration("interval", interval))
	return sched, nil
}
