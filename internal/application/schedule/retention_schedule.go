package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"bloomwatch/internal/domain/usecase/prediction"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/redis"
)

const retentionLockKey = "prediction_history_retention"

// RetentionScheduler removes stored predictions older than the retention window
type RetentionScheduler struct {
	scheduler   gocron.Scheduler
	useCase     prediction.UseCase
	redisClient *redis.Client
	cronExpr    string
	retention   time.Duration
}

func NewRetentionScheduler(useCase prediction.UseCase, redisClient *redis.Client, cronExpr string, retention time.Duration) (*RetentionScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create retention scheduler: %w", err)
	}
	return &RetentionScheduler{
		scheduler:   scheduler,
		useCase:     useCase,
		redisClient: redisClient,
		cronExpr:    cronExpr,
		retention:   retention,
	}, nil
}

// Start schedules the cleanup job and shuts the scheduler down when ctx is done
func (s *RetentionScheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cronExpr, false),
		gocron.NewTask(s.Purge, ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("prediction-history-retention"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule retention job: %w", err)
	}

	s.scheduler.Start()
	log.Infof("Prediction retention scheduler started with cron expression: %s", s.cronExpr)

	go func() {
		<-ctx.Done()
		if err := s.scheduler.Shutdown(); err != nil {
			log.Warnw("retention scheduler shutdown failed", "error", err)
		}
	}()
	return nil
}

// Purge runs one cleanup under a redis lock
func (s *RetentionScheduler) Purge(ctx context.Context) {
	opts := redis.NewLockOptions().
		WithTTL(5 * time.Minute).
		WithMaxRetries(0).
		WithLockNamespace("bloomwatch")

	err := redis.LockWithFunc(ctx, s.redisClient, retentionLockKey, opts, func(ctx context.Context) error {
		_, err := s.useCase.PurgeHistory(ctx, s.retention)
		return err
	})
	switch {
	case errors.Is(err, redis.ErrLockNotAcquired):
		log.Debugw("retention skipped, lock held elsewhere")
	case err != nil:
		log.Errorw("prediction retention failed", "error", err)
	}
}
