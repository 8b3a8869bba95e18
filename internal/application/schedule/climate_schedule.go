package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"bloomwatch/internal/domain/usecase/region"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/redis"
)

const climateWarmLockKey = "climate_cache_warmer"

// ClimateSchedulerConfig holds configuration for the climate cache warmer
type ClimateSchedulerConfig struct {
	CronExpression  string
	LockTTL         time.Duration
	RefreshInterval time.Duration
	BatchSize       int
}

// ClimateScheduler refills the NASA POWER response caches of every stored region.
// Each run holds a redis lock so only one instance warms at a time.
type ClimateScheduler struct {
	cron        *cron.Cron
	useCase     region.UseCase
	redisClient *redis.Client
	config      ClimateSchedulerConfig
}

func NewClimateScheduler(useCase region.UseCase, redisClient *redis.Client, config ClimateSchedulerConfig) *ClimateScheduler {
	if config.LockTTL <= 0 {
		config.LockTTL = 10 * time.Minute
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	return &ClimateScheduler{
		cron:        cron.New(),
		useCase:     useCase,
		redisClient: redisClient,
		config:      config,
	}
}

// InitClimateScheduleTasks registers the warmer and starts the cron. The cron stops when ctx is done.
func (s *ClimateScheduler) InitClimateScheduleTasks(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.config.CronExpression, func() { s.ExecuteScheduledTask(ctx) })
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Infof("Climate cache warmer started with cron expression: %s", s.config.CronExpression)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// ExecuteScheduledTask warms the caches unless another instance holds the lock
func (s *ClimateScheduler) ExecuteScheduledTask(ctx context.Context) {
	requestID := uuid.NewString()
	opts := redis.NewLockOptions().
		WithTTL(s.config.LockTTL).
		WithRefreshInterval(s.config.RefreshInterval).
		WithMaxRetries(0).
		WithLockNamespace("bloomwatch")

	err := redis.LockWithFunc(ctx, s.redisClient, climateWarmLockKey, opts, func(ctx context.Context) error {
		_, _, err := s.useCase.WarmClimateCache(ctx, s.config.BatchSize)
		return err
	})

	switch {
	case errors.Is(err, redis.ErrLockNotAcquired):
		log.Infow("climate cache warm skipped, lock held elsewhere", "request_id", requestID)
	case err != nil:
		log.Errorw("climate cache warm failed", "request_id", requestID, "error", err)
	default:
		log.Infow("climate cache warm completed", "request_id", requestID)
	}
}

// Stop waits for a running warm to finish
func (s *ClimateScheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
