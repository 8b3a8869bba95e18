package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"bloomwatch/internal/domain/gateway/api"
	"bloomwatch/internal/domain/gateway/cache"
	"bloomwatch/internal/domain/gateway/db"
	"bloomwatch/internal/domain/gateway/queue"
	"bloomwatch/internal/domain/usecase/auth"
	"bloomwatch/internal/domain/usecase/climate"
	"bloomwatch/internal/domain/usecase/dashboard"
	"bloomwatch/internal/domain/usecase/health"
	"bloomwatch/internal/domain/usecase/location"
	"bloomwatch/internal/domain/usecase/prediction"
	"bloomwatch/internal/domain/usecase/region"
	infraaws "bloomwatch/internal/infra/aws"
	infracache "bloomwatch/internal/infra/cache"
	infragorm "bloomwatch/internal/infra/database/gorm"
	infrasqlx "bloomwatch/internal/infra/database/sqlx"
	"bloomwatch/internal/infra/seed"
	"bloomwatch/pkg/http"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/metrics"
	"bloomwatch/pkg/redis"
	"bloomwatch/pkg/resource"
	pkgsqs "bloomwatch/pkg/sqs"
)

// application holds the connections and use cases shared by serve and worker
type application struct {
	registry  *prometheus.Registry
	collector *metrics.Collector

	db        *gorm.DB
	historyDB *sqlx.DB
	redis     *redis.Client
	sqsClient *sqs.Client
	sender    *pkgsqs.Sender

	queueHealth *queue.QueueHealthGateway
	queueName   string

	climate    climate.UseCase
	regions    region.UseCase
	dashboard  dashboard.UseCase
	prediction prediction.UseCase
	auth       auth.UseCase
	location   location.UseCase
	health     health.UseCase
}

func newApplication(ctx context.Context) (*application, error) {
	app := &application{
		registry:  prometheus.NewRegistry(),
		queueName: resource.GetStringOrDefault("app.prediction.queue-name", "bloomwatch-prediction-jobs"),
	}
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.collector = metrics.NewCollector("bloomwatch", app.registry)

	if err := app.connect(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.buildUseCases(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (app *application) connect(ctx context.Context) error {
	var err error
	if app.db, err = infragorm.Connect(); err != nil {
		return err
	}
	if app.historyDB, err = infrasqlx.Connect(); err != nil {
		return err
	}
	if app.redis, err = infracache.Connect(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	awsConfig, err := infraaws.LoadConfig(ctx)
	if err != nil {
		return err
	}
	app.sqsClient = infraaws.NewSQSClient(awsConfig)
	app.sender = pkgsqs.NewSender(app.sqsClient)
	app.queueHealth = queue.NewQueueHealthGateway(app.sender, app.queueName)
	return nil
}

func (app *application) buildUseCases(ctx context.Context) error {
	// NASA POWER
	power := api.NewPowerGateway(
		resource.GetStringOrDefault("app.power.base-url", "https://power.larc.nasa.gov"),
		resource.GetStringOrDefault("app.power.community", "AG"),
		clientOptions("power", "app.power.timeout", resource.GetIntOrDefault("app.power.max-retries", 3)),
		app.collector)
	power = api.NewCachedPowerGateway(power,
		infracache.NewResponseCache(app.redis, infracache.ClimateCache),
		infracache.NewResponseCache(app.redis, infracache.NdviCache),
		app.collector)

	app.climate = climate.NewClimateUseCase(power, climate.Options{
		LagDays:       resource.GetIntOrDefault("app.power.daily-lag-days", 5),
		DefaultMonths: resource.GetIntOrDefault("app.climate.default-months", 6),
		MaxMonths:     resource.GetIntOrDefault("app.climate.max-months", 24),
	})

	// Catalogue
	sites := api.NewOverpassGateway(
		resource.GetStringOrDefault("app.overpass.endpoint", "https://overpass-api.de/api/interpreter"),
		resource.GetIntOrDefault("app.overpass.max-parallel", 2),
		resource.GetDurationOrDefault("app.overpass.timeout", 30*time.Second),
		app.collector)
	app.regions = region.NewRegionUseCase(
		db.NewGormRegionGateway(app.db),
		db.NewGormWatchlistGateway(app.db),
		app.climate,
		sites,
		region.Options{
			MaxWatchlist:    resource.GetIntOrDefault("app.watchlist.max-size", 24),
			DefaultRadiusKm: resource.GetFloat64("app.overpass.default-radius-km"),
			MaxRadiusKm:     resource.GetFloat64("app.overpass.max-radius-km"),
		})

	maxRegions := resource.GetIntOrDefault("app.batch.max-regions", 12)
	concurrency := resource.GetIntOrDefault("app.batch.concurrency", 4)
	app.dashboard = dashboard.NewDashboardUseCase(app.regions, app.climate, app.collector, dashboard.Options{
		MaxRegions:  maxRegions,
		Concurrency: concurrency,
	})

	// Predictions
	llm, err := api.NewGenAIGateway(ctx,
		resource.GetString("app.llm.api-key"),
		resource.GetString("app.llm.model"),
		float32(resource.GetFloat64("app.llm.temperature")),
		resource.GetDurationOrDefault("app.llm.timeout", time.Minute),
		app.collector)
	if err != nil {
		return err
	}
	llmLimiter, err := infracache.NewLLMLimiter(app.redis)
	if err != nil {
		return err
	}
	if llmLimiter != nil {
		llm = api.NewLimitedLLMGateway(llm, llmLimiter)
	}
	app.prediction = prediction.NewPredictionUseCase(
		app.regions,
		app.climate,
		llm,
		db.NewSqlxPredictionGateway(app.historyDB),
		cache.NewRedisJobGateway(app.redis, resource.GetDurationOrDefault("app.prediction.job-ttl", 24*time.Hour)),
		cache.NewRedisLimiterGateway(app.redis, "prediction", resource.GetInt("app.prediction.rate-limit.per-minute")),
		app.sender,
		app.collector,
		prediction.Options{
			MaxRegions:     maxRegions,
			Concurrency:    concurrency,
			QueueName:      app.queueName,
			RunningTimeout: resource.GetDurationOrDefault("app.prediction.worker.running-timeout", 15*time.Minute),
		})

	// Identity
	app.auth = auth.NewAuthUseCase(api.NewIdentityGateway(
		resource.GetString("app.identity.base-url"),
		resource.GetString("app.identity.anon-key"),
		clientOptions("identity", "app.identity.timeout", 1),
		app.collector))

	countries, err := seed.Locations()
	if err != nil {
		return err
	}
	app.location = location.NewLocationUseCase(countries)

	app.health = health.NewHealthUseCase(
		db.NewGormHealthDBGateway(app.db),
		cache.NewRedisHealthGateway(app.redis),
		app.queueHealth)
	return nil
}

func clientOptions(name string, timeoutKey string, retries int) http.ClientOptions {
	backoff := http.DefaultBackoff()
	backoff.MaxRetries = retries
	return http.ClientOptions{
		ReadTimeout: resource.GetDurationOrDefault(timeoutKey, 30*time.Second),
		Backoff:     backoff,
		Logger:      &http.ZapLogger{Name: name},
	}
}

func (app *application) Close() {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.historyDB != nil {
		errs = append(errs, app.historyDB.Close())
	}
	if app.db != nil {
		if sqlDB, err := app.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Warnw("failed to close connections", "error", err)
	}
}
