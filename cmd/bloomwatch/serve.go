package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "bloomwatch/docs"
	"bloomwatch/internal/application/controller"
	"bloomwatch/internal/application/middleware"
	"bloomwatch/internal/application/schedule"
	"bloomwatch/internal/infra/seed"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
	"bloomwatch/pkg/resource"
)

func newServeCommand() *cobra.Command {
	var withWorker bool
	var withSchedules bool
	var seedRegions bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, withWorker, withSchedules, seedRegions)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "also consume the prediction job queue in this process")
	cmd.Flags().BoolVar(&withSchedules, "with-schedules", true, "run the climate cache warmer and the history retention jobs")
	cmd.Flags().BoolVar(&seedRegions, "seed", true, "insert missing seed regions before serving")
	return cmd
}

func serve(ctx context.Context, withWorker bool, withSchedules bool, seedRegions bool) error {
	log.Info(msg.GetMessage("app.start"))

	authConfig := middleware.AuthConfig{
		Secret:   []byte(resource.GetString("app.identity.jwt-secret")),
		Audience: resource.GetStringOrDefault("app.identity.jwt-audience", "authenticated"),
	}
	if err := authConfig.Validate(); err != nil {
		return fmt.Errorf("app.identity.jwt-secret (IDENTITY_JWT_SECRET): %w", err)
	}

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if seedRegions {
		regions, err := seed.Regions()
		if err != nil {
			return err
		}
		if _, err = app.regions.SeedRegions(ctx, regions); err != nil {
			return err
		}
	}

	// Init infra
	e := newEcho(app, authConfig)

	// Init Schedule
	if withSchedules {
		if err = startSchedules(ctx, app); err != nil {
			return err
		}
	}
	if withWorker {
		worker, err := newPredictionWorker(ctx, app)
		if err != nil {
			return err
		}
		go worker.Start(ctx)
	}

	// Start Routes
	port := resource.GetStringOrDefault("app.server.port", "8080")
	errChan := make(chan error, 1)
	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	log.Info(msg.GetMessage("app.started", port))

	select {
	case err = <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Info(msg.GetMessage("app.stopping"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), resource.GetDurationOrDefault("app.server.shutdown-timeout", 15*time.Second))
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(app *application, authConfig middleware.AuthConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: strings.Split(resource.GetStringOrDefault("app.server.cors-origins", "*"), ","),
	}))
	middleware.SetupRequestLogger(e)
	e.Use(middleware.RecordMetrics(app.collector))

	api := e.Group(resource.GetStringOrDefault("app.server.context-path", "/bloomwatch"))
	api.GET("/swagger/*", echoSwagger.WrapHandler)
	api.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry})))

	requireAuth := middleware.RequireAuth(authConfig)

	// Init Routes
	controller.NewHealthController(api, app.health).InitHealthRoutes()
	controller.NewAuthController(api, app.auth, requireAuth).InitAuthRoutes()
	controller.NewRegionController(api, app.regions, app.climate, requireAuth).InitRegionRoutes()
	controller.NewClimateController(api, app.climate).InitClimateRoutes()
	controller.NewDashboardController(api, app.dashboard).InitDashboardRoutes()
	controller.NewWatchlistController(api, app.regions, requireAuth).InitWatchlistRoutes()
	controller.NewPredictionController(api, app.prediction, requireAuth).InitPredictionRoutes()
	controller.NewLocationController(api, app.location).InitLocationRoutes()
	return e
}

func startSchedules(ctx context.Context, app *application) error {
	warmer := schedule.NewClimateScheduler(app.regions, app.redis, schedule.ClimateSchedulerConfig{
		CronExpression:  resource.GetStringOrDefault("app.climate.warm.cron", "0 */6 * * *"),
		LockTTL:         resource.GetDurationOrDefault("app.climate.warm.lock-ttl", 10*time.Minute),
		RefreshInterval: resource.GetDurationOrDefault("app.climate.warm.refresh-interval", time.Minute),
		BatchSize:       resource.GetIntOrDefault("app.climate.warm.batch-size", 50),
	})
	if err := warmer.InitClimateScheduleTasks(ctx); err != nil {
		return err
	}

	retentionDays := resource.GetIntOrDefault("app.prediction.retention.days", 180)
	retention, err := schedule.NewRetentionScheduler(app.prediction, app.redis,
		resource.GetStringOrDefault("app.prediction.retention.cron", "30 3 * * *"),
		time.Duration(retentionDays)*24*time.Hour)
	if err != nil {
		return err
	}
	return retention.Start(ctx)
}
