package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bloomwatch/internal/application/processor"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
	"bloomwatch/pkg/resource"
	"bloomwatch/pkg/sqs"
)

const workerName = "prediction-jobs"

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume queued batch prediction jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			worker, err := newPredictionWorker(ctx, app)
			if err != nil {
				return err
			}
			worker.Start(ctx)
			return nil
		},
	}
}

// newPredictionWorker creates the queue consumer and reports it in the queue health
func newPredictionWorker(ctx context.Context, app *application) (*sqs.Worker, error) {
	worker, err := sqs.NewWorker(ctx, app.sqsClient, app.queueName,
		processor.NewPredictionProcessor(app.prediction),
		&sqs.WorkerConfig{
			PoolSize:          resource.GetIntOrDefault("app.prediction.worker.pool-size", 2),
			WaitTimeSeconds:   int32(resource.GetIntOrDefault("app.prediction.worker.wait-seconds", 20)),
			VisibilityTimeout: resource.GetDurationOrDefault("app.prediction.worker.visibility-timeout", 5*time.Minute),
		})
	if err != nil {
		return nil, err
	}
	app.queueHealth.RegisterWorker(workerName, worker)
	log.Info(msg.GetMessage("app.worker-start", app.queueName))
	return worker, nil
}
