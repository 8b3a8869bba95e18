package prediction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/gateway/api"
	"bloomwatch/internal/domain/gateway/cache"
	"bloomwatch/internal/domain/gateway/db"
	"bloomwatch/internal/domain/gateway/queue"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/batch"
	"bloomwatch/internal/domain/usecase/climate"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/metrics"
	"bloomwatch/pkg/msg"
)

// RegionResolver is satisfied by region.UseCase
type RegionResolver interface {
	ResolveRegions(ctx context.Context, ids []string) (map[string]entity.Region, error)
}

// target is the point a prediction is made for
type target struct {
	region  *entity.Region
	name    string
	lat     float64
	lon     float64
	stored  []entity.NdviReading
	lastDay string
}

type predictionUseCase struct {
	regions   RegionResolver
	climate   climate.UseCase
	llm       api.LLMGateway
	history   db.PredictionGateway
	jobs      cache.JobGateway
	limiter   cache.LimiterGateway
	sender    queue.Sender
	collector *metrics.Collector
	opts      Options
}

func NewPredictionUseCase(
	regions RegionResolver,
	climateUseCase climate.UseCase,
	llm api.LLMGateway,
	history db.PredictionGateway,
	jobs cache.JobGateway,
	limiter cache.LimiterGateway,
	sender queue.Sender,
	collector *metrics.Collector,
	opts Options,
) UseCase {
	if opts.MaxRegions <= 0 {
		opts.MaxRegions = 12
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RunningTimeout <= 0 {
		opts.RunningTimeout = 15 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &predictionUseCase{
		regions:   regions,
		climate:   climateUseCase,
		llm:       llm,
		history:   history,
		jobs:      jobs,
		limiter:   limiter,
		sender:    sender,
		collector: collector,
		opts:      opts,
	}
}

func (uc *predictionUseCase) Predict(ctx context.Context, user model.AuthUser, request model.PredictionRequest) (*model.PredictionResult, error) {
	t, err := uc.resolveTarget(ctx, request)
	if err != nil {
		return nil, err
	}
	months, err := uc.climate.NormalizeMonths(request.Months)
	if err != nil {
		return nil, err
	}
	if err = uc.limiter.Allow(ctx, user.ID); err != nil {
		return nil, err
	}
	return uc.predict(ctx, user, t, months)
}

func (uc *predictionUseCase) resolveTarget(ctx context.Context, request model.PredictionRequest) (target, error) {
	if id := strings.TrimSpace(request.RegionID); id != "" {
		resolved, err := uc.regions.ResolveRegions(ctx, []string{id})
		if err != nil {
			return target{}, err
		}
		r, ok := resolved[id]
		if !ok {
			return target{}, model.NotFound("%s", msg.GetMessage("region.error.not-found", id))
		}
		return regionTarget(r), nil
	}

	name := strings.TrimSpace(request.Name)
	if name == "" || request.Latitude == nil || request.Longitude == nil {
		return target{}, model.InvalidInput("%s", msg.GetMessage("prediction.error.region-required"))
	}
	if err := uc.climate.ValidateCoordinates(*request.Latitude, *request.Longitude); err != nil {
		return target{}, err
	}
	return target{name: name, lat: *request.Latitude, lon: *request.Longitude}, nil
}

func regionTarget(r entity.Region) target {
	return target{
		region:  &r,
		name:    r.Name,
		lat:     r.Latitude,
		lon:     r.Longitude,
		stored:  r.Ndvi,
		lastDay: r.LastBloomDate,
	}
}

// predict gathers the region data, asks the model and stores the answer in the history
func (uc *predictionUseCase) predict(ctx context.Context, user model.AuthUser, t target, months int) (*model.PredictionResult, error) {
	input, err := uc.promptInput(ctx, t, months)
	if err != nil {
		uc.collector.RecordPrediction("data_error")
		return nil, err
	}

	prompt, err := renderPrompt(input)
	if err != nil {
		return nil, err
	}

	raw, err := uc.llm.GeneratePrediction(ctx, prompt)
	if err != nil {
		uc.collector.RecordPrediction("llm_error")
		return nil, err
	}

	answer, err := parseAnswer(raw)
	if err != nil {
		uc.collector.RecordPrediction("invalid_response")
		return nil, err
	}

	result := &model.PredictionResult{
		ID:                 uuid.NewString(),
		RegionName:         t.name,
		Latitude:           t.lat,
		Longitude:          t.lon,
		PredictedBloomDate: answer.PredictedBloomDate,
		Explanation:        answer.Explanation,
		ClimateFactors:     strings.TrimSpace(answer.ClimateFactors),
		VegetationTrend:    strings.TrimSpace(answer.VegetationTrend),
		Confidence:         normalizeConfidence(answer.Confidence),
		Model:              uc.llm.ModelName(),
		GeneratedAt:        uc.opts.Clock().UTC(),
	}
	if t.region != nil {
		result.RegionID = t.region.ID
	}
	uc.collector.RecordPrediction("success")

	if err = uc.history.Save(ctx, toRecord(user, result)); err != nil {
		log.Warnw("failed to store prediction", "predictionId", result.ID, "userId", user.ID, "error", err)
	}
	return result, nil
}

func (uc *predictionUseCase) promptInput(ctx context.Context, t target, months int) (model.PromptInput, error) {
	var climateSeries *model.ClimateSeries
	var ndviSeries *model.NdviSeries
	var ndviErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		climateSeries, err = uc.climate.GetClimateSeries(gctx, t.lat, t.lon, months)
		return err
	})
	g.Go(func() error {
		ndviSeries, ndviErr = uc.climate.GetNdviSeries(gctx, t.lat, t.lon, 0)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.PromptInput{}, err
	}

	now := uc.opts.Clock().UTC()
	input := model.PromptInput{
		RegionName:    t.name,
		Latitude:      t.lat,
		Longitude:     t.lon,
		LastBloomDate: t.lastDay,
		Today:         now.Format(time.DateOnly),
		Climate:       climateSeries.Points,
	}
	switch {
	case ndviErr == nil:
		input.NdviYear = ndviSeries.Year
		input.Ndvi = ndviSeries.Readings
	case len(t.stored) == 12:
		log.Warnw("using stored ndvi", "region", t.name, "error", ndviErr)
		input.NdviYear = now.Year() - 1
		input.Ndvi = t.stored
	default:
		return model.PromptInput{}, ndviErr
	}
	return input, nil
}

func toRecord(user model.AuthUser, result *model.PredictionResult) entity.PredictionRecord {
	return entity.PredictionRecord{
		ID:                 result.ID,
		UserID:             user.ID,
		RegionID:           sql.NullString{String: result.RegionID, Valid: result.RegionID != ""},
		RegionName:         result.RegionName,
		Latitude:           result.Latitude,
		Longitude:          result.Longitude,
		PredictedBloomDate: result.PredictedBloomDate,
		Explanation:        result.Explanation,
		ClimateFactors:     result.ClimateFactors,
		VegetationTrend:    result.VegetationTrend,
		Confidence:         string(result.Confidence),
		Model:              result.Model,
		CreatedAt:          result.GeneratedAt,
	}
}

func (uc *predictionUseCase) PredictBatch(ctx context.Context, user model.AuthUser, request model.BatchPredictionRequest) ([]model.BatchPredictionItem, error) {
	ids, months, err := uc.validateBatch(request)
	if err != nil {
		return nil, err
	}
	if err = uc.limiter.Allow(ctx, user.ID); err != nil {
		return nil, err
	}
	return uc.runBatch(ctx, user, ids, months)
}

func (uc *predictionUseCase) validateBatch(request model.BatchPredictionRequest) ([]string, int, error) {
	ids, err := batch.Validate(request.RegionIDs, uc.opts.MaxRegions)
	if err != nil {
		return nil, 0, err
	}
	months, err := uc.climate.NormalizeMonths(request.Months)
	if err != nil {
		return nil, 0, err
	}
	return ids, months, nil
}

func (uc *predictionUseCase) runBatch(ctx context.Context, user model.AuthUser, ids []string, months int) ([]model.BatchPredictionItem, error) {
	resolved, err := uc.regions.ResolveRegions(ctx, ids)
	if err != nil {
		return nil, err
	}
	uc.collector.ObserveBatch("prediction", len(ids))

	results := batch.Run(ctx, ids, uc.opts.Concurrency, func(ctx context.Context, id string) (*model.PredictionResult, error) {
		r, ok := resolved[id]
		if !ok {
			return nil, model.NotFound("%s", msg.GetMessage("region.error.not-found", id))
		}
		return uc.predict(ctx, user, regionTarget(r), months)
	})

	items := make([]model.BatchPredictionItem, len(results))
	for i, result := range results {
		items[i] = model.BatchPredictionItem{RegionID: result.ID, Result: result.Value}
		if result.Err != nil {
			log.Warnw("batch prediction item failed", "regionId", result.ID, "error", result.Err)
			items[i].Result = nil
			items[i].Error = model.PublicMessage(result.Err)
		}
	}
	return items, nil
}

func (uc *predictionUseCase) SubmitJob(ctx context.Context, user model.AuthUser, request model.BatchPredictionRequest) (*model.PredictionJob, error) {
	ids, months, err := uc.validateBatch(request)
	if err != nil {
		return nil, err
	}
	if err = uc.limiter.Allow(ctx, user.ID); err != nil {
		return nil, err
	}

	now := uc.opts.Clock().UTC()
	job := model.PredictionJob{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		RegionIDs: ids,
		Months:    months,
		Status:    model.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = uc.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	message := model.PredictionJobMessage{JobID: job.ID, UserID: user.ID, RegionIDs: ids, Months: months}
	if _, err = uc.sender.SendMessage(ctx, uc.opts.QueueName, message, map[string]string{"userId": user.ID}); err != nil {
		job.Status = model.JobFailed
		job.Error = msg.GetMessage("error.upstream", "queue")
		job.UpdatedAt = uc.opts.Clock().UTC()
		if saveErr := uc.jobs.Save(context.WithoutCancel(ctx), job); saveErr != nil {
			log.Warnw("failed to mark job as failed", "jobId", job.ID, "error", saveErr)
		}
		uc.collector.RecordJob(string(model.JobFailed))
		return nil, model.Upstream(err, "%s", job.Error)
	}

	uc.collector.RecordJob(string(model.JobPending))
	log.Info(msg.GetMessage("prediction.job.submitted", job.ID, len(ids)))
	return &job, nil
}

func (uc *predictionUseCase) GetJob(ctx context.Context, user model.AuthUser, id string) (*model.PredictionJob, error) {
	job, err := uc.jobs.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	if job == nil || job.UserID != user.ID {
		return nil, model.NotFound("%s", msg.GetMessage("prediction.error.job-not-found", id))
	}
	return job, nil
}

func (uc *predictionUseCase) ProcessJob(ctx context.Context, message model.PredictionJobMessage) error {
	job, err := uc.jobs.Find(ctx, message.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", message.JobID, err)
	}
	if job == nil {
		log.Warnw("dropping message of expired job", "jobId", message.JobID)
		return nil
	}
	if job.Status == model.JobDone || job.Status == model.JobFailed {
		return nil
	}
	if job.Status == model.JobRunning && uc.opts.Clock().Sub(job.UpdatedAt) < uc.opts.RunningTimeout {
		log.Infow("prediction job is running on another worker", "jobId", job.ID, "since", job.UpdatedAt)
		return ErrJobInProgress
	}

	job.Status = model.JobRunning
	job.UpdatedAt = uc.opts.Clock().UTC()
	if err = uc.jobs.Save(ctx, *job); err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}

	user := model.AuthUser{ID: job.UserID}
	items, err := uc.runBatch(ctx, user, job.RegionIDs, job.Months)
	switch {
	case err != nil:
		job.Status = model.JobFailed
		job.Error = model.PublicMessage(err)
	case allFailed(items):
		job.Status = model.JobFailed
		job.Items = items
		job.Error = items[0].Error
	default:
		job.Status = model.JobDone
		job.Items = items
	}
	job.UpdatedAt = uc.opts.Clock().UTC()

	if err = uc.jobs.Save(context.WithoutCancel(ctx), *job); err != nil {
		return fmt.Errorf("failed to store job %s result: %w", job.ID, err)
	}
	uc.collector.RecordJob(string(job.Status))
	log.Info(msg.GetMessage("prediction.job.finished", job.ID, job.Status))
	return nil
}

func allFailed(items []model.BatchPredictionItem) bool {
	for _, item := range items {
		if item.Error == "" {
			return false
		}
	}
	return len(items) > 0
}

func (uc *predictionUseCase) ListHistory(ctx context.Context, user model.AuthUser, page int, size int) (*model.Page[entity.PredictionRecord], error) {
	var wg sync.WaitGroup
	var records []entity.PredictionRecord
	var totalElements int64
	var recordsErr, countErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		records, recordsErr = uc.history.FindByUser(ctx, user.ID, page, size)
	}()
	go func() {
		defer wg.Done()
		totalElements, countErr = uc.history.CountByUser(ctx, user.ID)
	}()
	wg.Wait()

	if err := errors.Join(recordsErr, countErr); err != nil {
		return nil, fmt.Errorf("failed to load prediction history: %w", err)
	}
	return model.NewPage(records, page, size, totalElements), nil
}

func (uc *predictionUseCase) PurgeHistory(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := uc.opts.Clock().UTC().Add(-retention)
	log.Info(msg.GetMessage("prediction.retention.start", cutoff.Format(time.RFC3339)))

	removed, err := uc.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge prediction history: %w", err)
	}
	log.Info(msg.GetMessage("prediction.retention.end", removed))
	return removed, nil
}
