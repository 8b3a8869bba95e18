package api

import (
	"context"
	"errors"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
	"bloomwatch/pkg/redis"
)

// ConcurrencyLimiter is the part of redis.RateLimiter used to bound model calls across instances
type ConcurrencyLimiter interface {
	WithTransaction(ctx context.Context, fn func() error) error
}

var _ ConcurrencyLimiter = (*redis.RateLimiter)(nil)

type limitedLLMGateway struct {
	next    LLMGateway
	limiter ConcurrencyLimiter
}

// NewLimitedLLMGateway runs every model call inside a limiter slot.
// A full limiter maps to model.ErrRateLimited, an unreachable one lets the call through.
func NewLimitedLLMGateway(next LLMGateway, limiter ConcurrencyLimiter) LLMGateway {
	if limiter == nil {
		return next
	}
	return &limitedLLMGateway{next: next, limiter: limiter}
}

func (g *limitedLLMGateway) ModelName() string {
	return g.next.ModelName()
}

func (g *limitedLLMGateway) GeneratePrediction(ctx context.Context, prompt string) (string, error) {
	var (
		answer  string
		callErr error
		called  bool
	)
	err := g.limiter.WithTransaction(ctx, func() error {
		called = true
		answer, callErr = g.next.GeneratePrediction(ctx, prompt)
		return callErr
	})
	if called {
		return answer, callErr
	}

	if errors.Is(err, redis.ErrRateLimited) {
		return "", model.RateLimited(err, "%s", msg.GetMessage("prediction.error.model-busy"))
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	log.Warnw("LLM limiter unavailable, calling the model without a slot", "error", err)
	return g.next.GeneratePrediction(ctx, prompt)
}
