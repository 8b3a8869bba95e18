package cache

import "context"

// LimiterGateway throttles expensive calls per user
type LimiterGateway interface {
	// Allow returns an error matching model.ErrRateLimited when userID exhausted its quota
	Allow(ctx context.Context, userID string) error
}
