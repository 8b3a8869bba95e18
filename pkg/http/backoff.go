package http

import (
	"errors"
	"math"
	"net/http"
	"time"
)

// BackoffConfig describes an exponential retry policy.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// RetryOnStatus lists the HTTP statuses that trigger a retry. Transport errors always retry.
	// Only idempotent methods are retried.
	RetryOnStatus []int
}

// DefaultBackoff retries transient failures three times starting at 200ms.
func DefaultBackoff() *BackoffConfig {
	return &BackoffConfig{
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		RetryOnStatus: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

func (b *BackoffConfig) shouldRetry(method string, status int, err error) bool {
	if b == nil || err == nil || !idempotent(method) {
		return false
	}

	if errors.Is(err, ErrDecode) {
		return false
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return true
	}
	for _, s := range b.RetryOnStatus {
		if s == status {
			return true
		}
	}
	return false
}

// idempotent methods can be replayed after a lost response without repeating side effects
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func (b *BackoffConfig) delay(attempt int) time.Duration {
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	d := time.Duration(float64(b.InitialInterval) * math.Pow(multiplier, float64(attempt)))
	if b.MaxInterval > 0 && d > b.MaxInterval {
		return b.MaxInterval
	}
	return d
}
