package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bloomwatch/pkg/log"
)

// ErrRateLimited is returned by Acquire when a configured limit is reached
var ErrRateLimited = errors.New("rate limit reached")

type rateLimiterRegistry struct {
	limiters map[string]*RateLimiter
	mu       sync.RWMutex
}

var limiters = &rateLimiterRegistry{limiters: make(map[string]*RateLimiter)}

func (r *rateLimiterRegistry) register(limiter *RateLimiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[limiter.opts.CacheName] = limiter
}

// RateLimiterOptions represents options for rate limiting
type RateLimiterOptions struct {
	// MaxActiveTransactions is the maximum number of concurrent active transactions (optional)
	MaxActiveTransactions int
	// MaxTransactionsPerMinute is the maximum number of transactions per minute (optional)
	MaxTransactionsPerMinute int
	// WaitOnLimit makes Acquire wait up to WaitTimeout instead of failing immediately
	WaitOnLimit bool
	WaitTimeout time.Duration
	RetryDelay  time.Duration
	Namespace   string
	// CacheName registers the limiter for health metrics, leave empty for per-user limiters
	CacheName string
	// TransactionTTL bounds how long an unreleased active slot is counted
	TransactionTTL time.Duration
}

// NewRateLimiterOptions creates a new rate limiter options with default values
func NewRateLimiterOptions() *RateLimiterOptions {
	return &RateLimiterOptions{
		WaitTimeout:    30 * time.Second,
		RetryDelay:     100 * time.Millisecond,
		TransactionTTL: 5 * time.Minute,
	}
}

func (rlo *RateLimiterOptions) WithMaxActiveTransactions(max int) *RateLimiterOptions {
	rlo.MaxActiveTransactions = max
	return rlo
}

func (rlo *RateLimiterOptions) WithMaxTransactionsPerMinute(max int) *RateLimiterOptions {
	rlo.MaxTransactionsPerMinute = max
	return rlo
}

func (rlo *RateLimiterOptions) WithWaitOnLimit(wait bool, timeout time.Duration) *RateLimiterOptions {
	rlo.WaitOnLimit = wait
	rlo.WaitTimeout = timeout
	return rlo
}

func (rlo *RateLimiterOptions) WithNamespace(namespace string) *RateLimiterOptions {
	rlo.Namespace = namespace
	return rlo
}

func (rlo *RateLimiterOptions) WithCacheName(cacheName string) *RateLimiterOptions {
	rlo.CacheName = cacheName
	return rlo
}

// Validate validates the rate limiter options
func (rlo *RateLimiterOptions) Validate() error {
	if rlo.MaxActiveTransactions < 0 || rlo.MaxTransactionsPerMinute < 0 {
		return fmt.Errorf("limits must be non-negative")
	}
	if rlo.MaxActiveTransactions == 0 && rlo.MaxTransactionsPerMinute == 0 {
		return fmt.Errorf("at least one limit must be configured (MaxActiveTransactions or MaxTransactionsPerMinute)")
	}
	if rlo.WaitOnLimit && rlo.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive when waiting on limit")
	}
	return nil
}

// RateLimiter is a Redis backed limiter combining a concurrency counter and a sliding minute window
type RateLimiter struct {
	client        *Client
	key           string
	opts          *RateLimiterOptions
	activeKeyName string
	tpmKeyName    string
}

// NewRateLimiter creates a new distributed rate limiter
func NewRateLimiter(client *Client, key string, opts *RateLimiterOptions) (*RateLimiter, error) {
	if opts == nil {
		opts = NewRateLimiterOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	limiter := &RateLimiter{
		client: client,
		key:    key,
		opts:   opts,
	}
	limiter.activeKeyName = limiter.buildKey("active")
	limiter.tpmKeyName = limiter.buildKey("tpm")

	if opts.CacheName != "" {
		limiters.register(limiter)
	}
	return limiter, nil
}

func (rl *RateLimiter) buildKey(suffix string) string {
	if rl.opts.Namespace != "" {
		return rl.opts.Namespace + "::" + rl.key + "::" + suffix
	}
	return rl.key + "::" + suffix
}

// Acquire takes a slot and returns its transaction id, or an error wrapping ErrRateLimited
func (rl *RateLimiter) Acquire(ctx context.Context) (string, error) {
	if !rl.opts.WaitOnLimit {
		return rl.acquireImmediate(ctx)
	}

	deadline := time.Now().Add(rl.opts.WaitTimeout)
	for {
		transactionID, err := rl.acquireImmediate(ctx)
		if err == nil || !errors.Is(err, ErrRateLimited) || time.Now().After(deadline) {
			return transactionID, err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(rl.opts.RetryDelay):
		}
	}
}

// Result: 1 = success, 0 = active limit, -2 = TPM limit
const acquireScript = `
	local active_key = KEYS[1]
	local tpm_key = KEYS[2]

	local max_active = tonumber(ARGV[1])
	local max_tpm = tonumber(ARGV[2])
	local transaction_id = ARGV[3]
	local now_nanos = tonumber(ARGV[4])
	local transaction_ttl = tonumber(ARGV[5])

	if max_active > 0 then
		local active_count = tonumber(redis.call("GET", active_key)) or 0
		if active_count >= max_active then
			return 0
		end
	end

	if max_tpm > 0 then
		local tpm_cutoff = now_nanos - 60000000000
		redis.call("ZREMRANGEBYSCORE", tpm_key, "-inf", tpm_cutoff)
		if redis.call("ZCARD", tpm_key) >= max_tpm then
			return -2
		end
	end

	if max_active > 0 then
		redis.call("INCR", active_key)
		redis.call("EXPIRE", active_key, transaction_ttl * 2)
	end
	if max_tpm > 0 then
		redis.call("ZADD", tpm_key, now_nanos, transaction_id)
		redis.call("EXPIRE", tpm_key, 60)
	end

	return 1
`

func (rl *RateLimiter) acquireImmediate(ctx context.Context) (string, error) {
	now := time.Now()
	transactionID := strconv.FormatInt(now.UnixNano(), 10)

	resultCode, err := rl.client.GetClient().Eval(ctx, acquireScript,
		[]string{rl.activeKeyName, rl.tpmKeyName},
		rl.opts.MaxActiveTransactions,
		rl.opts.MaxTransactionsPerMinute,
		transactionID,
		now.UnixNano(),
		int(rl.opts.TransactionTTL.Seconds()),
	).Int64()
	if err != nil {
		return "", fmt.Errorf("failed to acquire rate limiter: %w", err)
	}

	switch resultCode {
	case 1:
		return transactionID, nil
	case 0:
		return "", fmt.Errorf("%w: %d active transactions", ErrRateLimited, rl.opts.MaxActiveTransactions)
	case -2:
		return "", fmt.Errorf("%w: %d per minute", ErrRateLimited, rl.opts.MaxTransactionsPerMinute)
	default:
		return "", fmt.Errorf("unknown rate limiter result: %d", resultCode)
	}
}

// Release frees the active slot taken by Acquire, window counters are left to expire
func (rl *RateLimiter) Release(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if rl.opts.MaxActiveTransactions == 0 {
		return nil
	}

	count, err := rl.client.Decr(ctx, rl.activeKeyName)
	if err != nil {
		return fmt.Errorf("failed to release transaction: %w", err)
	}
	if count < 0 {
		_ = rl.client.Set(ctx, rl.activeKeyName, 0, rl.opts.TransactionTTL*2)
	}
	return nil
}

// WithTransaction executes fn inside an acquired slot
func (rl *RateLimiter) WithTransaction(ctx context.Context, fn func() error) error {
	transactionID, err := rl.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := rl.Release(context.WithoutCancel(ctx), transactionID); err != nil {
			log.Warnw("failed to release rate limiter slot", "key", rl.key, "error", err)
		}
	}()
	return fn()
}

// GetMetrics returns current counters of the limiter
func (rl *RateLimiter) GetMetrics(ctx context.Context) (map[string]string, error) {
	metrics := make(map[string]string)

	if rl.opts.MaxActiveTransactions > 0 {
		activeCount, err := rl.client.GetInt(ctx, rl.activeKeyName)
		if err != nil {
			return nil, err
		}
		metrics["active_transactions"] = strconv.FormatInt(activeCount, 10)
		metrics["max_active_transactions"] = strconv.Itoa(rl.opts.MaxActiveTransactions)
	}

	if rl.opts.MaxTransactionsPerMinute > 0 {
		cutoff := strconv.FormatInt(time.Now().Add(-time.Minute).UnixNano(), 10)
		count, err := rl.client.GetClient().ZCount(ctx, rl.tpmKeyName, cutoff, "+inf").Result()
		if err != nil {
			return nil, err
		}
		metrics["transactions_per_minute"] = strconv.FormatInt(count, 10)
		metrics["max_transactions_per_minute"] = strconv.Itoa(rl.opts.MaxTransactionsPerMinute)
	}

	return metrics, nil
}

// GetRateLimiterMetrics returns the metrics of all named rate limiters
func GetRateLimiterMetrics(ctx context.Context) map[string]map[string]string {
	limiters.mu.RLock()
	defer limiters.mu.RUnlock()

	result := make(map[string]map[string]string)
	for name, limiter := range limiters.limiters {
		if m, err := limiter.GetMetrics(ctx); err == nil {
			result[name] = m
		}
	}
	return result
}
