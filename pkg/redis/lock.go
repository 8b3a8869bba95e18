package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"bloomwatch/pkg/log"
)

// ErrLockNotAcquired is returned when another owner holds the lock
var ErrLockNotAcquired = errors.New("lock not acquired")

// ErrLockNotHeld is returned when releasing or refreshing a lock owned by someone else
var ErrLockNotHeld = errors.New("lock was not held by this client")

const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

const refreshScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// LockOptions represents options for distributed locking
type LockOptions struct {
	TTL        time.Duration
	RetryDelay time.Duration
	// MaxRetries is the number of extra attempts after the first one, 0 means try once
	MaxRetries int
	// RefreshInterval is used by AutoRefresh
	RefreshInterval time.Duration
	LockNamespace   string
}

// NewLockOptions creates a new lock options with default values
func NewLockOptions() *LockOptions {
	return &LockOptions{
		TTL:             30 * time.Second,
		RetryDelay:      100 * time.Millisecond,
		MaxRetries:      10,
		RefreshInterval: 10 * time.Second,
	}
}

func (lo *LockOptions) WithTTL(ttl time.Duration) *LockOptions {
	lo.TTL = ttl
	return lo
}

func (lo *LockOptions) WithMaxRetries(maxRetries int) *LockOptions {
	lo.MaxRetries = maxRetries
	return lo
}

func (lo *LockOptions) WithRefreshInterval(interval time.Duration) *LockOptions {
	lo.RefreshInterval = interval
	return lo
}

func (lo *LockOptions) WithLockNamespace(namespace string) *LockOptions {
	lo.LockNamespace = namespace
	return lo
}

// Lock represents a distributed lock
type Lock struct {
	client *Client
	key    string
	value  string
	opts   *LockOptions
}

// NewLock creates a new distributed lock
func NewLock(client *Client, key string, opts *LockOptions) *Lock {
	if opts == nil {
		opts = NewLockOptions()
	}
	return &Lock{
		client: client,
		key:    key,
		value:  uuid.NewString(),
		opts:   opts,
	}
}

func (l *Lock) fullKey() string {
	if l.opts.LockNamespace != "" {
		return l.opts.LockNamespace + "::" + l.key
	}
	return l.key
}

// Lock attempts to acquire the lock, retrying up to MaxRetries times
func (l *Lock) Lock(ctx context.Context) error {
	key := l.fullKey()
	for attempt := 0; ; attempt++ {
		acquired, err := l.client.GetClient().SetNX(ctx, key, l.value, l.opts.TTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if acquired {
			locks.set(key, true)
			return nil
		}
		if attempt >= l.opts.MaxRetries {
			return fmt.Errorf("%w: %s after %d attempts", ErrLockNotAcquired, key, attempt+1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.RetryDelay):
		}
	}
}

// Unlock releases the lock if this instance still owns it
func (l *Lock) Unlock(ctx context.Context) error {
	key := l.fullKey()
	result, err := l.client.GetClient().Eval(ctx, unlockScript, []string{key}, l.value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	locks.set(key, false)
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Refresh extends the lock's TTL
func (l *Lock) Refresh(ctx context.Context) error {
	result, err := l.client.GetClient().Eval(ctx, refreshScript, []string{l.fullKey()}, l.value, l.opts.TTL.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to refresh lock: %w", err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// AutoRefresh refreshes the lock every RefreshInterval until ctx is done.
// The returned channel receives the error that stopped the loop.
func (l *Lock) AutoRefresh(ctx context.Context) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(l.opts.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			case <-ticker.C:
				if err := l.Refresh(ctx); err != nil {
					errChan <- err
					return
				}
			}
		}
	}()

	return errChan
}

// LockWithFunc executes fn while holding the lock, refreshing it for long runs
func LockWithFunc(ctx context.Context, client *Client, key string, opts *LockOptions, fn func(ctx context.Context) error) error {
	lock := NewLock(client, key, opts)
	if err := lock.Lock(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if lock.opts.RefreshInterval > 0 {
		lock.AutoRefresh(runCtx)
	}

	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warnw("failed to release lock", "key", lock.fullKey(), "error", err)
		}
	}()

	return fn(runCtx)
}

type lockRegistry struct {
	mu    sync.RWMutex
	state map[string]bool
}

var locks = &lockRegistry{state: make(map[string]bool)}

func (r *lockRegistry) set(key string, held bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[key] = held
}

// GetLockStatus reports, per lock key used by this process, whether it is currently held here
func GetLockStatus() map[string]bool {
	locks.mu.RLock()
	defer locks.mu.RUnlock()

	status := make(map[string]bool, len(locks.state))
	for k, v := range locks.state {
		status[k] = v
	}
	return status
}
