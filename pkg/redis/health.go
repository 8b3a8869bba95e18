package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type HealthStatus string

const (
	StatusUp      HealthStatus = "UP"
	StatusDown    HealthStatus = "DOWN"
	StatusUnknown HealthStatus = "UNKNOWN"
)

// RedisHealthCheck represents the health check response for Redis
type RedisHealthCheck struct {
	Status       HealthStatus                 `json:"status"`
	Details      map[string]string            `json:"details"`
	LockStatus   map[string]bool              `json:"lock_status,omitempty"`
	RateLimiters map[string]map[string]string `json:"rate_limiters,omitempty"`
}

// HealthChecker provides Redis health checking functionality
type HealthChecker struct {
	client    *Client
	timeout   time.Duration
	mu        sync.Mutex
	lastCheck time.Time
	lastError string
}

// NewHealthChecker creates a new Redis health checker
func NewHealthChecker(client *Client) *HealthChecker {
	return &HealthChecker{
		client:  client,
		timeout: 3 * time.Second,
	}
}

// HealthCheck pings Redis and runs a set/get/del round trip
func (h *HealthChecker) HealthCheck(ctx context.Context) RedisHealthCheck {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	pingOK := h.testPing(ctx)
	opsOK := pingOK && h.testBasicOperations(ctx)

	status := StatusDown
	if pingOK && opsOK {
		status = StatusUp
		h.lastError = ""
	}
	h.lastCheck = time.Now()

	cfg := h.client.GetConfig()
	details := map[string]string{
		"host":                  cfg.Host,
		"port":                  strconv.Itoa(cfg.Port),
		"database":              strconv.Itoa(cfg.Database),
		"ping_successful":       strconv.FormatBool(pingOK),
		"operations_successful": strconv.FormatBool(opsOK),
		"last_check":            h.lastCheck.Format(time.RFC3339),
	}
	if h.lastError != "" {
		details["last_error"] = h.lastError
	}

	check := RedisHealthCheck{
		Status:     status,
		Details:    details,
		LockStatus: GetLockStatus(),
	}
	if status == StatusUp {
		check.RateLimiters = GetRateLimiterMetrics(ctx)
	}
	return check
}

func (h *HealthChecker) testPing(ctx context.Context) bool {
	if err := h.client.Ping(ctx); err != nil {
		h.lastError = fmt.Sprintf("ping failed: %v", err)
		return false
	}
	return true
}

func (h *HealthChecker) testBasicOperations(ctx context.Context) bool {
	testKey := "bloomwatch::health_check"
	testValue := strconv.FormatInt(time.Now().UnixNano(), 10)

	if err := h.client.Set(ctx, testKey, testValue, time.Minute); err != nil {
		h.lastError = fmt.Sprintf("set operation failed: %v", err)
		return false
	}
	value, err := h.client.Get(ctx, testKey)
	if err != nil {
		h.lastError = fmt.Sprintf("get operation failed: %v", err)
		return false
	}
	if value != testValue {
		h.lastError = fmt.Sprintf("value mismatch: expected %s, got %s", testValue, value)
		return false
	}
	if err := h.client.Delete(ctx, testKey); err != nil {
		h.lastError = fmt.Sprintf("delete operation failed: %v", err)
		return false
	}
	return true
}

// GetLastError returns the last error encountered during health checks
func (h *HealthChecker) GetLastError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastError
}
