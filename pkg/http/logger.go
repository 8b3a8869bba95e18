package http

import (
	"bloomwatch/pkg/log"

	"go.uber.org/zap"
)

// HTTPLogger interface defines methods for logging HTTP requests and responses
type HTTPLogger interface {
	// LogRequest is called before the request is sent
	LogRequest(method, url string, headers map[string]string)

	// LogResponseSuccess is called after the final successful attempt
	LogResponseSuccess(method, url string, headers map[string]string, httpStatus int, responseBody string, latency int64)

	// LogResponseError is called after the final failed attempt
	LogResponseError(method, url string, headers map[string]string, httpStatus int, responseBody string, latency int64, err error)

	// LogRequestRetry is called when a retry attempt is about to be made
	LogRequestRetry(method, url string, httpStatus int, latency int64, err error, retryCount, maxRetries int)
}

// ZapLogger writes client events through pkg/log. Header values are never logged.
type ZapLogger struct {
	Name string
}

var _ HTTPLogger = (*ZapLogger)(nil)

func (l *ZapLogger) LogRequest(method, url string, _ map[string]string) {
	log.Debug("outbound request", zap.String("client", l.Name), zap.String("method", method), zap.String("url", url))
}

func (l *ZapLogger) LogResponseSuccess(method, url string, _ map[string]string, httpStatus int, _ string, latency int64) {
	log.Debug("outbound response",
		zap.String("client", l.Name),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", httpStatus),
		zap.Int64("latency_ms", latency))
}

func (l *ZapLogger) LogResponseError(method, url string, _ map[string]string, httpStatus int, responseBody string, latency int64, err error) {
	log.Warn("outbound request failed",
		zap.String("client", l.Name),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", httpStatus),
		zap.Int64("latency_ms", latency),
		zap.String("body", truncate(responseBody, 512)),
		zap.Error(err))
}

func (l *ZapLogger) LogRequestRetry(method, url string, httpStatus int, latency int64, err error, retryCount, maxRetries int) {
	log.Info("retrying outbound request",
		zap.String("client", l.Name),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", httpStatus),
		zap.Int64("latency_ms", latency),
		zap.Int("retry", retryCount),
		zap.Int("max_retries", maxRetries),
		zap.Error(err))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
