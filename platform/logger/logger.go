// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// TenantIDKey is the context key for the tenant ID
	TenantIDKey contextKey = "tenant_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and tenant_id.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok && tenantID != "" {
		newLogger = newLogger.WithTenantID(tenantID)
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithTenantID returns a logger with tenant ID
func (l *Logger) WithTenantID(tenantID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("tenant_id", tenantID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// ModelCall logs one completed model request.
func (l *Logger) ModelCall(model string, totalTokens int32, elapsed time.Duration) {
	l.Debug("model_call",
		slog.String("model", model),
		slog.Int("total_tokens", int(totalTokens)),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

// EvaluationStep logs a lead evaluation state transition at debug level.
func (l *Logger) EvaluationStep(messageID, state string) {
	l.Debug("evaluation_step",
		slog.String("message_id", messageID),
		slog.String("state", state),
	)
}

// EvaluationCompleted logs a finished lead evaluation.
func (l *Logger) EvaluationCompleted(leadID, messageID string, score int, elapsed time.Duration) {
	l.Info("evaluation_completed",
		slog.String("lead_id", leadID),
		slog.String("message_id", messageID),
		slog.Int("nuevo_score", score),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

// EvaluationFailed logs a failed lead evaluation together with the step it failed in.
func (l *Logger) EvaluationFailed(leadID, messageID, state string, err error) {
	l.Error("evaluation_failed",
		slog.String("lead_id", leadID),
		slog.String("message_id", messageID),
		slog.String("state", state),
		slog.String("error", err.Error()),
	)
}
