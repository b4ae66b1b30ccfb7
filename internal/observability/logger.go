package observability

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Global logger instance - shared across the application.
// This is intentional: loggers should not be stored in context.
//
//nolint:gochecknoglobals // Singleton logger is a standard pattern
var (
	globalLogger *zap.Logger
	loggerMu     sync.RWMutex
)

// InitLogger initializes the base logger (called once at startup).
func InitLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetLogger(logger)

	return logger, nil
}

// SetLogger replaces the base logger. Tests use it to install zap.NewNop or an observer.
func SetLogger(logger *zap.Logger) {
	loggerMu.Lock()
	globalLogger = logger
	loggerMu.Unlock()
}

// getBaseLogger returns the global logger instance.
func getBaseLogger() *zap.Logger {
	loggerMu.RLock()
	logger := globalLogger
	loggerMu.RUnlock()

	if logger == nil {
		// Fallback to production logger if not initialized
		logger, _ = zap.NewProduction()
	}

	return logger
}

// contextFields lists the request-scoped values FromContext attaches, in
// field order.
//
//nolint:gochecknoglobals // Read-only lookup table
var contextFields = []struct {
	key string
	get func(context.Context) string
}{
	{"trace_id", GetTraceID},
	{"span_id", GetSpanID},
	{"request_id", GetRequestID},
	{"user_id", GetUserID},
	{"vendor", GetVendor},
	{"model", GetModel},
}

// FromContext creates a logger with fields extracted from context.
func FromContext(ctx context.Context) *zap.Logger {
	logger := getBaseLogger()

	fields := make([]zap.Field, 0, len(contextFields))
	for _, field := range contextFields {
		if value := field.get(ctx); value != "" {
			fields = append(fields, zap.String(field.key, value))
		}
	}

	return logger.With(fields...)
}
