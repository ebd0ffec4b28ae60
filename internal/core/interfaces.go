package core

import (
	"context"
	"time"
)

// Logger interface
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

// Cache interface
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, duration time.Duration)
	Stop()
}

// StorageInterface storage interface
type StorageInterface interface {
	SaveStats(stats *RequestStats) error
	LoadStats() (*RequestStats, error)
	Close() error
}

// Invoker issues a single backend call for one action.
type Invoker interface {
	Invoke(ctx context.Context, systemPrompt, userQuery, modelID string) ActionResult
}

// MetricsCollector interface
type MetricsCollector interface {
	RecordAction(action, model string, success bool, duration time.Duration)
	RecordHTTPRequest(duration time.Duration)
	GetQPS() float64
}

// NopLogger empty logger implementation
type NopLogger struct{}

func (*NopLogger) Debug(format string, args ...any) {}
func (*NopLogger) Info(format string, args ...any)  {}
func (*NopLogger) Warn(format string, args ...any)  {}
func (*NopLogger) Error(format string, args ...any) {}
func (*NopLogger) Fatal(format string, args ...any) {}

// NopMetrics empty metrics collector implementation
type NopMetrics struct{}

func (*NopMetrics) RecordAction(action, model string, success bool, duration time.Duration) {}
func (*NopMetrics) RecordHTTPRequest(duration time.Duration)                               {}
func (*NopMetrics) GetQPS() float64                                                        { return 0 }
