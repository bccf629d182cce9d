// Package telemetry wires structured logging and Prometheus metrics onto
// flow monitor hooks.
package telemetry

import (
	"context"
	"log/slog"
	"os"

	"flowkit/flows"
)

// LogLevel reads the logging level from the LOG_LEVEL environment
// variable: DEBUG, INFO, WARN or ERROR. Defaults to INFO.
func LogLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the global logger. LOG_FORMAT selects the handler:
// "text" for development, anything else for JSON.
func Setup() *slog.Logger {
	opts := &slog.HandlerOptions{Level: LogLevel()}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// LogMonitor logs flow lifecycle events through slog.
type LogMonitor struct {
	logger *slog.Logger
}

// NewLogMonitor builds a monitor; a nil logger uses the default.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger}
}

func (m *LogMonitor) Notify(ctx context.Context, event flows.Event) {
	logger := m.logger.With(
		"flow", event.Flow,
		"run_id", event.RunID,
	)
	if event.Node != "" {
		logger = logger.With("node", event.Node)
	}

	switch event.Type {
	case flows.EventFlowStart:
		logger.InfoContext(ctx, "flow started")
	case flows.EventNodeStart:
		logger.DebugContext(ctx, "node started")
	case flows.EventNodeEnd:
		logger.DebugContext(ctx, "node finished", "action", string(event.Action))
	case flows.EventNodeError:
		logger.ErrorContext(ctx, "node failed", "error", event.Err)
	case flows.EventFlowComplete:
		if event.Err != nil {
			logger.ErrorContext(ctx, "flow failed", "error", event.Err)
		} else {
			logger.InfoContext(ctx, "flow completed", "action", string(event.Action))
		}
	}
}
