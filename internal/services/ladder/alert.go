package ladder

import (
	"context"
	"log/slog"
)

// Alerter reports conditions that need operator attention
type Alerter interface {
	Alert(ctx context.Context, msg string, attrs ...slog.Attr)
}

// LogAlerter writes alerts as error-level log records tagged alert=true
type LogAlerter struct {
	logger *slog.Logger
}

// NewLogAlerter creates an Alerter backed by the given logger
func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// Alert logs msg for operators
func (a *LogAlerter) Alert(ctx context.Context, msg string, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Bool("alert", true))
	a.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
