package pomodoro

import (
	"context"
	"log/slog"

	"github.com/sahilimamk/focustrack/internal/core/model"
)

// DurationSource reads phase lengths from the server configuration.
type DurationSource interface {
	Durations(ctx context.Context) (model.Durations, error)
}

// LoadDurations fetches the phase lengths once. Any failure, or a
// non-positive value, falls back to 1500 s work and 300 s break.
func LoadDurations(ctx context.Context, source DurationSource, logger *slog.Logger) model.Durations {
	if logger == nil {
		logger = slog.Default()
	}
	durations, err := source.Durations(ctx)
	if err != nil {
		logger.Warn("load pomodoro durations, using defaults", "error", err)
		return model.DefaultDurations()
	}
	return durations.Normalized()
}
