package preferences

import (
	"log/slog"
	"strings"
	"time"

	"github.com/sahilimamk/focustrack/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	APIBaseURL         string
	PollInterval       time.Duration
	RequestTimeout     time.Duration
	DefaultSessionName string
	LogLevel           string
}

// DefaultSettings returns default settings for focustrack.
func DefaultSettings() Settings {
	return Settings{
		APIBaseURL:         "http://localhost:8080/api",
		PollInterval:       5 * time.Second,
		RequestTimeout:     10 * time.Second,
		DefaultSessionName: "Focus session",
		LogLevel:           "info",
	}
}

// ClientConfig converts settings to the backend client configuration.
func (settings Settings) ClientConfig() model.ClientConfig {
	return model.ClientConfig{
		BaseURL:        settings.APIBaseURL,
		RequestTimeout: settings.RequestTimeout,
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (settings Settings) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(settings.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
