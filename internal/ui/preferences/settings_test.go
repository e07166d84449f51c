package preferences

import (
	"log/slog"
	"testing"
	"time"
)

func TestDefaultClientConfig(t *testing.T) {
	settings := DefaultSettings()
	config := settings.ClientConfig()
	if settings.PollInterval != 5*time.Second || config.RequestTimeout != 10*time.Second || config.BaseURL == "" {
		t.Fatalf("unexpected config: %+v", config)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range tests {
		settings := DefaultSettings()
		settings.LogLevel = raw
		if got := settings.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
