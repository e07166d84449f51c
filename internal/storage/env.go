package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sahilimamk/focustrack/internal/ui/preferences"
)

// EnvPrefix is prepended to every override variable.
const EnvPrefix = "FOCUSTRACK_"

type envSettings struct {
	APIBaseURL         string        `env:"API_BASE_URL"`
	PollInterval       time.Duration `env:"POLL_INTERVAL"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	DefaultSessionName string        `env:"DEFAULT_SESSION_NAME"`
	LogLevel           string        `env:"LOG_LEVEL"`
}

// ApplyEnv overlays FOCUSTRACK_* variables on settings. A nil environ reads
// the process environment.
func ApplyEnv(settings *preferences.Settings, environ map[string]string) error {
	var overrides envSettings
	if err := env.ParseWithOptions(&overrides, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if base := strings.TrimSpace(overrides.APIBaseURL); base != "" {
		settings.APIBaseURL = base
	}
	if overrides.PollInterval > 0 {
		settings.PollInterval = overrides.PollInterval
	}
	if overrides.RequestTimeout > 0 {
		settings.RequestTimeout = overrides.RequestTimeout
	}
	if name := strings.TrimSpace(overrides.DefaultSessionName); name != "" {
		settings.DefaultSessionName = name
	}
	if level := strings.TrimSpace(overrides.LogLevel); level != "" {
		settings.LogLevel = level
	}
	return nil
}
