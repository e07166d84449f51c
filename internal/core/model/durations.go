package model

const (
	DefaultWorkSeconds  = 1500
	DefaultBreakSeconds = 300
)

// Durations holds Pomodoro phase lengths in whole seconds.
type Durations struct {
	WorkSeconds  int `json:"workDuration"`
	BreakSeconds int `json:"breakDuration"`
}

// DefaultDurations returns the fallback used when the server is unreachable.
func DefaultDurations() Durations {
	return Durations{WorkSeconds: DefaultWorkSeconds, BreakSeconds: DefaultBreakSeconds}
}

// Normalized replaces non-positive values with the defaults.
func (durations Durations) Normalized() Durations {
	if durations.WorkSeconds <= 0 {
		durations.WorkSeconds = DefaultWorkSeconds
	}
	if durations.BreakSeconds <= 0 {
		durations.BreakSeconds = DefaultBreakSeconds
	}
	return durations
}
