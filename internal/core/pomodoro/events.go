package pomodoro

import "time"

// State represents the engine's run mode.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Phase is the current half of the work/break cycle.
type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventStateChange   EventType = "state_change"
	EventTick          EventType = "tick"
	EventPhaseComplete EventType = "phase_complete"
	EventRemoteError   EventType = "remote_error"
)

// Event represents an engine update for observers.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Message  string
	At       time.Time
}

// Snapshot is a point-in-time copy of the cycle.
type Snapshot struct {
	State                State
	Phase                Phase
	LongBreak            bool
	TimeLeftSeconds      int
	CompletedWorkPhases  int
	WorkDurationSeconds  int
	BreakDurationSeconds int
}

// Running reports whether the countdown is active.
func (snapshot Snapshot) Running() bool {
	return snapshot.State == StateRunning
}

// Display renders the remaining time as mm:ss.
func (snapshot Snapshot) Display() string {
	return Format(snapshot.TimeLeftSeconds)
}
