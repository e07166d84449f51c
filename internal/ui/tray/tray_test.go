package tray

import (
	"testing"

	"github.com/sahilimamk/focustrack/internal/core/model"
	"github.com/sahilimamk/focustrack/internal/core/pomodoro"
)

func TestSetPomodoroLabels(t *testing.T) {
	tests := []struct {
		name     string
		snapshot pomodoro.Snapshot
		status   string
		toggle   string
	}{
		{name: "idle work", snapshot: pomodoro.Snapshot{State: pomodoro.StateIdle, Phase: pomodoro.PhaseWork, TimeLeftSeconds: 1500}, status: "Work 25:00", toggle: "Start pomodoro"},
		{name: "running break", snapshot: pomodoro.Snapshot{State: pomodoro.StateRunning, Phase: pomodoro.PhaseBreak, TimeLeftSeconds: 61}, status: "Break 01:01", toggle: "Pause pomodoro"},
		{name: "paused long break", snapshot: pomodoro.Snapshot{State: pomodoro.StatePaused, Phase: pomodoro.PhaseBreak, LongBreak: true, TimeLeftSeconds: 5}, status: "Long break 00:05 (paused)", toggle: "Resume pomodoro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := New(nil, Callbacks{})
			manager.SetPomodoro(tt.snapshot)
			if manager.statusItem.Label != tt.status {
				t.Errorf("status = %q, want %q", manager.statusItem.Label, tt.status)
			}
			if manager.toggleItem.Label != tt.toggle {
				t.Errorf("toggle = %q, want %q", manager.toggleItem.Label, tt.toggle)
			}
		})
	}
}

func TestSetSession(t *testing.T) {
	manager := New(nil, Callbacks{})
	if !manager.endItem.Disabled {
		t.Fatal("end should start disabled")
	}

	manager.SetSession(&model.Session{ID: "4", Status: model.StatusPaused})
	if manager.endItem.Disabled || manager.sessionItem.Label != "Session: #4 (PAUSED)" {
		t.Fatalf("unexpected items: %q disabled=%v", manager.sessionItem.Label, manager.endItem.Disabled)
	}

	manager.SetSession(nil)
	if !manager.endItem.Disabled || manager.sessionItem.Label != "No active session" {
		t.Fatalf("unexpected items: %q disabled=%v", manager.sessionItem.Label, manager.endItem.Disabled)
	}
}

func TestCallbacksInvoked(t *testing.T) {
	toggled := 0
	manager := New(nil, Callbacks{OnTogglePomodoro: func() { toggled++ }})
	manager.toggleItem.Action()
	manager.resetItem.Action()
	if toggled != 1 {
		t.Fatalf("expected toggle once, got %d", toggled)
	}
}
