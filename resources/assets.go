package resources

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/sahilimamk/focustrack/internal/core/pomodoro"
)

// Logo returns the application icon.
func Logo() fyne.Resource {
	return theme.HistoryIcon()
}

// TrayIcon returns the tray icon for the engine state.
func TrayIcon(snapshot pomodoro.Snapshot) fyne.Resource {
	switch {
	case snapshot.State == pomodoro.StatePaused:
		return theme.MediaPauseIcon()
	case snapshot.State == pomodoro.StateRunning && snapshot.Phase == pomodoro.PhaseBreak:
		return theme.MediaSkipNextIcon()
	case snapshot.State == pomodoro.StateRunning:
		return theme.MediaPlayIcon()
	default:
		return Logo()
	}
}
