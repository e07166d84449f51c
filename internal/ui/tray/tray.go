package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/sahilimamk/focustrack/internal/core/model"
	"github.com/sahilimamk/focustrack/internal/core/pomodoro"
)

const menuTitle = "focustrack"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnDashboard      func()
	OnPreferences    func()
	OnTogglePomodoro func()
	OnResetPomodoro  func()
	OnEndSession     func()
	OnQuit           func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	sessionItem *fyne.MenuItem
	toggleItem  *fyne.MenuItem
	resetItem   *fyne.MenuItem
	endItem     *fyne.MenuItem
	callbacks   Callbacks
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Pomodoro: idle", nil)
	manager.statusItem.Disabled = true

	manager.sessionItem = fyne.NewMenuItem("No active session", nil)
	manager.sessionItem.Disabled = true

	manager.toggleItem = fyne.NewMenuItem("Start pomodoro", func() {
		invoke(manager.callbacks.OnTogglePomodoro)
	})
	manager.resetItem = fyne.NewMenuItem("Reset pomodoro", func() {
		invoke(manager.callbacks.OnResetPomodoro)
	})
	manager.endItem = fyne.NewMenuItem("End session", func() {
		invoke(manager.callbacks.OnEndSession)
	})
	manager.endItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// SetPomodoro updates the countdown label and the toggle item.
func (manager *Manager) SetPomodoro(snapshot pomodoro.Snapshot) {
	phase := "Work"
	if snapshot.Phase == pomodoro.PhaseBreak {
		phase = "Break"
		if snapshot.LongBreak {
			phase = "Long break"
		}
	}
	status := fmt.Sprintf("%s %s", phase, snapshot.Display())

	switch snapshot.State {
	case pomodoro.StateRunning:
		manager.toggleItem.Label = "Pause pomodoro"
	case pomodoro.StatePaused:
		manager.toggleItem.Label = "Resume pomodoro"
		status = fmt.Sprintf("%s (paused)", status)
	default:
		manager.toggleItem.Label = "Start pomodoro"
	}
	manager.statusItem.Label = status
	manager.refreshMenu()
}

// SetSession updates the session label and enables ending it.
func (manager *Manager) SetSession(current *model.Session) {
	if current == nil {
		manager.sessionItem.Label = "No active session"
		manager.endItem.Disabled = true
	} else {
		manager.sessionItem.Label = fmt.Sprintf("Session: %s (%s)", displayName(current), current.Status)
		manager.endItem.Disabled = false
	}
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
		manager.statusItem,
		manager.sessionItem,
		fyne.NewMenuItemSeparator(),
		manager.toggleItem,
		manager.resetItem,
		manager.endItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Dashboard", func() {
			invoke(manager.callbacks.OnDashboard)
		}),
		fyne.NewMenuItem("Preferences", func() {
			invoke(manager.callbacks.OnPreferences)
		}),
		fyne.NewMenuItem("Quit", func() {
			invoke(manager.callbacks.OnQuit)
		}),
	))
}

func displayName(current *model.Session) string {
	if current.Name != "" {
		return current.Name
	}
	return "#" + current.ID.String()
}

func invoke(callback func()) {
	if callback != nil {
		callback()
	}
}
