package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/sahilimamk/focustrack/internal/api"
	"github.com/sahilimamk/focustrack/internal/core/dispatch"
	"github.com/sahilimamk/focustrack/internal/core/pomodoro"
	"github.com/sahilimamk/focustrack/internal/core/session"
	"github.com/sahilimamk/focustrack/internal/platform"
	"github.com/sahilimamk/focustrack/internal/report"
	"github.com/sahilimamk/focustrack/internal/storage"
	"github.com/sahilimamk/focustrack/internal/ui/dashboard"
	"github.com/sahilimamk/focustrack/internal/ui/preferences"
	"github.com/sahilimamk/focustrack/internal/ui/tray"
	"github.com/sahilimamk/focustrack/resources"
)

const (
	appName = "focustrack"
	appID   = "com.focustrack.app"

	commandTimeout = 30 * time.Second
	reportTTL      = time.Minute
)

func main() {
	settings, err := storage.LoadSettings(appName)
	if err != nil {
		slog.Warn("load settings, using defaults", "error", err)
		settings = preferences.DefaultSettings()
	}
	if err := storage.ApplyEnv(&settings, nil); err != nil {
		slog.Warn("environment overrides ignored", "error", err)
	}

	level := new(slog.LevelVar)
	level.Set(settings.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	guard, err := platform.AcquireSingleInstance(appID, logger)
	if err != nil {
		logger.Info("single instance", "error", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	client, err := api.New(settings.ClientConfig(), nil, logger.With("component", "api"))
	if err != nil {
		logger.Error("api client", "error", err)
		os.Exit(1)
	}

	store := session.NewStore(client, logger.With("component", "session"))
	poller := session.NewPoller(store, settings.PollInterval)
	reports := report.NewService(client, reportTTL, logger.With("component", "report"))
	dispatcher := dispatch.New(client, store, reports, logger.With("component", "dispatch"))

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), settings.RequestTimeout)
	durations := pomodoro.LoadDurations(startupCtx, client, logger)
	cancelStartup()
	engine := pomodoro.New(client, store, pomodoro.Config{
		TickInterval: time.Second,
		Durations:    durations,
	}, logger.With("component", "pomodoro"))

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.Logo())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		logger.Error("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("focustrack is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	commandCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(appCtx, commandTimeout)
	}

	dash := dashboard.New(fyneApp, reports, settings.DefaultSessionName, dashboard.Actions{
		OnCommand: func(command dispatch.Command, name string) error {
			ctx, cancel := commandCtx()
			defer cancel()
			return dispatcher.Dispatch(ctx, command, name)
		},
		OnPomodoro: func(action dashboard.PomodoroAction) error {
			ctx, cancel := commandCtx()
			defer cancel()
			return runPomodoro(ctx, engine, action)
		},
		OnOpen: func() {
			go func() {
				ctx, cancel := commandCtx()
				defer cancel()
				store.Refresh(ctx)
			}()
		},
	})

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		if err := storage.SaveSettings(appName, updated); err != nil {
			logger.Error("save settings", "error", err)
			dash.ShowError(err)
			return
		}
		settings = updated
		level.Set(settings.SlogLevel())
		go poller.SetInterval(settings.PollInterval)
		dash.SetDefaultName(settings.DefaultSessionName)
		logger.Info("settings saved", "poll_interval", settings.PollInterval, "log_level", settings.LogLevel)
	})

	// Tray actions block on the backend, so they run off the UI goroutine.
	background := func(run func(ctx context.Context) error) {
		go func() {
			ctx, cancel := commandCtx()
			defer cancel()
			if err := run(ctx); err != nil && !errors.Is(err, pomodoro.ErrBusy) {
				logger.Warn("tray action failed", "error", err)
				fyne.Do(func() { dash.ShowError(err) })
			}
		}()
	}

	var quitting bool
	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnDashboard: dash.Show,
		OnPreferences: func() {
			prefsWindow.Show()
		},
		OnTogglePomodoro: func() {
			background(func(ctx context.Context) error {
				if engine.Snapshot().Running() {
					return engine.Pause(ctx)
				}
				return engine.Start(ctx)
			})
		},
		OnResetPomodoro: func() {
			background(engine.Reset)
		},
		OnEndSession: func() {
			background(dispatcher.EndSession)
		},
		OnQuit: func() {
			if quitting {
				return
			}
			quitting = true
			go func() {
				poller.Stop()
				engine.Stop()
				store.Close()
				cancelApp()
				fyne.Do(fyneApp.Quit)
			}()
		},
	})
	desktopApp.SetSystemTrayIcon(resources.TrayIcon(engine.Snapshot()))
	trayManager.SetPomodoro(engine.Snapshot())
	dash.SetPomodoro(engine.Snapshot())

	guard.Serve(func() {
		fyne.Do(dash.Show)
	})

	sessionEvents := store.Subscribe(8)
	go func() {
		for event := range sessionEvents {
			current := event.Session
			if current == nil {
				reports.Clear()
			}
			fyne.Do(func() {
				trayManager.SetSession(current)
				dash.SetSession(current)
			})
		}
	}()

	pomodoroEvents := engine.Subscribe(8)
	go func() {
		for event := range pomodoroEvents {
			fyne.Do(func() {
				trayManager.SetPomodoro(event.Snapshot)
				dash.SetPomodoro(event.Snapshot)
				if event.Type != pomodoro.EventTick {
					desktopApp.SetSystemTrayIcon(resources.TrayIcon(event.Snapshot))
				}
				if event.Type == pomodoro.EventRemoteError {
					dash.ShowError(errors.New(event.Message))
				}
			})
		}
	}()

	engine.Follow(store.Subscribe(8))

	// Polling runs until quit.
	poller.Start(appCtx)

	dash.Show()
	fyneApp.Run()
}

func runPomodoro(ctx context.Context, engine *pomodoro.Engine, action dashboard.PomodoroAction) error {
	switch action {
	case dashboard.PomodoroStart:
		return engine.Start(ctx)
	case dashboard.PomodoroPause:
		return engine.Pause(ctx)
	case dashboard.PomodoroReset:
		return engine.Reset(ctx)
	default:
		return nil
	}
}
