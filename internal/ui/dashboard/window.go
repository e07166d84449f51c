package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/sahilimamk/focustrack/internal/core/dispatch"
	"github.com/sahilimamk/focustrack/internal/core/model"
	"github.com/sahilimamk/focustrack/internal/core/pomodoro"
	"github.com/sahilimamk/focustrack/internal/report"
)

const reportTimeout = 15 * time.Second

// PomodoroAction names a timer control.
type PomodoroAction string

const (
	PomodoroStart PomodoroAction = "start"
	PomodoroPause PomodoroAction = "pause"
	PomodoroReset PomodoroAction = "reset"
)

// Reports supplies the read-only panels.
type Reports interface {
	Daily(ctx context.Context, date time.Time) (*model.ReportSnapshot, error)
	Weekly(ctx context.Context) (*model.ReportSnapshot, error)
	RecentActivities(ctx context.Context, id model.ID) ([]model.Activity, error)
}

// Actions defines dashboard handlers. OnOpen runs each time the window is
// brought up from hidden.
type Actions struct {
	OnCommand  func(command dispatch.Command, name string) error
	OnPomodoro func(action PomodoroAction) error
	OnOpen     func()
}

// Window renders the active session, the Pomodoro timer, recent activities and
// the server reports.
type Window struct {
	window      fyne.Window
	reports     Reports
	actions     Actions
	defaultName string

	current    *model.Session
	snapshot   pomodoro.Snapshot
	activities []model.Activity
	pending    bool
	visible    bool

	sessionLabel *widget.Label
	nameEntry    *widget.Entry
	startButton  *widget.Button
	pauseButton  *widget.Button
	resumeButton *widget.Button
	endButton    *widget.Button

	timerLabel   *widget.Label
	cycleLabel   *widget.Label
	timerStart   *widget.Button
	timerPause   *widget.Button
	timerReset   *widget.Button
	activityList *widget.List
	dailyLabel   *widget.Label
	weeklyLabel  *widget.Label
	topAppsLabel *widget.Label
	splitLabel   *widget.Label
	focusApps    *widget.Label
	distractApps *widget.Label
}

// New creates a hidden dashboard window.
func New(app fyne.App, reports Reports, defaultName string, actions Actions) *Window {
	dash := &Window{
		window:       app.NewWindow("focustrack"),
		reports:      reports,
		actions:      actions,
		defaultName:  defaultName,
		sessionLabel: widget.NewLabel("No active session"),
		nameEntry:    widget.NewEntry(),
		timerLabel:   widget.NewLabelWithStyle(pomodoro.Format(0), fyne.TextAlignCenter, fyne.TextStyle{Bold: true, Monospace: true}),
		cycleLabel:   widget.NewLabel(""),
		dailyLabel:   widget.NewLabel("Today: loading..."),
		weeklyLabel:  widget.NewLabel("This week: loading..."),
		topAppsLabel: widget.NewLabel(""),
		splitLabel:   widget.NewLabel(""),
		focusApps:    widget.NewLabel(""),
		distractApps: widget.NewLabel(""),
	}
	dash.nameEntry.SetPlaceHolder(defaultName)

	dash.startButton = widget.NewButton("Start session", func() {
		name := strings.TrimSpace(dash.nameEntry.Text)
		if name == "" {
			name = dash.defaultName
		}
		dash.runCommand(dispatch.CommandStart, name)
	})
	dash.pauseButton = widget.NewButton("Pause", func() { dash.runCommand(dispatch.CommandPause, "") })
	dash.resumeButton = widget.NewButton("Resume", func() { dash.runCommand(dispatch.CommandResume, "") })
	dash.endButton = widget.NewButton("End session", func() { dash.runCommand(dispatch.CommandEnd, "") })

	dash.timerStart = widget.NewButton("Start", func() { dash.runPomodoro(PomodoroStart) })
	dash.timerPause = widget.NewButton("Pause", func() { dash.runPomodoro(PomodoroPause) })
	dash.timerReset = widget.NewButton("Reset", func() { dash.runPomodoro(PomodoroReset) })

	dash.activityList = widget.NewList(
		func() int { return len(dash.activities) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < len(dash.activities) {
				item.(*widget.Label).SetText(report.ActivityLine(dash.activities[id]))
			}
		},
	)

	sessionBox := container.NewVBox(
		widget.NewLabelWithStyle("Session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		dash.sessionLabel,
		dash.nameEntry,
		container.NewHBox(dash.startButton, dash.pauseButton, dash.resumeButton, dash.endButton),
	)
	timerBox := container.NewVBox(
		widget.NewLabelWithStyle("Pomodoro", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		dash.timerLabel,
		dash.cycleLabel,
		container.NewHBox(dash.timerStart, dash.timerPause, dash.timerReset),
	)
	reportBox := container.NewVBox(
		widget.NewLabelWithStyle("Reports", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		dash.dailyLabel,
		dash.weeklyLabel,
		dash.splitLabel,
		dash.topAppsLabel,
		dash.focusApps,
		dash.distractApps,
		widget.NewLabelWithStyle("Recent activity", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)

	dash.window.SetContent(container.NewBorder(
		container.NewVBox(sessionBox, widget.NewSeparator(), timerBox, widget.NewSeparator(), reportBox),
		nil, nil, nil,
		dash.activityList,
	))
	dash.window.SetCloseIntercept(dash.Hide)
	dash.window.Resize(fyne.NewSize(520, 640))

	dash.refreshControls()
	return dash
}

// Show displays the window and reloads its panels.
func (dash *Window) Show() {
	dash.window.Show()
	dash.window.RequestFocus()
	if dash.visible {
		return
	}
	dash.visible = true
	if dash.actions.OnOpen != nil {
		dash.actions.OnOpen()
	}
	dash.ReloadReports()
}

// Hide hides the window. Report reloads pause until it is shown again.
func (dash *Window) Hide() {
	dash.window.Hide()
	dash.visible = false
}

// SetDefaultName changes the name used when the session name field is empty.
func (dash *Window) SetDefaultName(name string) {
	dash.defaultName = name
	dash.nameEntry.SetPlaceHolder(name)
}

// SetSession renders the canonical session.
func (dash *Window) SetSession(current *model.Session) {
	previous := dash.current
	dash.current = current
	if current == nil {
		dash.sessionLabel.SetText("No active session")
	} else {
		label := fmt.Sprintf("%s - %s", sessionName(current), current.Status)
		if !current.StartTime.IsZero() {
			label += " since " + current.StartTime.Local().Format("15:04")
		}
		dash.sessionLabel.SetText(label)
	}
	dash.refreshControls()

	if previous == nil || current == nil || previous.ID != current.ID {
		dash.ReloadReports()
	}
}

// SetPomodoro renders the timer.
func (dash *Window) SetPomodoro(snapshot pomodoro.Snapshot) {
	dash.snapshot = snapshot
	phase := "Work"
	if snapshot.Phase == pomodoro.PhaseBreak {
		phase = "Break"
		if snapshot.LongBreak {
			phase = "Long break"
		}
	}
	dash.timerLabel.SetText(fmt.Sprintf("%s  %s", phase, snapshot.Display()))
	dash.cycleLabel.SetText(fmt.Sprintf("Completed work phases: %d", snapshot.CompletedWorkPhases))
	dash.refreshControls()
}

// ShowError surfaces a failed command as a blocking notice.
func (dash *Window) ShowError(err error) {
	dialog.ShowError(err, dash.window)
}

// ReloadReports fetches the report panels and the activity list in the background.
func (dash *Window) ReloadReports() {
	if !dash.visible || dash.reports == nil {
		return
	}
	var sessionID model.ID
	if dash.current != nil {
		sessionID = dash.current.ID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		daily, dailyErr := dash.reports.Daily(ctx, time.Now())
		weekly, weeklyErr := dash.reports.Weekly(ctx)
		activities, _ := dash.reports.RecentActivities(ctx, sessionID)

		fyne.Do(func() {
			dash.dailyLabel.SetText("Today: " + summaryOrUnknown(daily, dailyErr))
			dash.weeklyLabel.SetText("This week: " + weeklyLine(weekly, weeklyErr))
			dash.splitLabel.SetText(splitLine(daily))
			dash.topAppsLabel.SetText(topAppsLine(daily))
			dash.focusApps.SetText(labelled("Productive: ", dailyApps(daily, true)))
			dash.distractApps.SetText(labelled("Distracting: ", dailyApps(daily, false)))
			dash.activities = activities
			dash.activityList.Refresh()
		})
	}()
}

func (dash *Window) runCommand(command dispatch.Command, name string) {
	if dash.actions.OnCommand == nil {
		return
	}
	dash.runAsync(func() error {
		return dash.actions.OnCommand(command, name)
	})
}

func (dash *Window) runPomodoro(action PomodoroAction) {
	if dash.actions.OnPomodoro == nil {
		return
	}
	dash.runAsync(func() error {
		return dash.actions.OnPomodoro(action)
	})
}

// runAsync disables the controls while call is outstanding.
func (dash *Window) runAsync(call func() error) {
	if dash.pending {
		return
	}
	dash.pending = true
	dash.refreshControls()

	go func() {
		err := call()
		fyne.Do(func() {
			dash.pending = false
			dash.refreshControls()
			if err != nil {
				dash.ShowError(err)
			}
		})
	}()
}

func (dash *Window) refreshControls() {
	current := dash.current
	setEnabled(dash.startButton, !dash.pending && current == nil)
	setEnabled(dash.pauseButton, !dash.pending && current.IsActive())
	setEnabled(dash.resumeButton, !dash.pending && current != nil && !current.IsActive())
	setEnabled(dash.endButton, !dash.pending && current != nil)

	setEnabled(dash.timerStart, !dash.pending && dash.snapshot.State != pomodoro.StateRunning)
	setEnabled(dash.timerPause, !dash.pending && dash.snapshot.State == pomodoro.StateRunning)
	setEnabled(dash.timerReset, !dash.pending)
	if dash.snapshot.State == pomodoro.StatePaused {
		dash.timerStart.SetText("Resume")
	} else {
		dash.timerStart.SetText("Start")
	}
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
	} else {
		button.Disable()
	}
}

func sessionName(current *model.Session) string {
	if current.Name != "" {
		return current.Name
	}
	return "Session #" + current.ID.String()
}

func summaryOrUnknown(snapshot *model.ReportSnapshot, err error) string {
	if err != nil {
		return "unavailable"
	}
	return report.Summary(snapshot)
}

func weeklyLine(snapshot *model.ReportSnapshot, err error) string {
	if err != nil || snapshot == nil {
		return summaryOrUnknown(snapshot, err)
	}
	return fmt.Sprintf("%s, %d sessions/day", report.Summary(snapshot), snapshot.ConsistencyRating)
}

func splitLine(snapshot *model.ReportSnapshot) string {
	if snapshot == nil {
		return ""
	}
	return "Time: " + report.Distribution(snapshot)
}

func topAppsLine(snapshot *model.ReportSnapshot) string {
	return labelled("Top apps: ", report.AppList(report.TopApps(snapshot, 3), 3))
}

func dailyApps(snapshot *model.ReportSnapshot, productive bool) string {
	if snapshot == nil {
		return ""
	}
	if productive {
		return report.AppList(snapshot.TopProductiveApps, 3)
	}
	return report.AppList(snapshot.TopDistractingApps, 3)
}

func labelled(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}
