package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Window handles the preferences UI.
type Window struct {
	window      fyne.Window
	settings    Settings
	onSave      func(Settings)
	baseURL     *widget.Entry
	pollEvery   *widget.Entry
	timeout     *widget.Entry
	sessionName *widget.Entry
	logLevel    *widget.Select
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("focustrack Settings")

	prefs := &Window{
		window:      window,
		onSave:      onSave,
		baseURL:     widget.NewEntry(),
		pollEvery:   widget.NewEntry(),
		timeout:     widget.NewEntry(),
		sessionName: widget.NewEntry(),
		logLevel:    widget.NewSelect(logLevels, nil),
	}
	prefs.baseURL.SetPlaceHolder("http://localhost:8080/api")
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Backend", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("API base URL"),
		prefs.baseURL,
		container.NewHBox(widget.NewLabel("Refresh every"), prefs.pollEvery, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Request timeout"), prefs.timeout, widget.NewLabel("sec")),
		widget.NewLabelWithStyle("Sessions", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Default session name"),
		prefs.sessionName,
		container.NewHBox(widget.NewLabel("Log level"), prefs.logLevel),
		widget.NewLabel("API URL and request timeout apply on next launch."),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.SetCloseIntercept(window.Hide)
	window.Resize(fyne.NewSize(420, 380))

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.baseURL.SetText(settings.APIBaseURL)
	prefs.pollEvery.SetText(fmt.Sprintf("%d", int(settings.PollInterval.Seconds())))
	prefs.timeout.SetText(fmt.Sprintf("%d", int(settings.RequestTimeout.Seconds())))
	prefs.sessionName.SetText(settings.DefaultSessionName)
	prefs.logLevel.SetSelected(strings.ToLower(settings.LogLevel))
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if base := strings.TrimSpace(prefs.baseURL.Text); base != "" {
		settings.APIBaseURL = base
	}
	if seconds, ok := parsePositiveInt(prefs.pollEvery.Text); ok {
		settings.PollInterval = time.Duration(seconds) * time.Second
	}
	if seconds, ok := parsePositiveInt(prefs.timeout.Text); ok {
		settings.RequestTimeout = time.Duration(seconds) * time.Second
	}
	if name := strings.TrimSpace(prefs.sessionName.Text); name != "" {
		settings.DefaultSessionName = name
	}
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
