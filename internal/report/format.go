package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilimamk/focustrack/internal/core/model"
)

// HumanDuration renders whole seconds as "1h 05m", "12m 30s" or "45s".
func HumanDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	rest := seconds % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %02ds", minutes, rest)
	default:
		return fmt.Sprintf("%ds", rest)
	}
}

// Score renders a server percentage score with one decimal.
func Score(score float64) string {
	if score < 0 {
		score = 0
	}
	return fmt.Sprintf("%.1f%%", score)
}

// TopApps returns up to limit apps ordered by time spent. The input is not modified.
func TopApps(snapshot *model.ReportSnapshot, limit int) []model.AppUsage {
	if snapshot == nil || limit <= 0 {
		return nil
	}
	apps := append([]model.AppUsage(nil), snapshot.TopApps...)
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].DurationSeconds > apps[j].DurationSeconds
	})
	if len(apps) > limit {
		apps = apps[:limit]
	}
	return apps
}

// Summary is a one-line description of a report.
func Summary(snapshot *model.ReportSnapshot) string {
	if snapshot == nil {
		return "No data"
	}
	return fmt.Sprintf("focus %s, distracted %s, productivity %s, distraction %s",
		HumanDuration(snapshot.FocusSeconds), HumanDuration(snapshot.DistractedSeconds),
		Score(snapshot.ProductivityScore), Score(snapshot.DistractionScore))
}

// Distribution splits tracked time into productive, distracting and neutral shares.
func Distribution(snapshot *model.ReportSnapshot) string {
	total := snapshot.TrackedSeconds()
	if total == 0 {
		return "No tracked time"
	}
	share := func(seconds int64) string {
		return Score(float64(seconds) / float64(total) * 100)
	}
	return fmt.Sprintf("productive %s, distracting %s, neutral %s",
		share(snapshot.FocusSeconds), share(snapshot.DistractedSeconds), share(snapshot.NeutralSeconds))
}

// AppLine renders one app usage row.
func AppLine(app model.AppUsage) string {
	return fmt.Sprintf("%s %s (%s)", app.AppName, HumanDuration(app.DurationSeconds), Score(app.Percentage))
}

// AppList joins up to limit app rows, or returns "" for none.
func AppList(apps []model.AppUsage, limit int) string {
	if len(apps) > limit {
		apps = apps[:limit]
	}
	parts := make([]string, 0, len(apps))
	for _, app := range apps {
		parts = append(parts, AppLine(app))
	}
	return strings.Join(parts, ", ")
}

// ActivityLine renders one activity for the dashboard list.
func ActivityLine(activity model.Activity) string {
	line := activity.AppName
	if activity.WindowTitle != "" {
		line += " - " + activity.WindowTitle
	}
	if activity.Category != "" {
		line += " [" + activity.Category + "]"
	}
	line += " " + HumanDuration(activity.DurationSeconds)
	if activity.PhoneDetected {
		line += " (phone)"
	}
	return line
}
