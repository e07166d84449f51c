package model

// ReportPeriod names the aggregation window of a report.
type ReportPeriod string

const (
	PeriodDaily  ReportPeriod = "daily"
	PeriodWeekly ReportPeriod = "weekly"
)

// AppUsage is a per-application line of a report. Percentage is the share of
// all tracked time, 0-100.
type AppUsage struct {
	AppName         string  `json:"appName"`
	DurationSeconds int64   `json:"durationSeconds"`
	Percentage      float64 `json:"percentage"`
}

// ReportSnapshot is a server-aggregated productivity report. The client only
// formats it.
type ReportSnapshot struct {
	Period             ReportPeriod `json:"-"`
	ReportDate         Timestamp    `json:"reportDate"`
	FocusSeconds       int64        `json:"totalFocusTimeSeconds"`
	DistractedSeconds  int64        `json:"totalDistractedTimeSeconds"`
	NeutralSeconds     int64        `json:"totalNeutralTimeSeconds"`
	ProductivityScore  float64      `json:"productivityScore"`
	DistractionScore   float64      `json:"distractionScore"`
	TopApps            []AppUsage   `json:"topApps"`
	TopDistractingApps []AppUsage   `json:"topDistractingApps"`
	TopProductiveApps  []AppUsage   `json:"topProductiveApps"`
	ConsistencyRating  int64        `json:"consistencyRating"`
}

// TrackedSeconds is the sum of focused, distracted and neutral time.
func (snapshot *ReportSnapshot) TrackedSeconds() int64 {
	if snapshot == nil {
		return 0
	}
	return snapshot.FocusSeconds + snapshot.DistractedSeconds + snapshot.NeutralSeconds
}
