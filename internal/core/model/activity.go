package model

import "encoding/json"

// Activity is a server-recorded interval of app or window usage.
type Activity struct {
	ID              ID
	AppName         string
	WindowTitle     string
	Category        string
	DurationSeconds int64
	PhoneDetected   bool
}

// wireActivity covers both the current shape (category) and the legacy shape (type).
type wireActivity struct {
	ID              ID     `json:"id"`
	AppName         string `json:"appName"`
	WindowTitle     string `json:"windowTitle"`
	Category        string `json:"category"`
	Type            string `json:"type"`
	DurationSeconds *int64 `json:"durationSeconds"`
	Duration        *int64 `json:"duration"`
	PhoneDetected   *bool  `json:"phoneDetected"`
}

// UnmarshalJSON normalises either wire shape into the canonical form.
func (activity *Activity) UnmarshalJSON(data []byte) error {
	var wire wireActivity
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	category := wire.Category
	if category == "" {
		category = wire.Type
	}
	var duration int64
	switch {
	case wire.DurationSeconds != nil:
		duration = *wire.DurationSeconds
	case wire.Duration != nil:
		duration = *wire.Duration
	}
	if duration < 0 {
		duration = 0
	}
	*activity = Activity{
		ID:              wire.ID,
		AppName:         wire.AppName,
		WindowTitle:     wire.WindowTitle,
		Category:        category,
		DurationSeconds: duration,
		PhoneDetected:   wire.PhoneDetected != nil && *wire.PhoneDetected,
	}
	return nil
}

// MarshalJSON writes the canonical shape.
func (activity Activity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID              ID     `json:"id"`
		AppName         string `json:"appName"`
		WindowTitle     string `json:"windowTitle"`
		Category        string `json:"category"`
		DurationSeconds int64  `json:"durationSeconds"`
		PhoneDetected   bool   `json:"phoneDetected"`
	}{activity.ID, activity.AppName, activity.WindowTitle, activity.Category, activity.DurationSeconds, activity.PhoneDetected})
}

// SessionDetail is a session together with its recorded activities.
type SessionDetail struct {
	Session
	Activities []Activity
}

// UnmarshalJSON decodes the session fields and the activities list separately,
// since Session carries its own decoder.
func (detail *SessionDetail) UnmarshalJSON(data []byte) error {
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	var rest struct {
		Activities []Activity `json:"activities"`
	}
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	*detail = SessionDetail{Session: session, Activities: rest.Activities}
	return nil
}

// RecentActivities returns up to limit activities, newest first.
// The server lists activities oldest first.
func RecentActivities(activities []Activity, limit int) []Activity {
	if limit <= 0 || len(activities) == 0 {
		return nil
	}
	start := len(activities) - limit
	if start < 0 {
		start = 0
	}
	recent := make([]Activity, 0, len(activities)-start)
	for index := len(activities) - 1; index >= start; index-- {
		recent = append(recent, activities[index])
	}
	return recent
}
