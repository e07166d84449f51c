package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// SessionStatus is the server-side lifecycle state of a session.
type SessionStatus string

const (
	StatusActive SessionStatus = "ACTIVE"
	StatusPaused SessionStatus = "PAUSED"
	StatusEnded  SessionStatus = "ENDED"

	statusCompleted SessionStatus = "COMPLETED"
)

// ID identifies a server record. The backend may send it as a number or a string.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*id = ID(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*id = ID(number.String())
	return nil
}

// String returns the identifier in path form.
func (id ID) String() string {
	return string(id)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is an ISO-8601 instant used for display only.
// Values that fail to parse decode to the zero time.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses the timestamp leniently.
func (stamp *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		stamp.Time = time.Time{}
		return nil
	}
	stamp.Time = ParseTimestamp(raw)
	return nil
}

// MarshalJSON writes the timestamp as RFC 3339, or null when unset.
func (stamp Timestamp) MarshalJSON() ([]byte, error) {
	if stamp.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(stamp.Format(time.RFC3339Nano))
}

// ParseTimestamp tries each known layout in turn.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Session is a bounded period of tracked focus time.
type Session struct {
	ID        ID            `json:"id"`
	Name      string        `json:"name"`
	Status    SessionStatus `json:"status"`
	StartTime Timestamp     `json:"startTime"`
	EndTime   Timestamp     `json:"endTime"`
}

type wireSession struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	SessionName string    `json:"sessionName"`
	Status      string    `json:"status"`
	StartTime   Timestamp `json:"startTime"`
	EndTime     Timestamp `json:"endTime"`
}

// UnmarshalJSON tolerates missing fields and the sessionName alias.
func (session *Session) UnmarshalJSON(data []byte) error {
	var wire wireSession
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	name := wire.Name
	if name == "" {
		name = wire.SessionName
	}
	*session = Session{
		ID:        wire.ID,
		Name:      name,
		Status:    ParseStatus(wire.Status),
		StartTime: wire.StartTime,
		EndTime:   wire.EndTime,
	}
	return nil
}

// ParseStatus maps a wire status to a known value. The backend reports an
// ended session as COMPLETED. Unknown values map to "".
func ParseStatus(raw string) SessionStatus {
	switch SessionStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive
	case StatusPaused:
		return StatusPaused
	case StatusEnded, statusCompleted:
		return StatusEnded
	default:
		return ""
	}
}

// IsActive reports whether the session is currently counting time.
func (session *Session) IsActive() bool {
	return session != nil && session.Status == StatusActive
}

// IsPaused reports whether the session is paused.
func (session *Session) IsPaused() bool {
	return session != nil && session.Status == StatusPaused
}

// IsEnded reports whether the session has ended.
func (session *Session) IsEnded() bool {
	return session != nil && session.Status == StatusEnded
}

// IsOpen reports whether the session is active or paused.
func (session *Session) IsOpen() bool {
	return session.IsActive() || session.IsPaused()
}

// Equal compares two sessions field by field. Two nil sessions are equal.
func (session *Session) Equal(other *Session) bool {
	if session == nil || other == nil {
		return session == nil && other == nil
	}
	return session.ID == other.ID &&
		session.Name == other.Name &&
		session.Status == other.Status &&
		session.StartTime.Equal(other.StartTime.Time) &&
		session.EndTime.Equal(other.EndTime.Time)
}

// Clone returns an independent copy.
func (session *Session) Clone() *Session {
	if session == nil {
		return nil
	}
	copied := *session
	return &copied
}

// Elapsed returns how long the session has been running as of now.
func (session *Session) Elapsed(now time.Time) time.Duration {
	if session == nil || session.StartTime.IsZero() {
		return 0
	}
	end := now
	if !session.EndTime.IsZero() {
		end = session.EndTime.Time
	}
	if end.Before(session.StartTime.Time) {
		return 0
	}
	return end.Sub(session.StartTime.Time)
}
