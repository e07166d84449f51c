package session

import (
	"time"

	"github.com/sahilimamk/focustrack/internal/core/model"
)

// Event notifies observers that the held session changed.
type Event struct {
	Session *model.Session
	Source  Source
	Ticket  Ticket
	At      time.Time
}
