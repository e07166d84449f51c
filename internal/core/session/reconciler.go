package session

import "sync/atomic"

// Ticket is the logical time at which a read or an action was issued.
type Ticket uint64

// Source identifies where an update came from.
type Source string

const (
	SourcePoll   Source = "poll"
	SourceAction Source = "action"
)

// Reconciler orders updates from the poll loop and from action responses.
//
// Actions are always accepted and raise the watermark to their ticket. A poll
// is accepted only when its ticket is newer than the watermark, so a poll
// issued before an action can never overwrite that action's result.
type Reconciler struct {
	next      atomic.Uint64
	watermark Ticket
}

// Issue returns a new, strictly increasing ticket.
func (reconciler *Reconciler) Issue() Ticket {
	return Ticket(reconciler.next.Add(1))
}

// Accept decides whether an update may be applied and advances the watermark
// when it is. Callers must serialise calls to Accept.
func (reconciler *Reconciler) Accept(source Source, ticket Ticket) bool {
	if source == SourceAction {
		if ticket > reconciler.watermark {
			reconciler.watermark = ticket
		}
		return true
	}
	if ticket <= reconciler.watermark {
		return false
	}
	reconciler.watermark = ticket
	return true
}

// Watermark returns the ticket of the newest applied update.
func (reconciler *Reconciler) Watermark() Ticket {
	return reconciler.watermark
}
