package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sahilimamk/focustrack/internal/api"
	"github.com/sahilimamk/focustrack/internal/core/model"
)

// Fetcher reads the currently open session from the backend.
type Fetcher interface {
	ActiveSession(ctx context.Context) (*model.Session, error)
}

// Store holds the single canonical active session.
type Store struct {
	mu         sync.Mutex
	fetcher    Fetcher
	logger     *slog.Logger
	reconciler Reconciler
	current    *model.Session
	events     []chan Event
	closed     bool
}

// NewStore creates an empty Store.
func NewStore(fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fetcher: fetcher, logger: logger}
}

// Current returns a copy of the best-known session, or nil when none is open.
func (store *Store) Current() *model.Session {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.current.Clone()
}

// Issue stamps the logical time of an action about to be sent.
func (store *Store) Issue() Ticket {
	return store.reconciler.Issue()
}

// Refresh fetches the active session. Any failure, including "no active
// session", is treated as absent. A refresh whose ctx is cancelled or expired
// changes nothing. The result is discarded if an action issued after this
// refresh has already been applied.
func (store *Store) Refresh(ctx context.Context) *model.Session {
	ticket := store.reconciler.Issue()
	session, err := store.fetcher.ActiveSession(ctx)
	if ctx.Err() != nil {
		store.logger.Debug("refresh abandoned", "error", ctx.Err())
		return store.Current()
	}
	if err != nil {
		session = nil
		switch {
		case errors.Is(err, api.ErrNoActiveSession):
			store.logger.Debug("no active session")
		default:
			store.logger.Warn("refresh active session", "error", err)
		}
	}
	store.offer(SourcePoll, ticket, session)
	return store.Current()
}

// Apply overwrites the session with an authoritative action result.
func (store *Store) Apply(ticket Ticket, session *model.Session) {
	store.offer(SourceAction, ticket, session)
}

// Subscribe registers a new observer channel.
func (store *Store) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		close(ch)
		return ch
	}
	store.events = append(store.events, ch)
	return ch
}

// Close closes all observer channels.
func (store *Store) Close() {
	store.mu.Lock()
	if store.closed {
		store.mu.Unlock()
		return
	}
	store.closed = true
	events := store.events
	store.events = nil
	store.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (store *Store) offer(source Source, ticket Ticket, session *model.Session) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if !store.reconciler.Accept(source, ticket) {
		store.logger.Debug("discarded stale session update", "source", source, "ticket", ticket, "watermark", store.reconciler.Watermark())
		return
	}
	if session != nil && session.IsEnded() {
		session = nil
	}
	if store.current.Equal(session) {
		return
	}
	store.current = session.Clone()
	store.emitLocked(Event{
		Session: store.current.Clone(),
		Source:  source,
		Ticket:  ticket,
		At:      time.Now(),
	})
}

func (store *Store) emitLocked(event Event) {
	for _, ch := range store.events {
		select {
		case ch <- event:
		default:
		}
	}
}
