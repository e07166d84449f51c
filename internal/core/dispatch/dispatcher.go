package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/sahilimamk/focustrack/internal/core/model"
	"github.com/sahilimamk/focustrack/internal/core/session"
)

var (
	ErrSessionExists = errors.New("a session is already open")
	ErrNoSession     = errors.New("no active session")
	ErrNotActive     = errors.New("session is not active")
	ErrAlreadyActive = errors.New("session is already active")
	ErrEmptyName     = errors.New("session name is required")
	ErrUnknown       = errors.New("unknown command")
)

// Command names a user intent.
type Command string

const (
	CommandStart  Command = "start"
	CommandEnd    Command = "end"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
)

// API is the session half of the HTTP contract.
type API interface {
	CreateSession(ctx context.Context, name string) (*model.Session, error)
	EndSession(ctx context.Context, id model.ID) (*model.Session, error)
	PauseSession(ctx context.Context, id model.ID) (*model.Session, error)
	ResumeSession(ctx context.Context, id model.ID) (*model.Session, error)
}

// Sessions is the canonical session holder, satisfied by session.Store.
type Sessions interface {
	Current() *model.Session
	Issue() session.Ticket
	Apply(ticket session.Ticket, current *model.Session)
	Refresh(ctx context.Context) *model.Session
}

// Cache holds data derived from the open session.
type Cache interface {
	Clear()
}

// Dispatcher turns commands into exactly one remote call each and applies the
// authoritative response. Calls are single-shot; failures leave state alone.
type Dispatcher struct {
	api      API
	sessions Sessions
	cache    Cache
	logger   *slog.Logger
	pending  atomic.Int32
}

// New creates a Dispatcher. cache may be nil.
func New(api API, sessions Sessions, cache Cache, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{api: api, sessions: sessions, cache: cache, logger: logger}
}

// Pending reports whether a command is waiting on the backend.
func (dispatcher *Dispatcher) Pending() bool {
	return dispatcher.pending.Load() > 0
}

// Dispatch runs command by name. name is only used by CommandStart.
func (dispatcher *Dispatcher) Dispatch(ctx context.Context, command Command, name string) error {
	switch command {
	case CommandStart:
		return dispatcher.StartSession(ctx, name)
	case CommandEnd:
		return dispatcher.EndSession(ctx)
	case CommandPause:
		return dispatcher.PauseSession(ctx)
	case CommandResume:
		return dispatcher.ResumeSession(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknown, command)
	}
}

// StartSession opens a named session when none is open.
func (dispatcher *Dispatcher) StartSession(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if dispatcher.sessions.Current() != nil {
		return ErrSessionExists
	}
	return dispatcher.run(ctx, CommandStart, func(ticket session.Ticket) error {
		created, err := dispatcher.api.CreateSession(ctx, name)
		if err != nil {
			return err
		}
		dispatcher.sessions.Apply(ticket, created)
		return nil
	})
}

// EndSession ends the open session and drops cached reports and activities.
func (dispatcher *Dispatcher) EndSession(ctx context.Context) error {
	current := dispatcher.sessions.Current()
	if current == nil {
		return ErrNoSession
	}
	return dispatcher.run(ctx, CommandEnd, func(ticket session.Ticket) error {
		if _, err := dispatcher.api.EndSession(ctx, current.ID); err != nil {
			return err
		}
		dispatcher.sessions.Apply(ticket, nil)
		if dispatcher.cache != nil {
			dispatcher.cache.Clear()
		}
		return nil
	})
}

// PauseSession pauses the open session when it is active.
func (dispatcher *Dispatcher) PauseSession(ctx context.Context) error {
	current := dispatcher.sessions.Current()
	if current == nil {
		return ErrNoSession
	}
	if !current.IsActive() {
		return ErrNotActive
	}
	return dispatcher.run(ctx, CommandPause, func(ticket session.Ticket) error {
		updated, err := dispatcher.api.PauseSession(ctx, current.ID)
		if err != nil {
			return err
		}
		dispatcher.applyUpdated(ticket, updated)
		return nil
	})
}

// ResumeSession resumes the open session when it is not active.
func (dispatcher *Dispatcher) ResumeSession(ctx context.Context) error {
	current := dispatcher.sessions.Current()
	if current == nil {
		return ErrNoSession
	}
	if current.IsActive() {
		return ErrAlreadyActive
	}
	return dispatcher.run(ctx, CommandResume, func(ticket session.Ticket) error {
		updated, err := dispatcher.api.ResumeSession(ctx, current.ID)
		if err != nil {
			return err
		}
		dispatcher.applyUpdated(ticket, updated)
		return nil
	})
}

// applyUpdated skips empty response bodies; the follow-up refresh covers them.
func (dispatcher *Dispatcher) applyUpdated(ticket session.Ticket, updated *model.Session) {
	if updated == nil {
		return
	}
	dispatcher.sessions.Apply(ticket, updated)
}

func (dispatcher *Dispatcher) run(ctx context.Context, command Command, call func(session.Ticket) error) error {
	dispatcher.pending.Add(1)
	defer dispatcher.pending.Add(-1)

	ticket := dispatcher.sessions.Issue()
	if err := call(ticket); err != nil {
		dispatcher.logger.Warn("session command failed", "command", command, "error", err)
		return fmt.Errorf("%s session: %w", command, err)
	}
	dispatcher.logger.Info("session command applied", "command", command, "ticket", ticket)
	dispatcher.sessions.Refresh(ctx)
	return nil
}
