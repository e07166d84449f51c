package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sahilimamk/focustrack/internal/core/model"
	"github.com/sahilimamk/focustrack/internal/core/session"
)

// ErrBusy is returned while a previous command is still waiting on the backend.
var ErrBusy = errors.New("pomodoro command already in progress")

// LongBreakEvery is the number of completed work phases that earn a long break.
const LongBreakEvery = 4

// Backend is the subset of the HTTP contract the engine drives.
type Backend interface {
	StartPomodoro(ctx context.Context) (*model.Session, error)
	StartBreak(ctx context.Context, longBreak bool) (*model.Session, error)
	PauseSession(ctx context.Context, id model.ID) (*model.Session, error)
	ResumeSession(ctx context.Context, id model.ID) (*model.Session, error)
	EndSession(ctx context.Context, id model.ID) (*model.Session, error)
}

// Sessions is the canonical session holder, satisfied by session.Store.
type Sessions interface {
	Current() *model.Session
	Issue() session.Ticket
	Apply(ticket session.Ticket, current *model.Session)
	Refresh(ctx context.Context) *model.Session
}

// Config contains runtime options for the Engine.
type Config struct {
	TickInterval time.Duration
	Durations    model.Durations
}

// Engine is a countdown clock plus a work/break phase machine.
type Engine struct {
	mu        sync.Mutex
	backend   Backend
	sessions  Sessions
	logger    *slog.Logger
	options   Config
	durations model.Durations

	state     State
	phase     Phase
	longBreak bool
	timeLeft  int
	completed int
	busy      bool

	events     []chan Event
	ctx        context.Context
	shutdown   context.CancelFunc
	tickCancel context.CancelFunc
	generation uint64
	loops      sync.WaitGroup
	stopped    bool
}

// New creates an idle Engine with the work duration loaded.
func New(backend Backend, sessions Sessions, options Config, logger *slog.Logger) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	durations := options.Durations.Normalized()

	return &Engine{
		backend:   backend,
		sessions:  sessions,
		logger:    logger,
		options:   options,
		durations: durations,
		state:     StateIdle,
		phase:     PhaseWork,
		timeLeft:  durations.WorkSeconds,
		ctx:       ctx,
		shutdown:  cancel,
	}
}

// Subscribe registers a new observer channel.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.stopped {
		close(ch)
		return ch
	}
	engine.events = append(engine.events, ch)
	return ch
}

// Snapshot returns the current cycle state.
func (engine *Engine) Snapshot() Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked()
}

// Start begins the countdown. From idle in the work phase with no open
// session, a work session is requested first; if that fails the engine stays
// idle. Starting a paused engine resumes it.
func (engine *Engine) Start(ctx context.Context) error {
	engine.mu.Lock()
	switch {
	case engine.stopped || engine.state == StateRunning:
		engine.mu.Unlock()
		return nil
	case engine.state == StatePaused:
		engine.mu.Unlock()
		return engine.Resume(ctx)
	case engine.busy:
		engine.mu.Unlock()
		return ErrBusy
	}
	engine.busy = true
	needsSession := engine.phase == PhaseWork
	engine.mu.Unlock()

	if needsSession && engine.sessions.Current() == nil {
		ticket := engine.sessions.Issue()
		opened, err := engine.backend.StartPomodoro(ctx)
		if err != nil {
			engine.release()
			return fmt.Errorf("start work session: %w", err)
		}
		engine.sessions.Apply(ticket, opened)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.busy = false
	if engine.stopped || engine.state != StateIdle {
		return nil
	}
	engine.state = StateRunning
	engine.startTickLocked()
	engine.emitLocked(EventStateChange, "")
	return nil
}

// Pause stops the countdown, preserving the remaining time. An active remote
// session is paused first; on failure the engine keeps running.
func (engine *Engine) Pause(ctx context.Context) error {
	if !engine.acquire(StateRunning) {
		return engine.busyErr(StateRunning)
	}

	if current := engine.sessions.Current(); current.IsActive() {
		ticket := engine.sessions.Issue()
		paused, err := engine.backend.PauseSession(ctx, current.ID)
		if err != nil {
			engine.release()
			return fmt.Errorf("pause session: %w", err)
		}
		engine.sessions.Apply(ticket, paused)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.busy = false
	if engine.state != StateRunning {
		return nil
	}
	engine.state = StatePaused
	engine.stopTickLocked()
	engine.emitLocked(EventStateChange, "")
	return nil
}

// Resume restarts a paused countdown. A paused remote session is resumed
// first; on failure the engine stays paused.
func (engine *Engine) Resume(ctx context.Context) error {
	if !engine.acquire(StatePaused) {
		return engine.busyErr(StatePaused)
	}

	if current := engine.sessions.Current(); current.IsPaused() {
		ticket := engine.sessions.Issue()
		resumed, err := engine.backend.ResumeSession(ctx, current.ID)
		if err != nil {
			engine.release()
			return fmt.Errorf("resume session: %w", err)
		}
		engine.sessions.Apply(ticket, resumed)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.busy = false
	if engine.stopped || engine.state != StatePaused {
		return nil
	}
	engine.state = StateRunning
	engine.startTickLocked()
	engine.emitLocked(EventStateChange, "")
	return nil
}

// Reset returns to idle with the current phase's full duration loaded and
// ends any open remote session. The local reset always happens.
func (engine *Engine) Reset(ctx context.Context) error {
	engine.mu.Lock()
	if engine.busy {
		engine.mu.Unlock()
		return ErrBusy
	}
	engine.stopTickLocked()
	engine.state = StateIdle
	engine.timeLeft = engine.phaseDurationLocked()
	engine.emitLocked(EventStateChange, "")
	engine.busy = true
	engine.mu.Unlock()
	defer engine.release()

	current := engine.sessions.Current()
	if !current.IsOpen() {
		return nil
	}
	ticket := engine.sessions.Issue()
	if _, err := engine.backend.EndSession(ctx, current.ID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	engine.sessions.Apply(ticket, nil)
	return nil
}

// Tick advances the countdown by one second. Reaching zero completes the
// phase before any observer sees the new state.
func (engine *Engine) Tick() {
	engine.advance(0, false)
}

// Stop cancels the countdown loop, waits for it to exit and closes observers.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	if engine.stopped {
		engine.mu.Unlock()
		return
	}
	engine.stopped = true
	engine.stopTickLocked()
	engine.mu.Unlock()

	engine.shutdown()
	engine.loops.Wait()

	engine.mu.Lock()
	events := engine.events
	engine.events = nil
	engine.mu.Unlock()
	for _, ch := range events {
		close(ch)
	}
}

// Follow watches store events until events closes or the engine stops, and
// calls SessionChanged for each one.
func (engine *Engine) Follow(events <-chan session.Event) {
	engine.mu.Lock()
	if engine.stopped {
		engine.mu.Unlock()
		return
	}
	engine.loops.Add(1)
	engine.mu.Unlock()

	go func() {
		defer engine.loops.Done()
		for {
			select {
			case <-engine.ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				engine.SessionChanged()
			}
		}
	}()
}

// SessionChanged returns a running or paused work countdown to idle when the
// store no longer holds a session, because it was ended elsewhere or a poll
// found none. Changes made by the engine's own remote calls are ignored.
func (engine *Engine) SessionChanged() {
	if engine.sessions.Current() != nil {
		return
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.busy || engine.stopped || engine.phase != PhaseWork || engine.state == StateIdle {
		return
	}
	engine.stopTickLocked()
	engine.state = StateIdle
	engine.timeLeft = engine.durations.WorkSeconds
	engine.logger.Info("session ended outside the timer, countdown reset")
	engine.emitLocked(EventStateChange, "session ended")
}

func (engine *Engine) advance(generation uint64, fromLoop bool) {
	engine.mu.Lock()
	if engine.state != StateRunning || (fromLoop && generation != engine.generation) {
		engine.mu.Unlock()
		return
	}

	engine.timeLeft--
	if engine.timeLeft > 0 {
		engine.emitLocked(EventTick, "")
		engine.mu.Unlock()
		return
	}

	finished := engine.completePhaseLocked()
	next := engine.snapshotLocked()
	engine.emitLocked(EventPhaseComplete, string(finished))
	engine.busy = true
	engine.mu.Unlock()

	engine.syncPhaseRemote(next)
}

// completePhaseLocked stops the countdown and loads the next phase.
func (engine *Engine) completePhaseLocked() Phase {
	finished := engine.phase
	engine.stopTickLocked()
	engine.state = StateIdle

	if finished == PhaseWork {
		engine.completed++
		engine.phase = PhaseBreak
		engine.longBreak = engine.completed > 0 && engine.completed%LongBreakEvery == 0
		engine.timeLeft = engine.durations.BreakSeconds
	} else {
		engine.phase = PhaseWork
		engine.longBreak = false
		engine.timeLeft = engine.durations.WorkSeconds
	}
	return finished
}

// syncPhaseRemote ends the finished phase's session, opens the next one and
// refreshes the store.
func (engine *Engine) syncPhaseRemote(next Snapshot) {
	defer engine.release()
	ctx := engine.ctx

	if current := engine.sessions.Current(); current.IsOpen() {
		ticket := engine.sessions.Issue()
		if _, err := engine.backend.EndSession(ctx, current.ID); err != nil {
			engine.remoteError("end finished session", err)
		} else {
			engine.sessions.Apply(ticket, nil)
		}
	}

	ticket := engine.sessions.Issue()
	var (
		opened *model.Session
		err    error
	)
	if next.Phase == PhaseBreak {
		opened, err = engine.backend.StartBreak(ctx, next.LongBreak)
	} else {
		opened, err = engine.backend.StartPomodoro(ctx)
	}
	if err != nil {
		engine.remoteError("open "+string(next.Phase)+" session", err)
	} else {
		engine.sessions.Apply(ticket, opened)
	}

	engine.sessions.Refresh(ctx)
}

func (engine *Engine) remoteError(action string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	engine.logger.Warn("pomodoro remote call failed", "action", action, "error", err)
	engine.mu.Lock()
	engine.emitLocked(EventRemoteError, fmt.Sprintf("%s: %v", action, err))
	engine.mu.Unlock()
}

// acquire marks the engine busy if it is in the wanted state.
func (engine *Engine) acquire(want State) bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.busy || engine.stopped || engine.state != want {
		return false
	}
	engine.busy = true
	return true
}

// busyErr explains a failed acquire. Wrong-state calls are no-ops.
func (engine *Engine) busyErr(want State) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.busy && engine.state == want {
		return ErrBusy
	}
	return nil
}

func (engine *Engine) release() {
	engine.mu.Lock()
	engine.busy = false
	engine.mu.Unlock()
}

func (engine *Engine) startTickLocked() {
	engine.stopTickLocked()
	engine.generation++
	generation := engine.generation
	runCtx, cancel := context.WithCancel(engine.ctx)
	engine.tickCancel = cancel

	engine.loops.Add(1)
	go engine.run(runCtx, generation)
}

func (engine *Engine) stopTickLocked() {
	if engine.tickCancel != nil {
		engine.tickCancel()
		engine.tickCancel = nil
	}
	engine.generation++
}

func (engine *Engine) run(ctx context.Context, generation uint64) {
	defer engine.loops.Done()

	ticker := time.NewTicker(engine.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.advance(generation, true)
		}
	}
}

func (engine *Engine) phaseDurationLocked() int {
	if engine.phase == PhaseBreak {
		return engine.durations.BreakSeconds
	}
	return engine.durations.WorkSeconds
}

func (engine *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		State:                engine.state,
		Phase:                engine.phase,
		LongBreak:            engine.longBreak,
		TimeLeftSeconds:      engine.timeLeft,
		CompletedWorkPhases:  engine.completed,
		WorkDurationSeconds:  engine.durations.WorkSeconds,
		BreakDurationSeconds: engine.durations.BreakSeconds,
	}
}

func (engine *Engine) emitLocked(eventType EventType, message string) {
	event := Event{
		Type:     eventType,
		Snapshot: engine.snapshotLocked(),
		Message:  message,
		At:       time.Now(),
	}
	for _, ch := range engine.events {
		select {
		case ch <- event:
		default:
		}
	}
}
