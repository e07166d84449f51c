package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sahilimamk/focustrack/internal/api"
	"github.com/sahilimamk/focustrack/internal/core/model"
	"github.com/sahilimamk/focustrack/internal/core/session"
)

// fakeServer plays the backend: it owns the one open session.
type fakeServer struct {
	mu      sync.Mutex
	current *model.Session
	nextID  int
	calls   []string
	breaks  []bool
	fail    map[string]error
}

func newFakeServer() *fakeServer {
	return &fakeServer{fail: map[string]error{}}
}

func (server *fakeServer) record(call string) error {
	server.calls = append(server.calls, call)
	return server.fail[call]
}

func (server *fakeServer) open(name string) *model.Session {
	server.nextID++
	server.current = &model.Session{ID: model.ID(fmt.Sprint(server.nextID)), Name: name, Status: model.StatusActive}
	return server.current.Clone()
}

func (server *fakeServer) StartPomodoro(context.Context) (*model.Session, error) {
	server.mu.Lock()
	defer server.mu.Unlock()
	if err := server.record("start"); err != nil {
		return nil, err
	}
	return server.open("Pomodoro work"), nil
}

func (server *fakeServer) StartBreak(_ context.Context, longBreak bool) (*model.Session, error) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.breaks = append(server.breaks, longBreak)
	if err := server.record("break"); err != nil {
		return nil, err
	}
	return server.open("Pomodoro break"), nil
}

func (server *fakeServer) setStatus(call string, id model.ID, status model.SessionStatus) (*model.Session, error) {
	server.mu.Lock()
	defer server.mu.Unlock()
	if err := server.record(call); err != nil {
		return nil, err
	}
	if server.current == nil || server.current.ID != id {
		return nil, &api.StatusError{Code: 404}
	}
	server.current.Status = status
	updated := server.current.Clone()
	if status == model.StatusEnded {
		server.current = nil
	}
	return updated, nil
}

func (server *fakeServer) PauseSession(_ context.Context, id model.ID) (*model.Session, error) {
	return server.setStatus("pause", id, model.StatusPaused)
}

func (server *fakeServer) ResumeSession(_ context.Context, id model.ID) (*model.Session, error) {
	return server.setStatus("resume", id, model.StatusActive)
}

func (server *fakeServer) EndSession(_ context.Context, id model.ID) (*model.Session, error) {
	return server.setStatus("end", id, model.StatusEnded)
}

func (server *fakeServer) ActiveSession(context.Context) (*model.Session, error) {
	server.mu.Lock()
	defer server.mu.Unlock()
	if server.current == nil {
		return nil, api.ErrNoActiveSession
	}
	return server.current.Clone(), nil
}

func (server *fakeServer) Durations(context.Context) (model.Durations, error) {
	return model.Durations{}, errors.New("unreachable")
}

func (server *fakeServer) callLog() []string {
	server.mu.Lock()
	defer server.mu.Unlock()
	return append([]string(nil), server.calls...)
}

func (server *fakeServer) breakLog() []bool {
	server.mu.Lock()
	defer server.mu.Unlock()
	return append([]bool(nil), server.breaks...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, durations model.Durations) (*Engine, *fakeServer, *session.Store) {
	t.Helper()
	server := newFakeServer()
	store := session.NewStore(server, quietLogger())
	engine := New(server, store, Config{TickInterval: time.Hour, Durations: durations}, quietLogger())
	t.Cleanup(engine.Stop)
	return engine, server, store
}

func tickN(engine *Engine, n int) {
	for index := 0; index < n; index++ {
		engine.Tick()
	}
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for index := range got {
		if got[index] != want[index] {
			return false
		}
	}
	return true
}

func TestFreshStart(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{})

	if snapshot := engine.Snapshot(); snapshot.State != StateIdle || snapshot.Phase != PhaseWork || snapshot.TimeLeftSeconds != 1500 {
		t.Fatalf("unexpected initial snapshot: %+v", snapshot)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !engine.Snapshot().Running() {
		t.Fatal("expected running engine")
	}
	if current := store.Current(); !current.IsActive() {
		t.Fatalf("expected ACTIVE session, got %+v", current)
	}
	if got := engine.Snapshot().TimeLeftSeconds; got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}
	if calls := server.callLog(); !equalCalls(calls, []string{"start"}) {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestStartAttachesToExistingSession(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{})
	store.Apply(store.Issue(), &model.Session{ID: "99", Status: model.StatusActive})

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if calls := server.callLog(); len(calls) != 0 {
		t.Fatalf("expected no remote calls, got %v", calls)
	}
}

func TestStartFailureStaysIdle(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{})
	server.fail["start"] = errors.New("backend down")

	if err := engine.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if snapshot := engine.Snapshot(); snapshot.State != StateIdle {
		t.Fatalf("expected idle, got %+v", snapshot)
	}
	if store.Current() != nil {
		t.Fatal("no session should be held after a failed start")
	}
}

func TestPauseResumePreservesTimeLeft(t *testing.T) {
	engine, _, store := newTestEngine(t, model.Durations{})
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(engine, 3)

	if err := engine.Pause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	snapshot := engine.Snapshot()
	if snapshot.State != StatePaused || snapshot.Running() {
		t.Fatalf("expected paused, got %+v", snapshot)
	}
	if !store.Current().IsPaused() {
		t.Fatalf("expected PAUSED session, got %+v", store.Current())
	}

	tickN(engine, 5)
	if got := engine.Snapshot().TimeLeftSeconds; got != 1497 {
		t.Fatalf("ticks while paused changed time: %d", got)
	}

	if err := engine.Resume(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	snapshot = engine.Snapshot()
	if !snapshot.Running() || snapshot.TimeLeftSeconds != 1497 {
		t.Fatalf("unexpected snapshot after resume: %+v", snapshot)
	}
	if !store.Current().IsActive() {
		t.Fatalf("expected ACTIVE session, got %+v", store.Current())
	}
}

func TestPauseFailureKeepsRunning(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{})
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	server.fail["pause"] = errors.New("timeout")

	if err := engine.Pause(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !engine.Snapshot().Running() {
		t.Fatal("engine should keep running after failed pause")
	}
	if !store.Current().IsActive() {
		t.Fatal("session should stay ACTIVE after failed pause")
	}
}

func TestStartWhilePausedResumes(t *testing.T) {
	engine, _, _ := newTestEngine(t, model.Durations{})
	_ = engine.Start(context.Background())
	_ = engine.Pause(context.Background())

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !engine.Snapshot().Running() {
		t.Fatal("expected running")
	}
}

func TestMonotonicCountdown(t *testing.T) {
	const work = 10
	for n := 0; n < work; n++ {
		t.Run(fmt.Sprintf("%d ticks", n), func(t *testing.T) {
			engine, _, _ := newTestEngine(t, model.Durations{WorkSeconds: work, BreakSeconds: 5})
			if err := engine.Start(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}
			tickN(engine, n)
			if got := engine.Snapshot().TimeLeftSeconds; got != work-n {
				t.Fatalf("expected %d, got %d", work-n, got)
			}
		})
	}
}

func TestCountdownExhaustionTransitionsToBreak(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{WorkSeconds: 3, BreakSeconds: 2})
	events := engine.Subscribe(32)

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(engine, 3)

	snapshot := engine.Snapshot()
	if snapshot.Phase != PhaseBreak || snapshot.TimeLeftSeconds != 2 || snapshot.CompletedWorkPhases != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.Running() {
		t.Fatal("engine should stop after phase completion")
	}
	if calls := server.callLog(); !equalCalls(calls, []string{"start", "end", "break"}) {
		t.Fatalf("unexpected calls: %v", calls)
	}
	if breaks := server.breakLog(); len(breaks) != 1 || breaks[0] {
		t.Fatalf("expected one short break, got %v", breaks)
	}
	if current := store.Current(); current == nil || current.Name != "Pomodoro break" {
		t.Fatalf("expected break session in store, got %+v", current)
	}

	engine.Stop()
	sawComplete := false
	for event := range events {
		if event.Snapshot.TimeLeftSeconds < 0 {
			t.Fatalf("negative time observed: %+v", event)
		}
		if event.Snapshot.Running() && event.Snapshot.TimeLeftSeconds == 0 {
			t.Fatalf("running with zero time observed: %+v", event)
		}
		if event.Type == EventPhaseComplete {
			sawComplete = true
			if event.Message != string(PhaseWork) || event.Snapshot.Phase != PhaseBreak {
				t.Fatalf("unexpected completion event: %+v", event)
			}
		}
	}
	if !sawComplete {
		t.Fatal("expected a phase completion event")
	}
}

func TestEveryFourthBreakIsLong(t *testing.T) {
	engine, server, _ := newTestEngine(t, model.Durations{WorkSeconds: 2, BreakSeconds: 1})

	for cycle := 1; cycle <= 8; cycle++ {
		if err := engine.Start(context.Background()); err != nil {
			t.Fatalf("cycle %d start work: %v", cycle, err)
		}
		tickN(engine, 2)

		snapshot := engine.Snapshot()
		if snapshot.CompletedWorkPhases != cycle || snapshot.Phase != PhaseBreak {
			t.Fatalf("cycle %d: unexpected snapshot %+v", cycle, snapshot)
		}
		if snapshot.LongBreak != (cycle%4 == 0) {
			t.Fatalf("cycle %d: long break = %v", cycle, snapshot.LongBreak)
		}

		if err := engine.Start(context.Background()); err != nil {
			t.Fatalf("cycle %d start break: %v", cycle, err)
		}
		tickN(engine, 1)
		if snapshot := engine.Snapshot(); snapshot.Phase != PhaseWork || snapshot.TimeLeftSeconds != 2 {
			t.Fatalf("cycle %d: expected work phase, got %+v", cycle, snapshot)
		}
	}

	want := []bool{false, false, false, true, false, false, false, true}
	breaks := server.breakLog()
	if len(breaks) != len(want) {
		t.Fatalf("expected %d break requests, got %v", len(want), breaks)
	}
	for index := range want {
		if breaks[index] != want[index] {
			t.Fatalf("break %d: longBreak=%v, want %v", index+1, breaks[index], want[index])
		}
	}
}

func TestPhaseCompletionToleratesRemoteFailure(t *testing.T) {
	engine, server, _ := newTestEngine(t, model.Durations{WorkSeconds: 1, BreakSeconds: 1})
	events := engine.Subscribe(16)
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	server.fail["break"] = errors.New("backend down")

	engine.Tick()
	if snapshot := engine.Snapshot(); snapshot.Phase != PhaseBreak || snapshot.CompletedWorkPhases != 1 {
		t.Fatalf("local transition should happen regardless: %+v", snapshot)
	}

	engine.Stop()
	sawError := false
	for event := range events {
		if event.Type == EventRemoteError {
			sawError = true
		}
	}
	if !sawError {
		t.Fatal("expected a remote error event")
	}
}

func TestResetEndsSession(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{})
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(engine, 10)

	if err := engine.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	snapshot := engine.Snapshot()
	if snapshot.State != StateIdle || snapshot.TimeLeftSeconds != 1500 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if store.Current() != nil {
		t.Fatalf("expected no session, got %+v", store.Current())
	}
	if calls := server.callLog(); !equalCalls(calls, []string{"start", "end"}) {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestResetInBreakLoadsBreakDuration(t *testing.T) {
	engine, _, _ := newTestEngine(t, model.Durations{WorkSeconds: 2, BreakSeconds: 7})
	_ = engine.Start(context.Background())
	tickN(engine, 2)
	_ = engine.Start(context.Background())
	tickN(engine, 3)

	if err := engine.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if snapshot := engine.Snapshot(); snapshot.Phase != PhaseBreak || snapshot.TimeLeftSeconds != 7 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestResetReportsEndFailure(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{})
	_ = engine.Start(context.Background())
	server.fail["end"] = errors.New("backend down")

	if err := engine.Reset(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if engine.Snapshot().State != StateIdle {
		t.Fatal("local reset should still happen")
	}
	if !store.Current().IsActive() {
		t.Fatal("session should be left as it was")
	}
}

func TestSessionEndedElsewhereResetsWork(t *testing.T) {
	engine, server, store := newTestEngine(t, model.Durations{WorkSeconds: 60, BreakSeconds: 10})
	events := store.Subscribe(4)
	engine.Follow(events)
	observed := engine.Subscribe(8)

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(engine, 5)
	if _, err := server.EndSession(context.Background(), store.Current().ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	store.Refresh(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-observed:
			if event.Type == EventStateChange && event.Snapshot.State == StateIdle {
				if event.Snapshot.Phase != PhaseWork || event.Snapshot.TimeLeftSeconds != 60 {
					t.Fatalf("unexpected reset snapshot: %+v", event.Snapshot)
				}
				tickN(engine, 60)
				if calls := server.callLog(); !equalCalls(calls, []string{"start", "end"}) {
					t.Fatalf("idle engine made calls: %v", calls)
				}
				return
			}
		case <-deadline:
			t.Fatalf("engine kept running after the session ended: %+v", engine.Snapshot())
		}
	}
}

func TestSessionChangedLeavesBreakAndHeldSessionsAlone(t *testing.T) {
	engine, _, store := newTestEngine(t, model.Durations{WorkSeconds: 2, BreakSeconds: 30})
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	engine.SessionChanged()
	if !engine.Snapshot().Running() {
		t.Fatal("held session must not reset the countdown")
	}

	tickN(engine, 2)
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start break: %v", err)
	}
	store.Apply(store.Issue(), nil)
	engine.SessionChanged()
	if snapshot := engine.Snapshot(); !snapshot.Running() || snapshot.Phase != PhaseBreak {
		t.Fatalf("break countdown should keep running: %+v", snapshot)
	}
}

func TestTickLoopDrivesCountdown(t *testing.T) {
	server := newFakeServer()
	store := session.NewStore(server, quietLogger())
	engine := New(server, store, Config{TickInterval: 2 * time.Millisecond, Durations: model.Durations{WorkSeconds: 3, BreakSeconds: 1}}, quietLogger())
	defer engine.Stop()
	events := engine.Subscribe(64)

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type == EventPhaseComplete {
				if snapshot := engine.Snapshot(); snapshot.Phase != PhaseBreak || snapshot.Running() {
					t.Fatalf("unexpected snapshot: %+v", snapshot)
				}
				return
			}
		case <-timeout:
			t.Fatalf("countdown did not complete: %+v", engine.Snapshot())
		}
	}
}

func TestStopIsFinal(t *testing.T) {
	engine, _, _ := newTestEngine(t, model.Durations{})
	events := engine.Subscribe(1)
	engine.Stop()
	engine.Stop()

	if _, ok := <-events; ok {
		t.Fatal("expected closed channel")
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start after stop: %v", err)
	}
	if engine.Snapshot().Running() {
		t.Fatal("stopped engine must not run")
	}
}

func TestLoadDurationsFallback(t *testing.T) {
	if got := LoadDurations(context.Background(), newFakeServer(), quietLogger()); got != model.DefaultDurations() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got := LoadDurations(context.Background(), fixedDurations{WorkSeconds: 60, BreakSeconds: 0}, quietLogger()); got.WorkSeconds != 60 || got.BreakSeconds != 300 {
		t.Fatalf("unexpected durations: %+v", got)
	}
}

type fixedDurations model.Durations

func (durations fixedDurations) Durations(context.Context) (model.Durations, error) {
	return model.Durations(durations), nil
}

func TestFormat(t *testing.T) {
	tests := map[int]string{
		1500: "25:00",
		300:  "05:00",
		61:   "01:01",
		9:    "00:09",
		0:    "00:00",
		-4:   "00:00",
		6000: "100:00",
	}
	for seconds, want := range tests {
		if got := Format(seconds); got != want {
			t.Errorf("Format(%d) = %q, want %q", seconds, got, want)
		}
	}
}
