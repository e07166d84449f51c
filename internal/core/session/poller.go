package session

import (
	"context"
	"sync"
	"time"

	"github.com/sahilimamk/focustrack/internal/core/model"
)

// DefaultPollInterval is the active-session refresh cadence.
const DefaultPollInterval = 5 * time.Second

// Refresher is satisfied by Store.
type Refresher interface {
	Refresh(ctx context.Context) *model.Session
}

// Poller refreshes a Store on a fixed interval while started.
type Poller struct {
	mu       sync.Mutex
	target   Refresher
	interval time.Duration
	parent   context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(target Refresher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{target: target, interval: interval}
}

// Start refreshes immediately and then on every interval until Stop is called
// or ctx is done. Starting a running poller is a no-op.
func (poller *Poller) Start(ctx context.Context) {
	poller.mu.Lock()
	defer poller.mu.Unlock()
	if poller.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	poller.parent = ctx
	poller.cancel = cancel
	poller.done = done

	go poller.run(runCtx, poller.interval, done)
}

// SetInterval changes the refresh period. A running loop is restarted with it.
func (poller *Poller) SetInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	poller.mu.Lock()
	if poller.interval == interval {
		poller.mu.Unlock()
		return
	}
	poller.interval = interval
	parent := poller.parent
	running := poller.cancel != nil
	poller.mu.Unlock()

	if running {
		poller.Stop()
		poller.Start(parent)
	}
}

// Interval returns the current refresh period.
func (poller *Poller) Interval() time.Duration {
	poller.mu.Lock()
	defer poller.mu.Unlock()
	return poller.interval
}

// Stop cancels the loop and waits for an in-flight refresh to return.
func (poller *Poller) Stop() {
	poller.mu.Lock()
	cancel := poller.cancel
	done := poller.done
	poller.cancel = nil
	poller.done = nil
	poller.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (poller *Poller) Running() bool {
	poller.mu.Lock()
	defer poller.mu.Unlock()
	return poller.cancel != nil
}

func (poller *Poller) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	poller.target.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poller.target.Refresh(ctx)
		}
	}
}
