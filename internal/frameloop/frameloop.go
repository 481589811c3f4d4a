// Package frameloop runs a function at a fixed cadence on its own
// goroutine, standing in for a display-refresh callback. Start and Stop are
// idempotent, so callers may tear down in any order and in any state.
package frameloop

import (
	"sync"
	"time"
)

// Loop is a periodic task with explicit start/stop handles.
type Loop struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	done     chan struct{}
	running  bool
}

// New creates a loop that invokes fn every interval once started.
func New(interval time.Duration, fn func()) *Loop {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Loop{interval: interval, fn: fn}
}

// Start begins ticking. Calling Start on a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.done = make(chan struct{})
	go l.run(l.done)
}

// Stop halts ticking. Safe to call at any time, any number of times.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	close(l.done)
}

// Running reports whether the loop is currently ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(done chan struct{}) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			l.fn()
		}
	}
}
