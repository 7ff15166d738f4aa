// Package timectrl drives simulation time. The TimeController ticks at a
// fixed simulated step and notifies listeners, which is how robot motion is
// advanced between detector ticks.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is a read-only view of simulation time. Components that only
// need to stamp things depend on this rather than the full controller.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances one Tick per wall-clock Tick.
	RealTime Mode = iota
	// Accelerated advances as quickly as the listeners can run, still
	// stepping simulation time by Tick.
	Accelerated
)

// TimeController advances simulation time in fixed steps and notifies
// registered listeners with the step size on every tick. It implements
// SimClock.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time

	listeners []func(now time.Time, elapsed time.Duration)
}

// NewTimeController constructs a controller positioned at start.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime repositions simulation time without notifying listeners.
func (tc *TimeController) SetTime(now time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = now
}

// AddListener registers a callback invoked on every tick with the new
// simulation time and the simulated duration of the step. Listeners must be
// registered before Start.
func (tc *TimeController) AddListener(fn func(now time.Time, elapsed time.Duration)) {
	tc.listeners = append(tc.listeners, fn)
}

// Start runs the controller in its own goroutine until ctx is cancelled or,
// when duration is positive, until that much simulation time has elapsed.
// The returned channel is closed when the controller stops.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.StartTime
		tc.currentTime = simTime
		tc.mu.Unlock()

		var ticker *time.Ticker
		if tc.Mode == RealTime {
			ticker = time.NewTicker(tc.Tick)
			defer ticker.Stop()
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			if ticker != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			} else if ctx.Err() != nil {
				return
			}

			simTime = simTime.Add(tc.Tick)
			elapsed += tc.Tick

			tc.mu.Lock()
			tc.currentTime = simTime
			tc.mu.Unlock()

			for _, fn := range tc.listeners {
				fn(simTime, tc.Tick)
			}
		}
	}()
	return done
}
