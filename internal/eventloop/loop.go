// Package eventloop provides the single goroutine on which all panel state is
// mutated. Other goroutines hand work to it with Post or Do.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mixer/clock"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// afterFunc arms a one-shot timer and returns its stop func.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

// wallAfterFunc keeps the *time.Timer itself. clock.DefaultClock copies the
// timer by value, and stopping that copy does not stop the runtime timer.
func wallAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Loop runs posted tasks in order on one goroutine.
type Loop struct {
	clock     clock.Clock
	afterFunc afterFunc

	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
}

// New creates a loop. A nil clock means the wall clock. Timers on the wall
// clock come from the time package; any other clock arms its own timers.
func New(clk clock.Clock) *Loop {
	timers := afterFunc(wallAfterFunc)
	switch clk.(type) {
	case nil:
		clk = clock.DefaultClock{}
	case clock.DefaultClock, *clock.DefaultClock:
	default:
		timers = func(d time.Duration, f func()) func() bool {
			return clk.AfterFunc(d, f).Stop
		}
	}

	return &Loop{
		clock:     clk,
		afterFunc: timers,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled. Tasks still queued at that
// point are dropped. Run must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.queue = nil
			l.mu.Unlock()
			return ctx.Err()
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			task := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			task()

			if ctx.Err() != nil {
				break
			}
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After schedules fn on the loop once d has elapsed. The returned stop func
// must be called from the loop; after it returns fn will not run.
func (l *Loop) After(d time.Duration, fn func()) (stop func()) {
	var cancelled atomic.Bool

	stopTimer := l.afterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})

	return func() {
		cancelled.Store(true)
		stopTimer()
	}
}

// Now reports the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}
