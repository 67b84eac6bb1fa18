// Package timed runs asynchronous bot actions under a wall-clock bound.
//
// Cancellable aborts the action when the bound elapses, runs a cleanup exactly
// once and reports a TimeoutError carrying a diagnostic snapshot taken at abort
// time. Bounded only stops waiting: the action keeps running in the background
// and the caller gets a StillRunningError.
//
// Both settle exactly once. Whichever of the action and the timer claims the
// settlement guard first decides the outcome; the loser is dropped.
package timed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrTimeout      = errors.New("operation timed out")
	ErrStillRunning = errors.New("operation still running")
	ErrPanicked     = errors.New("operation panicked")
)

// TimeoutError is returned by Cancellable when the timer wins
type TimeoutError struct {
	Timeout time.Duration
	Elapsed time.Duration
	// State is the snapshot captured when the operation was aborted
	State string
}

func (e *TimeoutError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("operation timed out after %s", e.Timeout)
	}
	return fmt.Sprintf("operation timed out after %s (state: %s)", e.Timeout, e.State)
}

// Is makes errors.Is(err, ErrTimeout) match
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// StillRunningError is returned by Bounded when the bound elapses first
type StillRunningError struct {
	Waited time.Duration
}

func (e *StillRunningError) Error() string {
	return fmt.Sprintf("operation still running after %s", e.Waited)
}

// Is makes errors.Is(err, ErrStillRunning) match
func (e *StillRunningError) Is(target error) bool {
	return target == ErrStillRunning
}

// Action is the underlying asynchronous operation
type Action[T any] func(ctx context.Context) (T, error)

type options struct {
	cleanup  func()
	snapshot func() string
	late     func(err error)
}

// Option configures Cancellable and Bounded
type Option func(*options)

// WithCleanup sets the action run exactly once after Cancellable settles
func WithCleanup(fn func()) Option {
	return func(o *options) { o.cleanup = fn }
}

// WithSnapshot sets the function that describes current state at abort time
func WithSnapshot(fn func() string) Option {
	return func(o *options) { o.snapshot = fn }
}

// WithLateResult observes the outcome of an action Bounded stopped waiting for.
// It runs on the action's goroutine.
func WithLateResult(fn func(err error)) Option {
	return func(o *options) { o.late = fn }
}

// run invokes action, turning a panic into an error wrapping ErrPanicked
func run[T any](ctx context.Context, action Action[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return action(ctx)
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// outcome is a single-assignment cell
type outcome[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newOutcome[T any]() *outcome[T] {
	return &outcome[T]{done: make(chan struct{})}
}

// settle runs fn and stores its result if no one settled before. Reports whether
// this call won.
func (o *outcome[T]) settle(fn func() (T, error)) bool {
	won := false
	o.once.Do(func() {
		o.value, o.err = fn()
		won = true
		close(o.done)
	})
	return won
}

// Cancellable runs action bounded by timeout.
//
// When the timer fires first the action's context is cancelled, cleanup runs,
// and the result is a *TimeoutError with the snapshot taken at that moment.
// A cancelled ctx is treated the same way but settles with ctx.Err(). Cleanup
// runs exactly once on every path before Cancellable returns. Results arriving
// after settlement are discarded.
func Cancellable[T any](ctx context.Context, timeout time.Duration, action Action[T], opts ...Option) (T, error) {
	o := collect(opts)
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			if o.cleanup != nil {
				o.cleanup()
			}
		})
	}

	res := newOutcome[T]()
	start := time.Now()

	abort := func(reason func(elapsed time.Duration) error) {
		res.settle(func() (T, error) {
			var zero T
			cancel()
			cleanup()
			return zero, reason(time.Since(start))
		})
	}

	timer := time.AfterFunc(timeout, func() {
		abort(func(elapsed time.Duration) error {
			te := &TimeoutError{Timeout: timeout, Elapsed: elapsed}
			if o.snapshot != nil {
				te.State = o.snapshot()
			}
			return te
		})
	})
	defer timer.Stop()

	go func() {
		v, err := run(actx, action)
		res.settle(func() (T, error) { return v, err })
	}()

	select {
	case <-res.done:
	case <-ctx.Done():
		abort(func(time.Duration) error { return ctx.Err() })
		<-res.done
	}

	timer.Stop()
	cleanup()
	return res.value, res.err
}

// Bounded waits at most bound for action. The action runs detached from ctx
// cancellation so it survives the caller; when the bound (or ctx) ends the wait
// first, a *StillRunningError (or ctx.Err()) is returned and the eventual
// result is only passed to WithLateResult.
func Bounded[T any](ctx context.Context, bound time.Duration, action Action[T], opts ...Option) (T, error) {
	o := collect(opts)
	res := newOutcome[T]()

	go func() {
		v, err := run(context.WithoutCancel(ctx), action)
		if !res.settle(func() (T, error) { return v, err }) && o.late != nil {
			o.late(err)
		}
	}()

	timer := time.NewTimer(bound)
	defer timer.Stop()

	var reason error
	select {
	case <-res.done:
		return res.value, res.err
	case <-timer.C:
		reason = &StillRunningError{Waited: bound}
	case <-ctx.Done():
		reason = ctx.Err()
	}

	// the action may still win the race here, in which case its result stands
	res.settle(func() (T, error) {
		var zero T
		return zero, reason
	})
	return res.value, res.err
}
