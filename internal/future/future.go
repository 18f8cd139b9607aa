// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package future provides a single-assignment future that turns callback based
// asynchronous calls into values the caller blocks on only when it needs them.
package future

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned by GetTimeout and Wait when the future did not
	// resolve in time. The underlying call is not cancelled.
	ErrTimeout = errors.New("future: timed out waiting for result")
	// ErrAlreadyResolved is the panic value for a second Set or SetError.
	ErrAlreadyResolved = errors.New("future: already resolved")
)

// Future is a write-once result of an asynchronous operation.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error

	// source is set for derived futures; it is evaluated lazily by the first
	// consumer and the outcome is memoized through resolve.
	source func(ctx context.Context) (T, error)
	slot   chan struct{}
}

// New returns an unresolved future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Set(v)
	return f
}

// Failed returns a future already resolved with err.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.SetError(err)
	return f
}

// Set resolves the future with v. It panics if the future is already resolved.
func (f *Future[T]) Set(v T) {
	if !f.resolve(v, nil) {
		panic(ErrAlreadyResolved)
	}
}

// SetError resolves the future with err. It panics if the future is already
// resolved.
func (f *Future[T]) SetError(err error) {
	if err == nil {
		panic("future: SetError called with nil error")
	}
	var zero T
	if !f.resolve(zero, err) {
		panic(ErrAlreadyResolved)
	}
}

func (f *Future[T]) resolve(v T, err error) bool {
	ok := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
		ok = true
	})
	return ok
}

// Done returns a channel closed once the future holds a result. A derived
// future only resolves after it has been consumed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the future resolves.
func (f *Future[T]) Get() (T, error) {
	return f.Wait(context.Background())
}

// GetTimeout blocks for at most d. A non-positive d blocks indefinitely.
func (f *Future[T]) GetTimeout(d time.Duration) (T, error) {
	if d <= 0 {
		return f.Get()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return f.Wait(ctx)
}

// Wait blocks until the future resolves or ctx is done. An expired deadline is
// reported as ErrTimeout; explicit cancellation as ctx.Err().
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if f.source != nil {
		return f.waitDerived(ctx)
	}
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctxErr(ctx)
	}
}

func (f *Future[T]) waitDerived(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	// One consumer evaluates at a time; the others wait for its outcome or
	// their own deadline.
	select {
	case f.slot <- struct{}{}:
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctxErr(ctx)
	}
	defer func() { <-f.slot }()

	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	v, err := f.source(ctx)
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.Canceled) {
		// Not an outcome of the operation itself; a later consumer may retry.
		return v, err
	}
	f.resolve(v, err)
	return f.value, f.err
}

func ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

// Map returns a future whose value is fn applied to the value of f. It returns
// immediately; fn runs on the goroutine of the first consumer and only if f
// succeeded. Errors from f propagate unchanged.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := New[U]()
	out.slot = make(chan struct{}, 1)
	out.source = func(ctx context.Context) (U, error) {
		v, err := f.Wait(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	}
	return out
}

// Then is Map for transformations that cannot fail.
func Then[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	return Map(f, func(v T) (U, error) { return fn(v), nil })
}
