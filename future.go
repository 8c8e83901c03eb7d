package dap

import (
	"context"
	"sync"
)

// Future observes a value that some other goroutine will eventually
// produce exactly once. There is no third-party future/promise
// library anywhere in the surrounding dependency set, so this is
// built directly on channels — a Future is nothing more than a
// read-only handle on a promise's result channel, same as the
// original's future<T>/promise<T> pair reduces to a condition
// variable plus a single-assignment slot.
type Future[T any] struct {
	ch  <-chan T
	err <-chan error
}

// Promise is the write side of a Future: Resolve or Reject may be
// called at most once, from any goroutine.
type Promise[T any] struct {
	ch   chan T
	err  chan error
	once *sync.Once
}

// NewPromise returns a Promise and the Future that observes it.
func NewPromise[T any]() (Promise[T], Future[T]) {
	ch := make(chan T, 1)
	errCh := make(chan error, 1)
	return Promise[T]{ch: ch, err: errCh, once: new(sync.Once)}, Future[T]{ch: ch, err: errCh}
}

// Resolve delivers v to the Future. Only the first call (of either
// Resolve or Reject) has any effect.
func (p Promise[T]) Resolve(v T) {
	p.once.Do(func() { p.ch <- v })
}

// Reject delivers err to the Future in place of a value. Only the
// first call (of either Resolve or Reject) has any effect.
func (p Promise[T]) Reject(err error) {
	p.once.Do(func() { p.err <- err })
}

// Wait blocks until the Promise is resolved or rejected, or ctx is
// done, whichever comes first.
func (f Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case v := <-f.ch:
		return v, nil
	case err := <-f.err:
		var zero T
		return zero, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
