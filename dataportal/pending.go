package dataportal

import (
	"context"
	"fmt"
	"sync"
)

// Pending is the result of an asynchronous call. It completes exactly once:
// the first of Resolve or Fail wins and later attempts report false.
type Pending[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func NewPending[T any]() *Pending[T] {
	return &Pending[T]{
		done: make(chan struct{}),
	}
}

func (p *Pending[T]) Resolve(value T) bool {
	return p.complete(value, nil)
}

func (p *Pending[T]) Fail(err error) bool {
	var zero T
	return p.complete(zero, err)
}

func (p *Pending[T]) complete(value T, err error) bool {
	completed := false
	p.once.Do(func() {
		p.value = value
		p.err = err
		close(p.done)
		completed = true
	})
	return completed
}

func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the call completes or ctx is done. Giving up waiting
// does not stop the call.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result answers without blocking; ok is false while the call is running.
func (p *Pending[T]) Result() (value T, err error, ok bool) {
	select {
	case <-p.done:
		return p.value, p.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Go runs f on its own goroutine and bridges its outcome to a Pending.
func Go[T any](f func() (T, error)) *Pending[T] {
	p := NewPending[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.Fail(fmt.Errorf("panic: %v", r))
			}
		}()
		value, err := f()
		if err != nil {
			p.Fail(err)
			return
		}
		p.Resolve(value)
	}()
	return p
}
