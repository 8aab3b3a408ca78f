// Package connmgr multiplexes one physical resource per name across nested
// users. Every Acquire adds a reference; the last Dispose closes it.
package connmgr

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type Opener[T io.Closer] func(ctx context.Context, name string) (T, error)

type Manager[T io.Closer] struct {
	mutex   sync.Mutex
	open    Opener[T]
	entries map[string]*entry[T]
}

type entry[T io.Closer] struct {
	resource T
	refs     int
}

func New[T io.Closer](open Opener[T]) *Manager[T] {
	return &Manager[T]{
		open:    open,
		entries: map[string]*entry[T]{},
	}
}

// Acquire returns a handle on the resource called name, opening it on first
// use.
func (m *Manager[T]) Acquire(ctx context.Context, name string) (*Handle[T], error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	e, ok := m.entries[name]
	if !ok {
		resource, err := m.open(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("open '%s': %w", name, err)
		}
		e = &entry[T]{resource: resource}
		m.entries[name] = e
	}
	e.refs++

	return &Handle[T]{
		manager:  m,
		name:     name,
		resource: e.resource,
	}, nil
}

// RefCount is the number of live handles on name.
func (m *Manager[T]) RefCount(name string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	e, ok := m.entries[name]
	if !ok {
		return 0
	}
	return e.refs
}

func (m *Manager[T]) release(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	e, ok := m.entries[name]
	if !ok {
		return nil
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	delete(m.entries, name)
	err := e.resource.Close()
	if err != nil {
		return fmt.Errorf("close '%s': %w", name, err)
	}
	return nil
}

type Handle[T io.Closer] struct {
	manager  *Manager[T]
	name     string
	resource T
	once     sync.Once
}

func (h *Handle[T]) Resource() T {
	return h.resource
}

func (h *Handle[T]) Name() string {
	return h.name
}

// Dispose releases the handle. Only the first call counts.
func (h *Handle[T]) Dispose() error {
	var err error
	h.once.Do(func() {
		err = h.manager.release(h.name)
	})
	return err
}
