package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var ErrClosed = errors.New("store closed")

// Memory keeps encoded copies, so callers never share state with the store.
type Memory struct {
	mutex  sync.RWMutex
	kinds  map[string]map[string][]byte
	closed bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		kinds: map[string]map[string][]byte{},
	}
}

func (m *Memory) Get(ctx context.Context, kind, id string, value any) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.closed {
		return ErrClosed
	}

	data, ok := m.kinds[kind][id]
	if !ok {
		return notFound(kind, id)
	}
	return unmarshalMsgpack(data, value)
}

func (m *Memory) Put(ctx context.Context, kind, id string, value any) error {
	data, err := marshalMsgpack(value)
	if err != nil {
		return fmt.Errorf("encode %s '%s': %w", kind, id, err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return ErrClosed
	}

	documents, ok := m.kinds[kind]
	if !ok {
		documents = map[string][]byte{}
		m.kinds[kind] = documents
	}
	documents[id] = data
	return nil
}

func (m *Memory) Delete(ctx context.Context, kind, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.kinds[kind][id]; !ok {
		return notFound(kind, id)
	}
	delete(m.kinds[kind], id)
	return nil
}

func (m *Memory) List(ctx context.Context, kind string, visit func(id string, decode func(value any) error) error) error {
	m.mutex.RLock()
	if m.closed {
		m.mutex.RUnlock()
		return ErrClosed
	}
	documents := maps.Clone(m.kinds[kind])
	m.mutex.RUnlock()

	for _, id := range slices.Sorted(maps.Keys(documents)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := documents[id]
		err := visit(id, func(value any) error {
			return unmarshalMsgpack(data, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	return nil
}
