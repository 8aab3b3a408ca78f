// Package store persists documents by kind and id. Backends: Memory, Bolt and
// SQL (sqlite or postgres).
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("not found")

// Store is a flat document store. Values are encoded by the backend, so Get
// and the List decode func take a pointer.
type Store interface {
	Get(ctx context.Context, kind, id string, value any) error
	Put(ctx context.Context, kind, id string, value any) error
	Delete(ctx context.Context, kind, id string) error

	// List visits every document of kind in id order.
	List(ctx context.Context, kind string, visit func(id string, decode func(value any) error) error) error

	Close() error
}

// Open picks a backend by name: memory, bolt, sqlite or postgres.
func Open(ctx context.Context, backend, dir, dsn string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemory(), nil
	case "bolt":
		err := os.MkdirAll(dir, 0777)
		if err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
		return OpenBolt(filepath.Join(dir, "editdb.bolt"))
	case "sqlite":
		if dsn == "" {
			err := os.MkdirAll(dir, 0777)
			if err != nil {
				return nil, fmt.Errorf("create dir: %w", err)
			}
			dsn = filepath.Join(dir, "editdb.sqlite")
		}
		return OpenSQL(ctx, DriverSQLite, dsn)
	case "postgres":
		if dsn == "" {
			return nil, errors.New("postgres store needs a dsn")
		}
		return OpenSQL(ctx, DriverPostgres, dsn)
	}
	return nil, fmt.Errorf("unknown store '%s'", backend)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s '%s': %w", kind, id, ErrNotFound)
}
