package store

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Bolt stores one bucket per kind with msgpack values keyed by id.
type Bolt struct {
	db *bbolt.DB
}

var _ Store = (*Bolt)(nil)

func OpenBolt(filename string) (*Bolt, error) {
	db, err := bbolt.Open(filename, 0666, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt '%s': %w", filename, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(ctx context.Context, kind, id string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(kind))
		if bucket == nil {
			return notFound(kind, id)
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return notFound(kind, id)
		}
		return unmarshalMsgpack(data, value)
	})
}

func (b *Bolt) Put(ctx context.Context, kind, id string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := marshalMsgpack(value)
	if err != nil {
		return fmt.Errorf("encode %s '%s': %w", kind, id, err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(kind))
		if err != nil {
			return fmt.Errorf("bucket '%s': %w", kind, err)
		}
		return bucket.Put([]byte(id), data)
	})
}

func (b *Bolt) Delete(ctx context.Context, kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(kind))
		if bucket == nil || bucket.Get([]byte(id)) == nil {
			return notFound(kind, id)
		}
		return bucket.Delete([]byte(id))
	})
}

type entry struct {
	id   string
	data []byte
}

// List copies the bucket out of the read transaction before visiting, so
// visit may write to the store.
func (b *Bolt) List(ctx context.Context, kind string, visit func(id string, decode func(value any) error) error) error {
	entries := []entry{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(kind))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			entries = append(entries, entry{id: string(k), data: bytes.Clone(v)})
			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := e.data
		err := visit(e.id, func(value any) error {
			return unmarshalMsgpack(data, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
