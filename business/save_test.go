package business

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/editdb/collection"
)

type updaterFunc func(ctx context.Context, instance any) (any, error)

func (f updaterFunc) Update(ctx context.Context, instance any) (any, error) {
	return f(ctx, instance)
}

func TestSave(t *testing.T) {
	Alternative("Save a note", func(a *A) {
		ctx := context.Background()
		calls := 0
		d := updaterFunc(func(ctx context.Context, instance any) (any, error) {
			calls++
			n := instance.(*note)
			n.MarkOld()
			return n, nil
		})
		n := newNote("hello", 1)

		a.Alternative("Dirty note reaches the updater", func(a *A) {
			saved, err := Save(ctx, n, d)
			AssertNil(err)
			AssertEqual(saved, n)
			AssertEqual(calls, 1)
			AssertFalse(n.IsDirty())

			a.Alternative("Clean note does not", func(a *A) {
				_, err := Save(ctx, n, d)
				AssertNil(err)
				AssertEqual(calls, 1)
			})
		})

		a.Alternative("Open edit", func(a *A) {
			AssertNil(n.BeginEdit())
			_, err := Save(ctx, n, d)
			AssertEqual(err, collection.ErrEditInProgress)
		})

		a.Alternative("Invalid", func(a *A) {
			n.Update("Title", func(d *noteData) { d.Title = "" })
			_, err := Save(ctx, n, d)
			AssertTrue(errors.Is(err, collection.ErrValidationFailed))
			AssertEqual(calls, 0)
		})

		a.Alternative("Child", func(a *A) {
			n.MarkAsChild()
			_, err := Save(ctx, n, d)
			AssertEqual(err, collection.ErrUnsupportedOnChild)
		})

		a.Alternative("Unexpected result", func(a *A) {
			_, err := Save(ctx, n, updaterFunc(func(ctx context.Context, instance any) (any, error) {
				return "nope", nil
			}))
			AssertTrue(errors.Is(err, collection.ErrUnexpectedResult))
		})
	})
}
