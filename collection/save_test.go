package collection

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"
)

func TestCollection_Save(t *testing.T) {
	Alternative("Saved collection", func(a *A) {
		c, things := newThings(&Options{Kind: "things"}, "A", "B")
		for _, item := range things {
			item.markOld()
		}

		calls := 0
		updater := updaterFunc(func(ctx context.Context, instance any) (any, error) {
			calls++
			return instance, nil
		})

		saved := []Saved{}
		c.OnSaved(func(e Saved) {
			saved = append(saved, e)
		})

		a.Alternative("Clean collection is not sent", func(a *A) {
			result, err := c.Save(context.Background(), updater)
			AssertNil(err)
			AssertEqual(result, c)
			AssertEqual(calls, 0)
			AssertEqual(len(saved), 1)
		})

		a.Alternative("Dirty collection is sent", func(a *A) {
			things[0].setName("AA")
			result, err := c.Save(context.Background(), updater)
			AssertNil(err)
			AssertEqual(result, c)
			AssertEqual(calls, 1)
			AssertEqual(saved, []Saved{{Result: c}})
		})

		a.Alternative("Edit in progress", func(a *A) {
			AssertNil(c.BeginEdit())
			things[0].setName("AA")
			_, err := c.Save(context.Background(), updater)
			AssertEqual(err, ErrEditInProgress)
			AssertEqual(calls, 0)
		})

		a.Alternative("Invalid collection", func(a *A) {
			things[1].setName("")
			_, err := c.Save(context.Background(), updater)
			AssertTrue(errors.Is(err, ErrValidationFailed))
			failed := &ValidationFailedError{}
			AssertTrue(errors.As(err, &failed))
			AssertEqual(len(failed.Broken), 1)
			AssertEqual(calls, 0)
			AssertEqual(saved[0].Err, err)
		})

		a.Alternative("Updater fails", func(a *A) {
			things[0].setName("AA")
			_, err := c.Save(context.Background(), updaterFunc(func(ctx context.Context, instance any) (any, error) {
				return nil, errBoom
			}))
			AssertTrue(errors.Is(err, errBoom))
		})

		a.Alternative("Updater returns something else", func(a *A) {
			things[0].setName("AA")
			_, err := c.Save(context.Background(), updaterFunc(func(ctx context.Context, instance any) (any, error) {
				return "nope", nil
			}))
			AssertTrue(errors.Is(err, ErrUnexpectedResult))
		})

		a.Alternative("Updater returns a new instance", func(a *A) {
			things[0].setName("AA")
			other := New[*thing](nil)
			result, err := c.Save(context.Background(), updaterFunc(func(ctx context.Context, instance any) (any, error) {
				return other, nil
			}))
			AssertNil(err)
			AssertEqual(result, other)

			// persisted observers travel with the result
			result.OnSaved(func(e Saved) {})
			AssertEqual(result.saved.len(), 2)
		})
	})
}

func TestCollection_UpdateChildren(t *testing.T) {
	c, things := newThings(nil, "A", "B", "C")
	things[0].markOld()
	things[1].markOld()

	x := newThing("X", "nobody", 0)
	AssertNil(c.Add(x))
	removed, err := c.Remove(x)
	AssertNil(err)
	AssertTrue(removed)
	AssertNil(c.RemoveAt(0))
	things[1].setName("BB")

	r := &recorder{}
	AssertNil(c.UpdateChildren(context.Background(), r))

	AssertEqual(r.deleted, []string{"A"})
	AssertEqual(r.updated, []string{"BB"})
	AssertEqual(r.inserted, []string{"C"})
	AssertEqual(c.DeletedItems(), []*thing{})
	AssertFalse(c.IsDirty())
}

func TestCollection_UpdateChildrenFails(t *testing.T) {
	c, things := newThings(nil, "A")
	things[0].markOld()
	AssertNil(c.RemoveAt(0))

	err := c.UpdateChildren(context.Background(), &recorder{fail: errBoom})
	AssertTrue(errors.Is(err, errBoom))
	AssertEqual(c.DeletedItems(), things)
}
