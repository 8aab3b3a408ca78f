package business

import (
	"context"
	"fmt"

	"github.com/fulldump/editdb/collection"
)

// Savable is a root object that can be persisted through an Updater.
type Savable interface {
	IsChild() bool
	EditLevel() int
	IsDirty() bool
	IsValid() bool
	BrokenRules() []collection.BrokenRule
}

// Save persists a root object the same way Collection.Save does: children and
// objects with an open edit are rejected, invalid objects fail with
// *collection.ValidationFailedError and clean objects come back untouched.
func Save[T Savable](ctx context.Context, object T, d collection.Updater) (T, error) {
	var zero T
	if object.IsChild() {
		return zero, collection.ErrUnsupportedOnChild
	}
	if object.EditLevel() > 0 {
		return zero, collection.ErrEditInProgress
	}
	if !object.IsValid() {
		return zero, &collection.ValidationFailedError{Broken: object.BrokenRules()}
	}
	if !object.IsDirty() {
		return object, nil
	}

	out, err := d.Update(ctx, object)
	if err != nil {
		return zero, fmt.Errorf("update: %w", err)
	}
	updated, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", collection.ErrUnexpectedResult, out)
	}
	return updated, nil
}
