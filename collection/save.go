package collection

import (
	"context"
	"fmt"
)

// Updater persists a root object graph and returns the resulting instance,
// which may or may not be the one it was given.
type Updater interface {
	Update(ctx context.Context, instance any) (any, error)
}

// Save validates the collection and hands it to d. A clean collection is
// returned as is without calling d. Saved observers are notified with the
// outcome either way.
func (c *Collection[C]) Save(ctx context.Context, d Updater) (*Collection[C], error) {
	result, err := c.save(ctx, d)

	e := Saved{Err: err}
	if result != nil {
		e.Result = result
	}
	c.saved.emit(e)

	return result, err
}

func (c *Collection[C]) save(ctx context.Context, d Updater) (*Collection[C], error) {
	if c.isChild {
		return nil, ErrUnsupportedOnChild
	}
	if c.editLevel > 0 {
		return nil, ErrEditInProgress
	}
	if !c.IsValid() {
		return nil, &ValidationFailedError{Broken: c.BrokenRules()}
	}
	if !c.IsDirty() {
		return c, nil
	}

	out, err := d.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", c.kind, err)
	}
	updated, ok := out.(*Collection[C])
	if !ok || updated == nil {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedResult, out)
	}
	updated.adoptObservers(c)
	c.log("saved %d items", updated.Len())

	return updated, nil
}

// ChildPersister writes single children on behalf of UpdateChildren.
type ChildPersister[C any] interface {
	InsertChild(ctx context.Context, child C) error
	UpdateChild(ctx context.Context, child C) error
	DeleteChild(ctx context.Context, child C) error
}

// UpdateChildren is meant to run inside a data access routine: it deletes
// the persisted items of the deleted list, then inserts new dirty children
// and updates old dirty ones. Notifications are suppressed meanwhile.
func (c *Collection[C]) UpdateChildren(ctx context.Context, p ChildPersister[C]) error {
	restore := c.suppress()
	defer restore()

	for len(c.deleted) > 0 {
		child := c.deleted[0]
		if !child.IsNew() {
			err := p.DeleteChild(ctx, child)
			if err != nil {
				return fmt.Errorf("delete child: %w", err)
			}
		}
		c.purgeDeleted(0)
	}

	for _, child := range c.items {
		if !child.IsDirty() {
			continue
		}
		var err error
		if child.IsNew() {
			err = p.InsertChild(ctx, child)
		} else {
			err = p.UpdateChild(ctx, child)
		}
		if err != nil {
			return fmt.Errorf("save child: %w", err)
		}
	}
	return nil
}
