package collection

import (
	"slices"
)

// BeginEdit opens a new edit level on a root collection and snapshots every
// child, live or deleted.
func (c *Collection[C]) BeginEdit() error {
	if c.isChild {
		return ErrUnsupportedOnChild
	}
	return c.CopyState(c.editLevel + 1)
}

// CancelEdit reverts everything done since the matching BeginEdit: inserted
// items are dropped, deleted items come back and children restore their
// snapshots. A single Reset notification is emitted.
func (c *Collection[C]) CancelEdit() error {
	if c.isChild {
		return ErrUnsupportedOnChild
	}
	return c.UndoChanges(c.editLevel - 1)
}

// ApplyEdit commits the innermost edit level into the one below it.
func (c *Collection[C]) ApplyEdit() error {
	if c.isChild {
		return ErrUnsupportedOnChild
	}
	return c.AcceptChanges(c.editLevel - 1)
}

// CopyState is the cascade entry point used by an owning object. The new
// level must not exceed the owner's.
func (c *Collection[C]) CopyState(parentEditLevel int) error {
	if c.editLevel+1 > parentEditLevel {
		return &EditLevelMismatchError{Op: "CopyState", Level: c.editLevel, ParentLevel: parentEditLevel}
	}

	c.editLevel++
	c.orderings = append(c.orderings, slices.Clone(c.items))

	for _, child := range c.items {
		err := child.CopyState(c.editLevel)
		if err != nil {
			return err
		}
	}
	for _, child := range c.deleted {
		err := child.CopyState(c.editLevel)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection[C]) UndoChanges(parentEditLevel int) error {
	if c.editLevel == 0 || c.editLevel-1 != parentEditLevel {
		c.log("undo changes ignored at level %d (parent %d)", c.editLevel, parentEditLevel)
		return &EditLevelMismatchError{Op: "UndoChanges", Level: c.editLevel, ParentLevel: parentEditLevel}
	}

	restore := c.suppress()
	defer func() {
		restore()
		c.raise(ListChanged{Type: Reset, Index: -1})
	}()

	c.editLevel--
	ordering := c.popOrdering()

	for i := len(c.items) - 1; i >= 0; i-- {
		child := c.items[i]
		err := child.UndoChanges(c.editLevel)
		if err != nil {
			return err
		}
		if child.EditLevelAdded() > c.editLevel {
			c.completeRemoval = true
			err = c.removeItem(i)
			c.completeRemoval = false
			if err != nil {
				return err
			}
		}
	}

	for i := len(c.deleted) - 1; i >= 0; i-- {
		child := c.deleted[i]
		err := child.UndoChanges(c.editLevel)
		if err != nil {
			return err
		}
		switch {
		case child.EditLevelAdded() > c.editLevel:
			c.purgeDeleted(i)
		case !child.IsDeleted():
			c.undelete(i)
		}
	}

	c.restoreOrdering(ordering)
	return nil
}

func (c *Collection[C]) AcceptChanges(parentEditLevel int) error {
	if c.editLevel == 0 || c.editLevel-1 != parentEditLevel {
		c.log("accept changes ignored at level %d (parent %d)", c.editLevel, parentEditLevel)
		return &EditLevelMismatchError{Op: "AcceptChanges", Level: c.editLevel, ParentLevel: parentEditLevel}
	}

	c.editLevel--
	c.popOrdering()

	for _, child := range c.items {
		err := child.AcceptChanges(c.editLevel)
		if err != nil {
			return err
		}
		if child.EditLevelAdded() > c.editLevel {
			child.SetEditLevelAdded(c.editLevel)
		}
	}

	for i := len(c.deleted) - 1; i >= 0; i-- {
		child := c.deleted[i]
		err := child.AcceptChanges(c.editLevel)
		if err != nil {
			return err
		}
		if child.EditLevelAdded() > c.editLevel {
			c.purgeDeleted(i)
		}
	}
	return nil
}

func (c *Collection[C]) popOrdering() []C {
	n := len(c.orderings)
	if n == 0 {
		return nil
	}
	ordering := c.orderings[n-1]
	c.orderings = c.orderings[:n-1]
	return ordering
}

// restoreOrdering puts the live items back in the order they had when the
// level was opened. Items unknown to the snapshot keep their relative order
// at the end.
func (c *Collection[C]) restoreOrdering(ordering []C) {
	if ordering == nil {
		return
	}

	rank := make(map[C]int, len(ordering))
	for i, item := range ordering {
		rank[item] = i
	}
	slices.SortStableFunc(c.items, func(a, b C) int {
		ra, oka := rank[a]
		rb, okb := rank[b]
		switch {
		case oka && okb:
			return ra - rb
		case oka:
			return -1
		case okb:
			return 1
		}
		return 0
	})
	c.positions.Rebuild(c.items)
}
