package collection

import "github.com/google/uuid"

// Undoable is the capability every node of an editable graph exposes so an
// owner can drive nested edit transactions depth first.
type Undoable interface {
	EditLevel() int
	CopyState(parentEditLevel int) error
	UndoChanges(parentEditLevel int) error
	AcceptChanges(parentEditLevel int) error
}

// Child is the structural contract of any element stored in a Collection.
type Child interface {
	Undoable
	SetParent(ref ParentRef)
	EditLevelAdded() int
	SetEditLevelAdded(level int)
	MarkDeleted()
	IsDeleted() bool
	IsNew() bool
	IsDirty() bool
	IsValid() bool
}

// Item constrains collection elements: children compared by identity.
type Item interface {
	comparable
	Child
}

// Notifier is implemented by children that signal property changes. The
// returned func cancels the subscription.
type Notifier interface {
	Observe(f func(property string)) (cancel func())
}

// PropertyGetter resolves a single named property of an item.
type PropertyGetter interface {
	Property(name string) (any, bool)
}

// PropertyLister exposes every property of an item by name.
type PropertyLister interface {
	Properties() map[string]any
}

// ParentRef is a non-owning relation from a child to its owner. It carries the
// owner identity only, never a pointer to it.
type ParentRef struct {
	ID   uuid.UUID `json:"id"`
	Kind string    `json:"kind"`
}

func (p ParentRef) IsZero() bool {
	return p.ID == uuid.Nil
}

// ResetChildEditLevel walks child up or down, one level at a time, until its
// edit level equals level.
func ResetChildEditLevel(child Undoable, level int) error {
	for child.EditLevel() > level {
		err := child.AcceptChanges(child.EditLevel() - 1)
		if err != nil {
			return err
		}
	}
	for child.EditLevel() < level {
		err := child.CopyState(child.EditLevel() + 1)
		if err != nil {
			return err
		}
	}
	return nil
}
