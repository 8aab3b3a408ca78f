package collection

import (
	"github.com/sanity-io/litter"
)

var dumpOptions = litter.Options{
	HidePrivateFields: true,
	Compact:           false,
	StripPackageNames: true,
}

type dump struct {
	ID        string
	Kind      string
	EditLevel int
	IsChild   bool
	Items     any
	Deleted   any
}

// Dump renders the collection state for debugging.
func (c *Collection[C]) Dump() string {
	return dumpOptions.Sdump(dump{
		ID:        c.id.String(),
		Kind:      c.kind,
		EditLevel: c.editLevel,
		IsChild:   c.isChild,
		Items:     c.items,
		Deleted:   c.deleted,
	})
}
