package collection

type ListChangedType int

const (
	ItemAdded ListChangedType = iota
	ItemDeleted
	ItemChanged
	Reset
)

func (t ListChangedType) String() string {
	switch t {
	case ItemAdded:
		return "item_added"
	case ItemDeleted:
		return "item_deleted"
	case ItemChanged:
		return "item_changed"
	case Reset:
		return "reset"
	}
	return "unknown"
}

type ListChanged struct {
	Type     ListChangedType
	Index    int
	Property string
}

// Saved is emitted after Save, with the resulting instance or the failure.
type Saved struct {
	Result any
	Err    error
}

// observers keeps two handler lists that are dispatched identically. Only
// the persisted list survives Detach, which is what a restored graph needs.
type observers[E any] struct {
	persisted []func(E)
	transient []func(E)
}

func (o *observers[E]) add(f func(E), persisted bool) {
	if persisted {
		o.persisted = append(o.persisted, f)
		return
	}
	o.transient = append(o.transient, f)
}

func (o *observers[E]) emit(e E) {
	for _, f := range o.persisted {
		f(e)
	}
	for _, f := range o.transient {
		f(e)
	}
}

func (o *observers[E]) detachTransient() {
	o.transient = nil
}

func (o *observers[E]) len() int {
	return len(o.persisted) + len(o.transient)
}
