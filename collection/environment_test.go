package collection

import (
	"context"
	"errors"
)

// thing is a minimal editable child used across the package tests.
type thing struct {
	Name  string
	Owner string `index:"on-demand"`
	Rank  int

	deleted bool
	isNew   bool
	dirty   bool

	editLevelAdded int
	parent         ParentRef
	stack          []thingSnapshot

	observers    map[int]func(string)
	nextObserver int

	failAccept error
}

type thingSnapshot struct {
	Name    string
	Owner   string
	Rank    int
	deleted bool
	isNew   bool
	dirty   bool
}

func newThing(name, owner string, rank int) *thing {
	return &thing{
		Name:      name,
		Owner:     owner,
		Rank:      rank,
		isNew:     true,
		dirty:     true,
		observers: map[int]func(string){},
	}
}

func (t *thing) EditLevel() int {
	return len(t.stack)
}

func (t *thing) CopyState(parentEditLevel int) error {
	if t.EditLevel()+1 > parentEditLevel {
		return &EditLevelMismatchError{Op: "CopyState", Level: t.EditLevel(), ParentLevel: parentEditLevel}
	}
	t.stack = append(t.stack, thingSnapshot{
		Name: t.Name, Owner: t.Owner, Rank: t.Rank,
		deleted: t.deleted, isNew: t.isNew, dirty: t.dirty,
	})
	return nil
}

func (t *thing) UndoChanges(parentEditLevel int) error {
	if t.EditLevel() == 0 || t.EditLevel()-1 != parentEditLevel {
		return &EditLevelMismatchError{Op: "UndoChanges", Level: t.EditLevel(), ParentLevel: parentEditLevel}
	}
	s := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	t.Name, t.Owner, t.Rank = s.Name, s.Owner, s.Rank
	t.deleted, t.isNew, t.dirty = s.deleted, s.isNew, s.dirty
	t.notify("")
	return nil
}

func (t *thing) AcceptChanges(parentEditLevel int) error {
	if t.EditLevel() == 0 || t.EditLevel()-1 != parentEditLevel {
		return &EditLevelMismatchError{Op: "AcceptChanges", Level: t.EditLevel(), ParentLevel: parentEditLevel}
	}
	if t.failAccept != nil {
		return t.failAccept
	}
	t.stack = t.stack[:len(t.stack)-1]
	return nil
}

func (t *thing) SetParent(ref ParentRef) { t.parent = ref }
func (t *thing) EditLevelAdded() int { return t.editLevelAdded }
func (t *thing) SetEditLevelAdded(level int) { t.editLevelAdded = level }
func (t *thing) MarkDeleted() { t.deleted = true; t.dirty = true }
func (t *thing) IsDeleted() bool { return t.deleted }
func (t *thing) IsNew() bool { return t.isNew }
func (t *thing) IsDirty() bool { return t.dirty }
func (t *thing) IsValid() bool { return t.Name != "" }

func (t *thing) BrokenRules() []BrokenRule {
	if t.IsValid() {
		return nil
	}
	return []BrokenRule{{Property: "Name", Rule: "required", Message: "name is required"}}
}

func (t *thing) Observe(f func(property string)) (cancel func()) {
	id := t.nextObserver
	t.nextObserver++
	t.observers[id] = f
	return func() {
		delete(t.observers, id)
	}
}

func (t *thing) notify(property string) {
	for _, f := range t.observers {
		f(property)
	}
}

func (t *thing) setName(name string) {
	t.Name = name
	t.dirty = true
	t.notify("Name")
}

func (t *thing) setOwner(owner string) {
	t.Owner = owner
	t.dirty = true
	t.notify("Owner")
}

func (t *thing) markOld() {
	t.isNew = false
	t.dirty = false
}

func newThings(options *Options, names ...string) (*Collection[*thing], []*thing) {
	c := New[*thing](options)
	things := make([]*thing, 0, len(names))
	for i, name := range names {
		t := newThing(name, "nobody", i)
		if err := c.Add(t); err != nil {
			panic(err)
		}
		things = append(things, t)
	}
	return c, things
}

func names(items []*thing) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.Name)
	}
	return result
}

// recorder persists children in memory.
type recorder struct {
	inserted []string
	updated  []string
	deleted  []string
	fail     error
}

func (r *recorder) InsertChild(ctx context.Context, child *thing) error {
	if r.fail != nil {
		return r.fail
	}
	r.inserted = append(r.inserted, child.Name)
	child.markOld()
	return nil
}

func (r *recorder) UpdateChild(ctx context.Context, child *thing) error {
	if r.fail != nil {
		return r.fail
	}
	r.updated = append(r.updated, child.Name)
	child.markOld()
	return nil
}

func (r *recorder) DeleteChild(ctx context.Context, child *thing) error {
	if r.fail != nil {
		return r.fail
	}
	r.deleted = append(r.deleted, child.Name)
	return nil
}

// updaterFunc adapts a function to Updater.
type updaterFunc func(ctx context.Context, instance any) (any, error)

func (f updaterFunc) Update(ctx context.Context, instance any) (any, error) {
	return f(ctx, instance)
}

var errBoom = errors.New("boom")
