package business

import (
	"github.com/google/uuid"
	"github.com/sanity-io/litter"

	"github.com/fulldump/editdb/collection"
)

// Object is the embeddable base of an editable business object. Data holds
// the field values; one snapshot of Data and the state flags is pushed per
// edit level. S must have value semantics: snapshots copy it by assignment.
type Object[S any] struct {
	Data S

	id        uuid.UUID
	kind      string
	isNew     bool
	isDirty   bool
	isDeleted bool
	isChild   bool

	editLevelAdded int
	parent         collection.ParentRef
	stack          []frame[S]
	children       []collection.Undoable
	rules          *Rules

	observers    map[int]func(string)
	nextObserver int
}

type frame[S any] struct {
	data      S
	isNew     bool
	isDirty   bool
	isDeleted bool
}

// Init prepares a brand new object.
func (o *Object[S]) Init(kind string, data S, rules *Rules) {
	o.id = uuid.New()
	o.kind = kind
	o.Data = data
	o.rules = rules
	o.MarkNew()
}

// Load prepares an object read from storage: not new and clean.
func (o *Object[S]) Load(kind string, id uuid.UUID, data S, rules *Rules) {
	o.id = id
	o.kind = kind
	o.Data = data
	o.rules = rules
	o.MarkOld()
}

func (o *Object[S]) ID() uuid.UUID {
	return o.id
}

func (o *Object[S]) Kind() string {
	return o.kind
}

// Ref identifies this object as the owner of child collections.
func (o *Object[S]) Ref() collection.ParentRef {
	return collection.ParentRef{ID: o.id, Kind: o.kind}
}

// Own registers child as part of this object's edit cascade and aligns its
// edit level with the object.
func (o *Object[S]) Own(child collection.Undoable) error {
	err := collection.ResetChildEditLevel(child, o.EditLevel())
	if err != nil {
		return err
	}
	o.children = append(o.children, child)
	return nil
}

func (o *Object[S]) MarkAsChild() {
	o.isChild = true
}

func (o *Object[S]) IsChild() bool {
	return o.isChild
}

func (o *Object[S]) SetParent(ref collection.ParentRef) {
	o.parent = ref
}

func (o *Object[S]) Parent() collection.ParentRef {
	return o.parent
}

func (o *Object[S]) EditLevelAdded() int {
	return o.editLevelAdded
}

func (o *Object[S]) SetEditLevelAdded(level int) {
	o.editLevelAdded = level
}

func (o *Object[S]) MarkNew() {
	o.isNew = true
	o.isDeleted = false
	o.isDirty = true
}

// MarkOld flags the object as persisted and clean.
func (o *Object[S]) MarkOld() {
	o.isNew = false
	o.isDirty = false
}

func (o *Object[S]) MarkClean() {
	o.isDirty = false
}

func (o *Object[S]) MarkDirty() {
	o.isDirty = true
}

func (o *Object[S]) MarkDeleted() {
	o.isDeleted = true
	o.isDirty = true
}

func (o *Object[S]) IsNew() bool {
	return o.isNew
}

func (o *Object[S]) IsDeleted() bool {
	return o.isDeleted
}

func (o *Object[S]) IsSelfDirty() bool {
	return o.isDirty
}

type dirtier interface {
	IsDirty() bool
}

type validator interface {
	IsValid() bool
}

// IsDirty reports own changes or changes in any owned child.
func (o *Object[S]) IsDirty() bool {
	if o.isDirty {
		return true
	}
	for _, child := range o.children {
		if d, ok := child.(dirtier); ok && d.IsDirty() {
			return true
		}
	}
	return false
}

func (o *Object[S]) IsSelfValid() bool {
	return len(o.rules.Check(o.Properties())) == 0
}

func (o *Object[S]) IsValid() bool {
	if !o.IsSelfValid() {
		return false
	}
	for _, child := range o.children {
		if v, ok := child.(validator); ok && !v.IsValid() {
			return false
		}
	}
	return true
}

func (o *Object[S]) BrokenRules() []collection.BrokenRule {
	broken := o.rules.Check(o.Properties())
	for _, child := range o.children {
		if b, ok := child.(collection.RuleBreaker); ok {
			broken = append(broken, b.BrokenRules()...)
		}
	}
	return broken
}

// Update applies f to Data, marks the object dirty and notifies observers
// about property.
func (o *Object[S]) Update(property string, f func(data *S)) {
	f(&o.Data)
	o.isDirty = true
	o.notify(property)
}

func (o *Object[S]) Property(name string) (any, bool) {
	return collection.PropertyOf(o.Data, name)
}

func (o *Object[S]) Properties() map[string]any {
	return collection.PropertiesOf(o.Data)
}

func (o *Object[S]) Observe(f func(property string)) (cancel func()) {
	if o.observers == nil {
		o.observers = map[int]func(string){}
	}
	id := o.nextObserver
	o.nextObserver++
	o.observers[id] = f
	return func() {
		delete(o.observers, id)
	}
}

func (o *Object[S]) notify(property string) {
	for _, f := range o.observers {
		f(property)
	}
}

func (o *Object[S]) EditLevel() int {
	return len(o.stack)
}

func (o *Object[S]) CopyState(parentEditLevel int) error {
	if o.EditLevel()+1 > parentEditLevel {
		return &collection.EditLevelMismatchError{Op: "CopyState", Level: o.EditLevel(), ParentLevel: parentEditLevel}
	}

	o.stack = append(o.stack, frame[S]{
		data:      o.Data,
		isNew:     o.isNew,
		isDirty:   o.isDirty,
		isDeleted: o.isDeleted,
	})

	for _, child := range o.children {
		err := child.CopyState(o.EditLevel())
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Object[S]) UndoChanges(parentEditLevel int) error {
	if o.EditLevel() == 0 || o.EditLevel()-1 != parentEditLevel {
		return &collection.EditLevelMismatchError{Op: "UndoChanges", Level: o.EditLevel(), ParentLevel: parentEditLevel}
	}

	top := o.stack[len(o.stack)-1]
	o.stack = o.stack[:len(o.stack)-1]
	o.Data = top.data
	o.isNew = top.isNew
	o.isDirty = top.isDirty
	o.isDeleted = top.isDeleted

	for _, child := range o.children {
		err := child.UndoChanges(o.EditLevel())
		if err != nil {
			return err
		}
	}

	o.notify("")
	return nil
}

func (o *Object[S]) AcceptChanges(parentEditLevel int) error {
	if o.EditLevel() == 0 || o.EditLevel()-1 != parentEditLevel {
		return &collection.EditLevelMismatchError{Op: "AcceptChanges", Level: o.EditLevel(), ParentLevel: parentEditLevel}
	}

	o.stack = o.stack[:len(o.stack)-1]

	for _, child := range o.children {
		err := child.AcceptChanges(o.EditLevel())
		if err != nil {
			return err
		}
	}
	return nil
}

// BeginEdit opens an edit level on a root object and its owned children.
func (o *Object[S]) BeginEdit() error {
	if o.isChild {
		return collection.ErrUnsupportedOnChild
	}
	return o.CopyState(o.EditLevel() + 1)
}

func (o *Object[S]) CancelEdit() error {
	if o.isChild {
		return collection.ErrUnsupportedOnChild
	}
	return o.UndoChanges(o.EditLevel() - 1)
}

func (o *Object[S]) ApplyEdit() error {
	if o.isChild {
		return collection.ErrUnsupportedOnChild
	}
	return o.AcceptChanges(o.EditLevel() - 1)
}

type objectDump struct {
	ID        string
	Kind      string
	EditLevel int
	New       bool
	Dirty     bool
	Deleted   bool
	Data      any
}

func (o *Object[S]) Dump() string {
	return litter.Sdump(objectDump{
		ID:        o.id.String(),
		Kind:      o.kind,
		EditLevel: o.EditLevel(),
		New:       o.isNew,
		Dirty:     o.IsDirty(),
		Deleted:   o.isDeleted,
		Data:      o.Data,
	})
}
