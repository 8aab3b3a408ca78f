package collection

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/google/uuid"
)

var ErrAlreadyContained = errors.New("item already belongs to the collection")

type Options struct {
	// Kind names the collection for refs, logs and errors
	Kind string

	// IsChild marks a collection owned by a parent object. Child collections
	// are edited and saved through their parent only.
	IsChild bool

	Indexes map[string]IndexSpec

	Logf func(format string, args ...any)
}

// Collection is an ordered list of editable children with nested edit
// transactions, a deleted list, secondary indexes and a position map.
//
// It is not safe for concurrent mutation. Searches over already loaded
// indexes may run concurrently with other reads.
type Collection[C Item] struct {
	id      uuid.UUID
	kind    string
	isChild bool
	parent  ParentRef

	items     []C
	deleted   []C
	editLevel int
	orderings [][]C // live order at each open edit level

	positions *PositionMap[C]
	Indexes   *IndexSet[C]

	listeners observers[ListChanged]
	saved     observers[Saved]
	watches   map[C]func()

	completeRemoval bool
	raiseEvents     bool

	logf func(format string, args ...any)
}

func New[C Item](options *Options) *Collection[C] {
	if options == nil {
		options = &Options{}
	}

	c := &Collection[C]{
		id:          uuid.New(),
		kind:        options.Kind,
		isChild:     options.IsChild,
		items:       []C{},
		deleted:     []C{},
		positions:   NewPositionMap[C](),
		watches:     map[C]func(){},
		raiseEvents: true,
		logf:        options.Logf,
	}
	if c.kind == "" {
		c.kind = "collection"
	}
	c.Indexes = NewIndexSet[C](options.Indexes, c.Items)

	return c
}

func (c *Collection[C]) ID() uuid.UUID {
	return c.id
}

func (c *Collection[C]) Kind() string {
	return c.kind
}

// Ref is the non-owning handle children keep to this collection.
func (c *Collection[C]) Ref() ParentRef {
	return ParentRef{ID: c.id, Kind: c.kind}
}

func (c *Collection[C]) IsChild() bool {
	return c.isChild
}

// SetParent records the owning object. It does not keep the owner alive.
func (c *Collection[C]) SetParent(ref ParentRef) {
	c.parent = ref
}

func (c *Collection[C]) Parent() ParentRef {
	return c.parent
}

func (c *Collection[C]) Len() int {
	return len(c.items)
}

func (c *Collection[C]) At(index int) C {
	return c.items[index]
}

// Items returns a copy of the live sequence in public order.
func (c *Collection[C]) Items() []C {
	return slices.Clone(c.items)
}

func (c *Collection[C]) All() iter.Seq2[int, C] {
	return func(yield func(int, C) bool) {
		for i, item := range c.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// DeletedItems returns a copy of the deleted list.
func (c *Collection[C]) DeletedItems() []C {
	return slices.Clone(c.deleted)
}

func (c *Collection[C]) Contains(item C) bool {
	_, ok := c.positions.PositionOf(item)
	return ok
}

func (c *Collection[C]) ContainsDeleted(item C) bool {
	return slices.Contains(c.deleted, item)
}

// IndexOf answers the position of item in O(1), or -1.
func (c *Collection[C]) IndexOf(item C) int {
	p, ok := c.positions.PositionOf(item)
	if !ok {
		return -1
	}
	return p
}

func (c *Collection[C]) EditLevel() int {
	return c.editLevel
}

// IsDirty reports any deleted item that was already persisted, or any dirty
// live child.
func (c *Collection[C]) IsDirty() bool {
	for _, item := range c.deleted {
		if !item.IsNew() {
			return true
		}
	}
	for _, item := range c.items {
		if item.IsDirty() {
			return true
		}
	}
	return false
}

// IsValid aggregates the validity of the live children; the collection has
// no validation state of its own.
func (c *Collection[C]) IsValid() bool {
	for _, item := range c.items {
		if !item.IsValid() {
			return false
		}
	}
	return true
}

// RuleBreaker is implemented by children able to explain why they are
// invalid.
type RuleBreaker interface {
	BrokenRules() []BrokenRule
}

func (c *Collection[C]) BrokenRules() []BrokenRule {
	result := []BrokenRule{}
	for _, item := range c.items {
		if item.IsValid() {
			continue
		}
		if b, ok := any(item).(RuleBreaker); ok {
			result = append(result, b.BrokenRules()...)
		}
	}
	return result
}

func (c *Collection[C]) Subscribe(f func(ListChanged)) {
	c.listeners.add(f, true)
}

// SubscribeTransient registers a handler that is not carried over to the
// instance returned by Save.
func (c *Collection[C]) SubscribeTransient(f func(ListChanged)) {
	c.listeners.add(f, false)
}

func (c *Collection[C]) OnSaved(f func(Saved)) {
	c.saved.add(f, true)
}

func (c *Collection[C]) DetachTransient() {
	c.listeners.detachTransient()
	c.saved.detachTransient()
}

func (c *Collection[C]) adoptObservers(from *Collection[C]) {
	if from == c {
		return
	}
	c.listeners.persisted = append(c.listeners.persisted, from.listeners.persisted...)
	c.saved.persisted = append(c.saved.persisted, from.saved.persisted...)
}

func (c *Collection[C]) raise(e ListChanged) {
	if !c.raiseEvents {
		return
	}
	c.listeners.emit(e)
}

func (c *Collection[C]) suppress() (restore func()) {
	previous := c.raiseEvents
	c.raiseEvents = false
	return func() {
		c.raiseEvents = previous
	}
}

func (c *Collection[C]) log(format string, args ...any) {
	if c.logf == nil {
		return
	}
	c.logf(c.kind+": "+format, args...)
}

func (c *Collection[C]) watch(item C) {
	n, ok := any(item).(Notifier)
	if !ok {
		return
	}
	if _, exists := c.watches[item]; exists {
		return
	}
	c.watches[item] = n.Observe(func(property string) {
		c.childChanged(item, property)
	})
}

func (c *Collection[C]) unwatch(item C) {
	cancel, ok := c.watches[item]
	if !ok {
		return
	}
	delete(c.watches, item)
	cancel()
}

func (c *Collection[C]) childChanged(item C, property string) {
	position, ok := c.positions.PositionOf(item)
	if !ok {
		return
	}
	c.Indexes.ReIndexItem(item, property)
	c.raise(ListChanged{Type: ItemChanged, Index: position, Property: property})
}

// prepareChild makes item belong to this collection at the current edit
// level.
func (c *Collection[C]) prepareChild(item C) error {
	err := ResetChildEditLevel(item, c.editLevel)
	if err != nil {
		return fmt.Errorf("reset child edit level: %w", err)
	}
	c.adopt(item)
	return nil
}

func (c *Collection[C]) adopt(item C) {
	item.SetParent(c.Ref())
	item.SetEditLevelAdded(c.editLevel)
}

func (c *Collection[C]) Add(item C) error {
	return c.Insert(len(c.items), item)
}

// Insert splices item at index. The item is stamped with the current edit
// level so a cancel below it removes it physically.
func (c *Collection[C]) Insert(index int, item C) error {
	if index < 0 || index > len(c.items) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(c.items), ErrIndexOutOfRange)
	}
	if c.Contains(item) || c.ContainsDeleted(item) {
		return ErrAlreadyContained
	}

	err := c.prepareChild(item)
	if err != nil {
		return err
	}

	c.Indexes.InsertItem(item)
	c.positions.InsertIntoMap(item, index)
	c.items = slices.Insert(c.items, index, item)
	c.watch(item)

	c.raise(ListChanged{Type: ItemAdded, Index: index})
	return nil
}

// RemoveAt soft deletes the item at index: it moves to the deleted list
// until a save purges it or a cancel restores it.
func (c *Collection[C]) RemoveAt(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("remove at %d of %d: %w", index, len(c.items), ErrIndexOutOfRange)
	}

	restore := c.suppress()
	err := c.removeItem(index)
	restore()
	if err != nil {
		return err
	}

	c.raise(ListChanged{Type: ItemDeleted, Index: index})
	return nil
}

// Remove soft deletes item. It reports false when item is not a live member.
func (c *Collection[C]) Remove(item C) (bool, error) {
	position, ok := c.positions.PositionOf(item)
	if !ok {
		return false, nil
	}
	err := c.RemoveAt(position)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Collection[C]) removeItem(index int) error {
	item := c.items[index]

	if c.completeRemoval {
		c.Indexes.RemoveItem(item)
		item.SetParent(ParentRef{})
	} else {
		err := c.deleteChild(item)
		if err != nil {
			return err
		}
	}

	c.positions.RemoveFromMap(item)
	c.unwatch(item)
	c.items = slices.Delete(c.items, index, index+1)
	return nil
}

// deleteChild moves item to the deleted list. The caller owns the position
// map update.
func (c *Collection[C]) deleteChild(item C) error {
	err := ResetChildEditLevel(item, c.editLevel)
	if err != nil {
		return fmt.Errorf("reset child edit level: %w", err)
	}
	c.Indexes.RemoveItem(item)
	item.MarkDeleted()
	c.deleted = append(c.deleted, item)
	return nil
}

// Replace installs item at index. A different old item is soft deleted.
func (c *Collection[C]) Replace(index int, item C) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("replace at %d of %d: %w", index, len(c.items), ErrIndexOutOfRange)
	}

	old := c.items[index]
	if old != item {
		if c.Contains(item) || c.ContainsDeleted(item) {
			return ErrAlreadyContained
		}

		// item is adopted only once old is gone, so a failure leaves both
		// untouched
		restore := c.suppress()
		err := ResetChildEditLevel(item, c.editLevel)
		if err != nil {
			err = fmt.Errorf("reset child edit level: %w", err)
		} else {
			err = c.deleteChild(old)
		}
		restore()
		if err != nil {
			return err
		}

		c.adopt(item)
		c.unwatch(old)
		c.Indexes.InsertItem(item)
		c.positions.ReplaceInMap(old, item)
		c.items[index] = item
		c.watch(item)
	}

	c.raise(ListChanged{Type: ItemChanged, Index: index})
	return nil
}

// Clear soft deletes every live item, one by one from the front.
func (c *Collection[C]) Clear() error {
	for len(c.items) > 0 {
		err := c.RemoveAt(0)
		if err != nil {
			return err
		}
	}
	return nil
}

// undelete moves a deleted item back to the end of the live sequence,
// keeping its EditLevelAdded.
func (c *Collection[C]) undelete(deletedIndex int) {
	item := c.deleted[deletedIndex]
	c.deleted = slices.Delete(c.deleted, deletedIndex, deletedIndex+1)

	item.SetParent(c.Ref())
	c.Indexes.InsertItem(item)
	c.positions.InsertIntoMap(item, len(c.items))
	c.items = append(c.items, item)
	c.watch(item)
}

func (c *Collection[C]) purgeDeleted(deletedIndex int) {
	item := c.deleted[deletedIndex]
	c.deleted = slices.Delete(c.deleted, deletedIndex, deletedIndex+1)
	item.SetParent(ParentRef{})
}
