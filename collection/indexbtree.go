package collection

import (
	"cmp"
	"math"

	"github.com/google/btree"
)

// IndexBtree is an ordered index. Entries with the same value are kept in
// insertion order through a per-index sequence number.
type IndexBtree[C comparable] struct {
	property string
	spec     IndexSpec
	loaded   bool
	Btree    *btree.BTreeG[*ItemOrdered[C]]
	entries  map[C]*ItemOrdered[C]
	seq      uint64
}

type ItemOrdered[C comparable] struct {
	Item  C
	Value any
	Seq   uint64
}

func lessItemOrdered[C comparable](a, b *ItemOrdered[C]) bool {
	c := compareValues(a.Value, b.Value)
	if c != 0 {
		return c < 0
	}
	return cmp.Less(a.Seq, b.Seq)
}

func NewIndexBTree[C comparable](property string, spec IndexSpec) *IndexBtree[C] {
	return &IndexBtree[C]{
		property: property,
		spec:     spec,
		Btree:    btree.NewG(32, lessItemOrdered[C]),
		entries:  map[C]*ItemOrdered[C]{},
	}
}

func (b *IndexBtree[C]) Property() string {
	return b.property
}

func (b *IndexBtree[C]) Spec() IndexSpec {
	return b.spec
}

func (b *IndexBtree[C]) Loaded() bool {
	return b.loaded
}

func (b *IndexBtree[C]) Len() int {
	return b.Btree.Len()
}

func (b *IndexBtree[C]) Load(items []C) {
	b.Btree.Clear(false)
	clear(b.entries)
	for _, item := range items {
		b.AddItem(item)
	}
	b.loaded = true
}

func (b *IndexBtree[C]) Clear() {
	b.Btree.Clear(false)
	clear(b.entries)
	b.loaded = false
}

func (b *IndexBtree[C]) AddItem(item C) {
	value, exists := propertyOf(item, b.property)
	if !exists {
		return
	}

	b.seq++
	entry := &ItemOrdered[C]{
		Item:  item,
		Value: normalizeValue(value),
		Seq:   b.seq,
	}
	b.Btree.ReplaceOrInsert(entry)
	b.entries[item] = entry
}

func (b *IndexBtree[C]) RemoveItem(item C) {
	entry, ok := b.entries[item]
	if !ok {
		return
	}
	delete(b.entries, item)
	b.Btree.Delete(entry)
}

func (b *IndexBtree[C]) Equal(key Key) []C {
	result := []C{}
	pivot := &ItemOrdered[C]{Value: key.Value, Seq: 0}
	b.Btree.AscendGreaterOrEqual(pivot, func(entry *ItemOrdered[C]) bool {
		if compareValues(entry.Value, key.Value) != 0 {
			return false
		}
		if sameValue(entry.Value, key.Value) {
			result = append(result, entry.Item)
		}
		return true
	})
	return result
}

// Range walks the items inside r in ascending value order.
func (b *IndexBtree[C]) Range(r Range, f func(item C) bool) {
	iterator := func(entry *ItemOrdered[C]) bool {
		return f(entry.Item)
	}

	pivotFrom := &ItemOrdered[C]{Value: normalizeValue(r.From), Seq: 0}
	pivotTo := &ItemOrdered[C]{Value: normalizeValue(r.To), Seq: math.MaxUint64}

	switch {
	case !r.HasFrom && !r.HasTo:
		b.Btree.Ascend(iterator)
	case r.HasFrom && !r.HasTo:
		b.Btree.AscendGreaterOrEqual(pivotFrom, iterator)
	case !r.HasFrom && r.HasTo:
		b.Btree.AscendLessThan(pivotTo, iterator)
	default:
		b.Btree.AscendRange(pivotFrom, pivotTo, iterator)
	}
}
