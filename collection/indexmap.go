package collection

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// IndexMap is a hash index: value hash -> set of items. Items missing the
// property are not indexed.
type IndexMap[C comparable] struct {
	property string
	spec     IndexSpec
	loaded   bool
	Entries  map[uint64]mapset.Set[C]
	keys     map[C]Key
}

func NewIndexMap[C comparable](property string, spec IndexSpec) *IndexMap[C] {
	return &IndexMap[C]{
		property: property,
		spec:     spec,
		Entries:  map[uint64]mapset.Set[C]{},
		keys:     map[C]Key{},
	}
}

func (i *IndexMap[C]) Property() string {
	return i.property
}

func (i *IndexMap[C]) Spec() IndexSpec {
	return i.spec
}

func (i *IndexMap[C]) Loaded() bool {
	return i.loaded
}

func (i *IndexMap[C]) Len() int {
	return len(i.keys)
}

func (i *IndexMap[C]) Load(items []C) {
	clear(i.Entries)
	clear(i.keys)
	for _, item := range items {
		i.AddItem(item)
	}
	i.loaded = true
}

func (i *IndexMap[C]) Clear() {
	clear(i.Entries)
	clear(i.keys)
	i.loaded = false
}

func (i *IndexMap[C]) AddItem(item C) {
	value, exists := propertyOf(item, i.property)
	if !exists {
		return
	}

	key := newKey(value)
	bucket, ok := i.Entries[key.Hash]
	if !ok {
		bucket = mapset.NewThreadUnsafeSet[C]()
		i.Entries[key.Hash] = bucket
	}
	bucket.Add(item)
	i.keys[item] = key
}

// RemoveItem uses the key recorded at insert time, so it works even when
// the property already changed.
func (i *IndexMap[C]) RemoveItem(item C) {
	key, ok := i.keys[item]
	if !ok {
		return
	}
	delete(i.keys, item)

	bucket, ok := i.Entries[key.Hash]
	if !ok {
		return
	}
	bucket.Remove(item)
	if bucket.Cardinality() == 0 {
		delete(i.Entries, key.Hash)
	}
}

func (i *IndexMap[C]) Equal(key Key) []C {
	result := []C{}

	bucket, ok := i.Entries[key.Hash]
	if !ok {
		return result
	}
	bucket.Each(func(item C) bool {
		// hash collisions share a bucket
		if sameValue(i.keys[item].Value, key.Value) {
			result = append(result, item)
		}
		return false
	})
	return result
}
