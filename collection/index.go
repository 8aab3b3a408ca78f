package collection

import (
	"errors"
	"fmt"
	"sync"
)

type IndexMode int

const (
	IndexNever IndexMode = iota
	IndexOnDemand
	IndexAlways
)

func (m IndexMode) String() string {
	switch m {
	case IndexNever:
		return "never"
	case IndexOnDemand:
		return "on-demand"
	case IndexAlways:
		return "always"
	}
	return "unknown"
}

// IndexSpec declares how a property is indexed.
type IndexSpec struct {
	Mode    IndexMode `json:"mode"`
	Ordered bool      `json:"ordered"`
}

// Key is a normalized value together with its hash.
type Key struct {
	Hash  uint64
	Value any
}

func newKey(value any) Key {
	normalized := normalizeValue(value)
	return Key{
		Hash:  hashValue(normalized),
		Value: normalized,
	}
}

// Index is one secondary index over the members of a collection.
type Index[C comparable] interface {
	Property() string
	Spec() IndexSpec
	Loaded() bool
	Load(items []C)
	Clear()
	AddItem(item C)
	RemoveItem(item C)
	Equal(key Key) []C
	Len() int
}

// RangeIndex is implemented by indexes able to answer range searches.
type RangeIndex[C comparable] interface {
	Index[C]
	Range(r Range, f func(item C) bool)
}

// Range bounds are inclusive. A missing bound is open.
type Range struct {
	From    any
	To      any
	HasFrom bool
	HasTo   bool
}

func Between(from, to any) Range {
	return Range{From: from, To: to, HasFrom: true, HasTo: true}
}

func AtLeast(from any) Range {
	return Range{From: from, HasFrom: true}
}

func AtMost(to any) Range {
	return Range{To: to, HasTo: true}
}

func (r Range) contains(value any) bool {
	normalized := normalizeValue(value)
	if r.HasFrom && compareValues(normalized, normalizeValue(r.From)) < 0 {
		return false
	}
	if r.HasTo && compareValues(normalized, normalizeValue(r.To)) > 0 {
		return false
	}
	return true
}

// Expr is the right-hand side of an equality search. A constant is hashed
// once when built; an evaluated expression is run once per search.
type Expr struct {
	key  *Key
	eval func() (any, error)
}

func Const(value any) Expr {
	key := newKey(value)
	return Expr{key: &key}
}

func Eval(f func() (any, error)) Expr {
	return Expr{eval: f}
}

func (e Expr) IsConst() bool {
	return e.key != nil
}

func (e Expr) resolve() (Key, error) {
	if e.key != nil {
		return *e.key, nil
	}
	if e.eval == nil {
		return newKey(nil), nil
	}
	value, err := e.eval()
	if err != nil {
		return Key{}, fmt.Errorf("evaluate right side: %w", err)
	}
	return newKey(value), nil
}

var ErrIndexNotFound = errors.New("index not found")

// IndexSet holds the named indexes of one collection. Searches over loaded
// indexes may run concurrently; the first search after a clear builds the
// index and is therefore a write.
type IndexSet[C comparable] struct {
	mutex   *sync.RWMutex
	specs   map[string]IndexSpec
	indexes map[string]Index[C]
	source  func() []C
}

func NewIndexSet[C comparable](specs map[string]IndexSpec, source func() []C) *IndexSet[C] {
	s := &IndexSet[C]{
		mutex:   &sync.RWMutex{},
		specs:   map[string]IndexSpec{},
		indexes: map[string]Index[C]{},
		source:  source,
	}

	for property, spec := range specs {
		s.specs[property] = spec
		if spec.Mode == IndexNever {
			continue
		}
		var index Index[C]
		if spec.Ordered {
			index = NewIndexBTree[C](property, spec)
		} else {
			index = NewIndexMap[C](property, spec)
		}
		if spec.Mode == IndexAlways {
			index.Load(source())
		}
		s.indexes[property] = index
	}

	return s
}

func (s *IndexSet[C]) Specs() map[string]IndexSpec {
	result := make(map[string]IndexSpec, len(s.specs))
	for k, v := range s.specs {
		result[k] = v
	}
	return result
}

func (s *IndexSet[C]) HasIndex(property string) bool {
	_, ok := s.indexes[property]
	return ok
}

func (s *IndexSet[C]) IndexLoaded(property string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	index, ok := s.indexes[property]
	return ok && index.Loaded()
}

func (s *IndexSet[C]) InsertItem(item C) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, index := range s.indexes {
		if index.Loaded() {
			index.AddItem(item)
		}
	}
}

func (s *IndexSet[C]) RemoveItem(item C) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, index := range s.indexes {
		if index.Loaded() {
			index.RemoveItem(item)
		}
	}
}

// ReIndexItem refreshes item after one of its properties changed.
func (s *IndexSet[C]) ReIndexItem(item C, property string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, index := range s.indexes {
		if !index.Loaded() {
			continue
		}
		if property != "" && property != name {
			continue
		}
		index.RemoveItem(item)
		index.AddItem(item)
	}
}

func (s *IndexSet[C]) LoadIndex(property string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	index, ok := s.indexes[property]
	if !ok {
		return fmt.Errorf("load '%s': %w", property, ErrIndexNotFound)
	}
	if !index.Loaded() {
		index.Load(s.source())
	}
	return nil
}

func (s *IndexSet[C]) ClearIndex(property string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	index, ok := s.indexes[property]
	if !ok {
		return fmt.Errorf("clear '%s': %w", property, ErrIndexNotFound)
	}
	index.Clear()
	return nil
}

func (s *IndexSet[C]) LoadAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, index := range s.indexes {
		if !index.Loaded() {
			index.Load(s.source())
		}
	}
}

func (s *IndexSet[C]) ClearAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, index := range s.indexes {
		index.Clear()
	}
}

// ensureLoaded returns the loaded index for property, building it on first
// use. It returns nil when no index applies.
func (s *IndexSet[C]) ensureLoaded(property string) Index[C] {
	s.mutex.RLock()
	index, ok := s.indexes[property]
	loaded := ok && index.Loaded()
	s.mutex.RUnlock()

	if !ok {
		return nil
	}
	if loaded {
		return index
	}

	s.mutex.Lock()
	if !index.Loaded() {
		index.Load(s.source())
	}
	s.mutex.Unlock()

	return index
}

// WhereEqual returns the live items whose property equals rhs. Without an
// index it degrades to a linear scan with the same equality predicate.
func (s *IndexSet[C]) WhereEqual(property string, rhs Expr) ([]C, error) {
	key, err := rhs.resolve()
	if err != nil {
		return nil, err
	}

	index := s.ensureLoaded(property)
	if index == nil {
		return s.scanEqual(property, key), nil
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return index.Equal(key), nil
}

func (s *IndexSet[C]) scanEqual(property string, key Key) []C {
	result := []C{}
	for _, item := range s.source() {
		value, ok := propertyOf(item, property)
		if !ok {
			continue
		}
		if sameValue(value, key.Value) {
			result = append(result, item)
		}
	}
	return result
}

// WhereRange returns the live items whose property falls inside r, using an
// ordered index when one is declared.
func (s *IndexSet[C]) WhereRange(property string, r Range) []C {
	result := []C{}

	if spec, ok := s.specs[property]; ok && spec.Ordered {
		if ranged, ok := s.ensureLoaded(property).(RangeIndex[C]); ok {
			s.mutex.RLock()
			defer s.mutex.RUnlock()
			ranged.Range(r, func(item C) bool {
				result = append(result, item)
				return true
			})
			return result
		}
	}

	for _, item := range s.source() {
		value, ok := propertyOf(item, property)
		if !ok {
			continue
		}
		if r.contains(value) {
			result = append(result, item)
		}
	}
	return result
}
