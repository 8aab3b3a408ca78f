package collection

import (
	"math"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/fulldump/biff"
)

func Test_IndexBTree_HappyPath(t *testing.T) {
	index := NewIndexBTree[*thing]("Rank", IndexSpec{Mode: IndexOnDemand, Ordered: true})

	items := []*thing{
		newThing("c", "nobody", 3),
		newThing("a", "nobody", 1),
		newThing("d", "nobody", 4),
		newThing("b", "nobody", 2),
	}
	index.Load(items)

	collect := func(r Range) []string {
		result := []string{}
		index.Range(r, func(item *thing) bool {
			result = append(result, item.Name)
			return true
		})
		return result
	}

	biff.AssertEqual(collect(Range{}), []string{"a", "b", "c", "d"})
	biff.AssertEqual(collect(Between(2, 3)), []string{"b", "c"})
	biff.AssertEqual(collect(AtLeast(3)), []string{"c", "d"})
	biff.AssertEqual(collect(AtMost(2.0)), []string{"a", "b"})
	biff.AssertEqual(index.Equal(newKey(4)), []*thing{items[2]})
}

func Test_IndexBTree_DuplicatesKeepInsertionOrder(t *testing.T) {
	index := NewIndexBTree[*thing]("Owner", IndexSpec{Mode: IndexOnDemand, Ordered: true})

	a := newThing("a", "same", 0)
	b := newThing("b", "same", 0)
	c := newThing("c", "same", 0)
	index.AddItem(a)
	index.AddItem(b)
	index.AddItem(c)
	index.RemoveItem(b)

	biff.AssertEqual(index.Equal(newKey("same")), []*thing{a, c})
	biff.AssertEqual(index.Len(), 2)
}

func Test_IndexBTree_MixedKinds(t *testing.T) {
	index := NewIndexBTree[*thing]("Owner", IndexSpec{Mode: IndexOnDemand, Ordered: true})

	index.AddItem(newThing("z", "zeta", 0))
	index.AddItem(newThing("a", "alpha", 0))

	result := []string{}
	index.Range(Between("a", "b"), func(item *thing) bool {
		result = append(result, item.Name)
		return true
	})
	biff.AssertEqual(result, []string{"a"})
}

func TestCollection_WhereRange(t *testing.T) {
	ordered := New[*thing](&Options{Indexes: map[string]IndexSpec{
		"Rank": {Mode: IndexOnDemand, Ordered: true},
	}})
	plain := New[*thing](nil)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 200; i++ {
		rank := r.Intn(50)
		biff.AssertNil(ordered.Add(newThing("n", "nobody", rank)))
		biff.AssertNil(plain.Add(newThing("n", "nobody", rank)))
	}

	ranks := func(items []*thing) []int {
		result := []int{}
		for _, item := range items {
			result = append(result, item.Rank)
		}
		return result
	}

	for _, q := range []Range{Between(10, 20), AtLeast(45), AtMost(3), {}} {
		x := ordered.WhereRange("Rank", q)
		y := plain.WhereRange("Rank", q)
		biff.AssertEqual(ranks(x), ranks(y))
	}
	biff.AssertTrue(ordered.Indexes.IndexLoaded("Rank"))
}

type tagged struct {
	Name  string
	Tags  []any
	Value any
}

func TestIndexSet_OrderedMatchesScan(t *testing.T) {
	items := []*tagged{
		{Name: "t0", Tags: []any{"1"}, Value: uint64(math.MaxUint64)},
		{Name: "t1", Tags: []any{1}, Value: float64(1 << 64)},
		{Name: "t2", Tags: []any{"a b"}, Value: int64(1<<53 + 1)},
		{Name: "t3", Tags: []any{"a", "b"}, Value: float64(1 << 53)},
		{Name: "t4", Tags: []any{map[string]any{"k": 1}}, Value: 2.5},
		{Name: "t5", Tags: []any{map[string]any{"k": "1"}}, Value: "2.5"},
		{Name: "t6", Tags: nil, Value: nil},
	}
	source := func() []*tagged { return items }

	ordered := NewIndexSet(map[string]IndexSpec{
		"Tags":  {Mode: IndexOnDemand, Ordered: true},
		"Value": {Mode: IndexOnDemand, Ordered: true},
	}, source)
	hashed := NewIndexSet(map[string]IndexSpec{
		"Tags":  {Mode: IndexOnDemand},
		"Value": {Mode: IndexOnDemand},
	}, source)
	plain := NewIndexSet[*tagged](nil, source)

	taggedNames := func(found []*tagged) []string {
		result := []string{}
		for _, item := range found {
			result = append(result, item.Name)
		}
		slices.Sort(result)
		return result
	}

	for _, item := range items {
		for _, property := range []string{"Tags", "Value"} {
			value, _ := propertyOf(item, property)
			expected, err := plain.WhereEqual(property, Const(value))
			biff.AssertNil(err)
			biff.AssertEqual(taggedNames(expected), []string{item.Name})

			found, err := ordered.WhereEqual(property, Const(value))
			biff.AssertNil(err)
			biff.AssertEqual(taggedNames(found), taggedNames(expected))

			found, err = hashed.WhereEqual(property, Const(value))
			biff.AssertNil(err)
			biff.AssertEqual(taggedNames(found), taggedNames(expected))
		}
	}

	for _, r := range []Range{
		Between(float64(1<<53), uint64(math.MaxUint64)),
		AtLeast(int64(1<<53 + 1)),
		AtMost(float64(1 << 53)),
		Between([]any{"a"}, []any{"z"}),
		{},
	} {
		for _, property := range []string{"Tags", "Value"} {
			biff.AssertEqual(
				taggedNames(ordered.WhereRange(property, r)),
				taggedNames(plain.WhereRange(property, r)),
			)
		}
	}
}
