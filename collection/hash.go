package collection

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// normalizeValue folds values that compare equal into one representation:
// every integer kind becomes int64 (uint64 when it does not fit), integral
// floats become int64, named scalar types lose their names.
func normalizeValue(value any) any {
	if value == nil {
		return nil
	}
	if t, ok := value.(time.Time); ok {
		return t.UTC()
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return normalizeValue(v.Elem().Interface())
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return u
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return int64(f)
		}
		return f
	case reflect.String:
		return v.String()
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		list := make([]any, v.Len())
		for i := range list {
			list[i] = normalizeValue(v.Index(i).Interface())
		}
		return list
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		m := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = normalizeValue(iter.Value().Interface())
		}
		return m
	case reflect.Struct:
		m := map[string]any{}
		for _, sf := range reflect.VisibleFields(v.Type()) {
			if !sf.IsExported() || sf.Anonymous {
				continue
			}
			f, err := v.FieldByIndexErr(sf.Index)
			if err != nil {
				continue
			}
			m[sf.Name] = normalizeValue(f.Interface())
		}
		return m
	}
	return value
}

// hashValue computes the bucket key of a normalized value.
func hashValue(normalized any) uint64 {
	encoded, err := encodeValue(normalized)
	if err != nil {
		return xxhash.Sum64String(fmt.Sprintf("%T:%v", normalized, normalized))
	}
	return xxhash.Sum64(encoded)
}

// encodeValue is the canonical byte form of a normalized value: equal values
// encode to equal bytes.
func encodeValue(normalized any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(normalized)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(normalizeValue(a), normalizeValue(b))
}

func valueRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, uint64, float64:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	}
	return 5
}

// bigNumber is the exact value of a normalized number.
func bigNumber(v any) *big.Float {
	switch n := v.(type) {
	case int64:
		return new(big.Float).SetInt64(n)
	case uint64:
		return new(big.Float).SetUint64(n)
	case float64:
		return new(big.Float).SetFloat64(n)
	}
	return new(big.Float)
}

// compareNumbers orders numbers by their exact value. NaN sorts first.
func compareNumbers(a, b any) int {
	aNaN, bNaN := isNaN(a), isNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	}
	return bigNumber(a).Cmp(bigNumber(b))
}

func isNaN(v any) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// compareValues orders two normalized values. Values of different kinds are
// ordered by kind: nil, bool, number, string, time, anything else. Lists,
// maps and structs are ordered by their canonical encoding.
func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch a := a.(type) {
	case nil:
		return 0
	case bool:
		b := b.(bool)
		if a == b {
			return 0
		}
		if !a {
			return -1
		}
		return 1
	case int64:
		if b, ok := b.(int64); ok {
			return cmp.Compare(a, b)
		}
	case string:
		return cmp.Compare(a, b.(string))
	case time.Time:
		return a.Compare(b.(time.Time))
	}

	if ra == 2 {
		return compareNumbers(a, b)
	}

	ea, errA := encodeValue(a)
	eb, errB := encodeValue(b)
	if errA == nil && errB == nil {
		return bytes.Compare(ea, eb)
	}
	return cmp.Compare(fmt.Sprintf("%T:%v", a, a), fmt.Sprintf("%T:%v", b, b))
}
