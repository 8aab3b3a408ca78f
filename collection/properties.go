package collection

import (
	"fmt"
	"reflect"
	"strings"
)

// propertyOf reads a named property from item, preferring PropertyGetter and
// falling back to an exported (possibly promoted) struct field.
func propertyOf(item any, name string) (any, bool) {
	if g, ok := item.(PropertyGetter); ok {
		return g.Property(name)
	}

	v, ok := structValue(item)
	if !ok {
		return nil, false
	}
	sf, ok := v.Type().FieldByName(name)
	if !ok || !sf.IsExported() {
		return nil, false
	}
	f, err := v.FieldByIndexErr(sf.Index)
	if err != nil {
		return nil, false
	}
	return f.Interface(), true
}

func propertiesOf(item any) map[string]any {
	if l, ok := item.(PropertyLister); ok {
		return l.Properties()
	}

	result := map[string]any{}
	v, ok := structValue(item)
	if !ok {
		return result
	}
	for _, sf := range reflect.VisibleFields(v.Type()) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		f, err := v.FieldByIndexErr(sf.Index)
		if err != nil {
			continue
		}
		result[sf.Name] = f.Interface()
	}
	return result
}

func structValue(item any) (reflect.Value, bool) {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}

// IndexesOf reads index declarations from `index` struct tags of T:
//
//	Name  string `index:"always"`
//	Owner string `index:"on-demand"`
//	Rank  int    `index:"on-demand,ordered"`
//
// A malformed tag is a programming error and panics.
func IndexesOf[T any]() map[string]IndexSpec {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	specs := map[string]IndexSpec{}
	if t.Kind() != reflect.Struct {
		return specs
	}
	for _, sf := range reflect.VisibleFields(t) {
		tag, ok := sf.Tag.Lookup("index")
		if !ok || !sf.IsExported() {
			continue
		}
		spec, err := ParseIndexSpec(tag)
		if err != nil {
			panic(fmt.Sprintf("index tag of %s.%s: %s", t.Name(), sf.Name, err.Error()))
		}
		specs[sf.Name] = spec
	}
	return specs
}

// ParseIndexSpec parses "mode[,ordered]".
func ParseIndexSpec(tag string) (IndexSpec, error) {
	spec := IndexSpec{}
	parts := strings.Split(tag, ",")
	switch strings.TrimSpace(parts[0]) {
	case "never", "-":
		spec.Mode = IndexNever
	case "on-demand", "ondemand", "":
		spec.Mode = IndexOnDemand
	case "always":
		spec.Mode = IndexAlways
	default:
		return spec, fmt.Errorf("unknown index mode '%s'", parts[0])
	}
	for _, option := range parts[1:] {
		switch strings.TrimSpace(option) {
		case "ordered":
			spec.Ordered = true
		default:
			return spec, fmt.Errorf("unknown index option '%s'", option)
		}
	}
	return spec, nil
}

// PropertyOf reads a named property the same way indexes and queries do.
func PropertyOf(item any, name string) (any, bool) {
	return propertyOf(item, name)
}

// PropertiesOf lists every readable property of item.
func PropertiesOf(item any) map[string]any {
	return propertiesOf(item)
}
