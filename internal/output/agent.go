package output

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// ApplyAgentOptions applies --result-limit and --result-sort-by to slices.
// Anything else is returned unchanged.
func ApplyAgentOptions(ctx context.Context, data interface{}) interface{} {
	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	if data == nil || (limit == 0 && sortBy == "") {
		return data
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return data
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return data
	}
	return applyToSlice(v, limit, sortBy, desc).Interface()
}

// applyToSlice copies, sorts, and limits a slice value.
func applyToSlice(v reflect.Value, limit int, sortBy string, desc bool) reflect.Value {
	n := v.Len()
	// Named slice types keep their methods, e.g. Tabular.
	typ := reflect.SliceOf(v.Type().Elem())
	if v.Kind() == reflect.Slice {
		typ = v.Type()
	}
	out := reflect.MakeSlice(typ, n, n)
	reflect.Copy(out, v)

	if sortBy != "" && n > 1 {
		path := strings.Split(sortBy, ".")
		keys := make([]interface{}, n)
		ok := make([]bool, n)
		for i := 0; i < n; i++ {
			keys[i], ok[i] = lookup(out.Index(i), path)
		}
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		// Missing keys sort last in either direction.
		sort.SliceStable(idx, func(a, b int) bool {
			ia, ib := idx[a], idx[b]
			if !ok[ia] || !ok[ib] {
				return ok[ia] && !ok[ib]
			}
			c := compareValues(keys[ia], keys[ib])
			if desc {
				return c > 0
			}
			return c < 0
		})
		sorted := reflect.MakeSlice(out.Type(), n, n)
		for i, j := range idx {
			sorted.Index(i).Set(out.Index(j))
		}
		out = sorted
	}

	if limit > 0 && limit < out.Len() {
		return out.Slice(0, limit)
	}
	return out
}

// lookup follows a dotted path through maps and structs. Struct fields
// match by json tag or name, ignoring case, "_" and "-".
func lookup(v reflect.Value, path []string) (interface{}, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if len(path) == 0 {
		return v.Interface(), true
	}

	want := normalizeName(path[0])
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		iter := v.MapRange()
		for iter.Next() {
			if normalizeName(iter.Key().String()) == want {
				return lookup(iter.Value(), path[1:])
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.IsExported() && normalizeName(fieldLabel(f)) == want {
				return lookup(v.Field(i), path[1:])
			}
		}
	}
	return nil, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
}

func compareValues(a, b interface{}) int {
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	case int:
		if vb, ok := b.(int); ok {
			return cmp.Compare(va, vb)
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return cmp.Compare(va, vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return cmp.Compare(va, vb)
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
