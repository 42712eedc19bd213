// Package table is the filterable table engine behind the back-office list
// pages: declarative columns and dropdown filters, combined text + structured
// filtering, tri-state sorting, paging and id-keyed selection with CSV
// export. The engine holds server-side view state; handlers feed it data
// snapshots and user commands.
package table

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ResolvePath walks a dot path ("contactInfo.email") through structs, maps
// and pointers. Struct fields match by json tag first, then by field name.
// Any nil or missing hop resolves to nil rather than panicking, so sparse
// documents sort and filter as empty.
func ResolvePath(root any, path string) any {
	value := reflect.ValueOf(root)
	for _, hop := range strings.Split(path, ".") {
		value = resolveHop(value, hop)
		if !value.IsValid() {
			return nil
		}
	}
	if !value.IsValid() {
		return nil
	}
	return value.Interface()
}

func resolveHop(value reflect.Value, name string) reflect.Value {
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return reflect.Value{}
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct:
		return structField(value, name)
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return reflect.Value{}
		}
		return value.MapIndex(reflect.ValueOf(name))
	default:
		return reflect.Value{}
	}
}

func structField(value reflect.Value, name string) reflect.Value {
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			// Embedded documents flatten: look through them first. Even an
			// unexported embedded type promotes its exported fields.
			if found := resolveHop(value.Field(i), name); found.IsValid() {
				return found
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		if jsonName(field) == name || field.Name == name {
			return value.Field(i)
		}
	}
	return reflect.Value{}
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

// Stringify renders a resolved value the way the table displays it: nil and
// nil-ish values become the empty string, times render RFC 3339, everything
// else goes through fmt.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.RFC3339)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return ""
		}
	}
	return fmt.Sprintf("%v", value)
}
