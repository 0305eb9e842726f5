package postgres

import (
	"reflect"
	"sync"

	"github.com/Masterminds/squirrel"
)

// Builder is the squirrel builder used by every repository.
var Builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var fieldCache sync.Map // reflect.Type -> []taggedField

type taggedField struct {
	index  []int
	column string
}

func taggedFields(t reflect.Type) []taggedField {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]taggedField)
	}

	var fields []taggedField
	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if f.Anonymous {
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			fields = append(fields, taggedField{index: f.Index, column: tag})
		}
	}
	fieldCache.Store(t, fields)
	return fields
}

// Columns lists the "db" tags of T in field order, including promoted fields.
func Columns[T any]() []string {
	fields := taggedFields(reflect.TypeOf((*T)(nil)).Elem())
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// StructToMap maps the "db" tags of v to field values. When only is given,
// the result is limited to those columns.
func StructToMap(v any, only ...string) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var keep map[string]struct{}
	if len(only) > 0 {
		keep = make(map[string]struct{}, len(only))
		for _, c := range only {
			keep[c] = struct{}{}
		}
	}

	fields := taggedFields(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		if keep != nil {
			if _, ok := keep[f.column]; !ok {
				continue
			}
		}
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// Without returns cols minus the excluded names.
func Without(cols []string, exclude ...string) []string {
	out := make([]string, 0, len(cols))
outer:
	for _, c := range cols {
		for _, e := range exclude {
			if c == e {
				continue outer
			}
		}
		out = append(out, c)
	}
	return out
}
