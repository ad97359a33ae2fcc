package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// rowLayout is the column view of a struct: every field tagged `db:"name"`,
// with fields of anonymous members flattened in declaration order.
type rowLayout struct {
	columns []string
	paths   [][]int
}

var layouts sync.Map // reflect.Type -> *rowLayout

func layoutOf(t reflect.Type) *rowLayout {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return &rowLayout{}
	}
	if l, ok := layouts.Load(t); ok {
		return l.(*rowLayout)
	}

	l := &rowLayout{}
	collectColumns(t, nil, l)
	actual, _ := layouts.LoadOrStore(t, l)
	return actual.(*rowLayout)
}

func collectColumns(t reflect.Type, prefix []int, l *rowLayout) {
	for i := range t.NumField() {
		f := t.Field(i)
		path := append(slices.Clip(prefix), i)

		if f.Anonymous {
			inner := f.Type
			if inner.Kind() == reflect.Ptr {
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				collectColumns(inner, path, l)
			}
			continue
		}

		name := f.Tag.Get("db")
		if name == "" || name == "-" {
			continue
		}
		l.columns = append(l.columns, name)
		l.paths = append(l.paths, path)
	}
}

// ExtractDBColumns lists the column names of T for SELECT and RETURNING
// clauses. Repositories resolve it once in their constructors.
//
//	cols := ExtractDBColumns[inventory.Batch]() // id, product_id, warehouse_id, ...
//
// Non-struct types yield nil.
func ExtractDBColumns[T any]() []string {
	cols := layoutOf(reflect.TypeFor[T]()).columns
	if len(cols) == 0 {
		return nil
	}
	return slices.Clone(cols)
}

// StructToMap returns column -> value for v, suitable for squirrel SetMap.
// Columns reached through a nil embedded pointer are left out.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	l := layoutOf(rv.Type())
	row := make(map[string]any, len(l.columns))
	for i, path := range l.paths {
		field, err := rv.FieldByIndexErr(path)
		if err != nil {
			continue
		}
		row[l.columns[i]] = field.Interface()
	}
	return row
}
