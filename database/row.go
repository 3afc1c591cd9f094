package database

import (
	"fmt"
	"reflect"
)

// Row is a backend-neutral, read-only view over one materialized result row.
// Columns are addressed by zero-based position only.
type Row interface {
	// ColumnCount returns the number of columns in the row.
	ColumnCount() int

	// Column returns the raw value at index, or ErrColumnOutOfRange.
	Column(index int) (any, error)
}

// dataRow holds the values of one row copied out of the driver.
type dataRow struct {
	items []any
}

// newDataRow wraps items without copying; the caller hands over ownership.
func newDataRow(items []any) *dataRow {
	return &dataRow{items: items}
}

// ColumnCount implements Row.
func (r *dataRow) ColumnCount() int {
	return len(r.items)
}

// Column implements Row.
func (r *dataRow) Column(index int) (any, error) {
	if index < 0 || index >= len(r.items) {
		return nil, fmt.Errorf("%w: index %d, row has %d columns", ErrColumnOutOfRange, index, len(r.items))
	}
	return r.items[index], nil
}

// GetByIndex returns column index of row converted to T.
//
// Conversion rules, in order:
//   - a value already of type T is returned as is
//   - NULL becomes the zero value when T is a pointer, slice, map or
//     interface type, and ErrNullColumn otherwise
//   - numeric values convert to any numeric T with Go conversion semantics
//     (so an int64 read into uint64 keeps its bits)
//   - []byte and string convert to each other
//   - integers convert to bool (non-zero is true)
//
// Anything else yields ErrIncompatibleType.
func GetByIndex[T any](row Row, index int) (T, error) {
	var zero T

	raw, err := row.Column(index)
	if err != nil {
		return zero, err
	}

	if v, ok := raw.(T); ok {
		return v, nil
	}

	target := reflect.TypeOf((*T)(nil)).Elem()

	if raw == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			return zero, nil
		default:
			return zero, fmt.Errorf("%w: column %d into %s", ErrNullColumn, index, target)
		}
	}

	src := reflect.ValueOf(raw)
	switch {
	case isNumeric(src.Kind()) && isNumeric(target.Kind()):
		return src.Convert(target).Interface().(T), nil
	case isInteger(src.Kind()) && target.Kind() == reflect.Bool:
		return reflect.ValueOf(src.Int() != 0).Convert(target).Interface().(T), nil
	case src.Kind() == reflect.String && isByteSlice(target),
		isByteSlice(src.Type()) && target.Kind() == reflect.String:
		return src.Convert(target).Interface().(T), nil
	}

	return zero, fmt.Errorf("%w: column %d holds %T, want %s", ErrIncompatibleType, index, raw, target)
}

// MustGetByIndex is like GetByIndex but panics on error. Use it in parsers
// where a bad index or type is a programming error that should surface.
func MustGetByIndex[T any](row Row, index int) T {
	v, err := GetByIndex[T](row, index)
	if err != nil {
		panic(err)
	}
	return v
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func isByteSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}
