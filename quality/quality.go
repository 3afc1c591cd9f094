// Package quality provides small precondition helpers.
//
// Unlike assertions that vanish from release builds, these helpers return
// the supplied error so the caller decides whether a violated precondition
// is fatal:
//
//	if err := quality.Require(len(name) > 0, ErrEmptyName); err != nil {
//	    return err
//	}
package quality

import (
	"errors"
	"reflect"
)

// ErrNilValue is returned by NotNil when no specific error is supplied.
var ErrNilValue = errors.New("quality: value is nil")

// Require returns err when condition is false, nil otherwise.
func Require(condition bool, err error) error {
	if condition {
		return nil
	}
	return err
}

// NotNil returns ErrNilValue if any of values is nil, including typed nil
// pointers, maps, slices, funcs, channels and interfaces.
func NotNil(values ...any) error {
	for _, v := range values {
		if isNil(v) {
			return ErrNilValue
		}
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
