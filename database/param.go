package database

import (
	"fmt"
	"reflect"
	"time"

	"github.com/TBye101/TUtils/errs"
)

// Kind identifies which scalar a Param holds.
type Kind uint8

// Scalar kinds a Param can carry.
const (
	KindNull Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindBool
	KindBytes
	KindTime
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Param is a named value bound into a parameterised statement.
//
// The name is stored without any backend sigil; the wrapper adds it.
// A Param is immutable once constructed.
type Param struct {
	name string
	kind Kind

	i     int64
	u     uint64
	f     float64
	s     string
	b     bool
	bytes []byte
	t     time.Time
}

// Int creates an integer parameter.
func Int(name string, v int64) Param {
	return Param{name: name, kind: KindInt, i: v}
}

// Uint creates an unsigned integer parameter. The value is narrowed to
// int64 when bound; see Param.bindValue.
func Uint(name string, v uint64) Param {
	return Param{name: name, kind: KindUint, u: v}
}

// Float creates a floating point parameter.
func Float(name string, v float64) Param {
	return Param{name: name, kind: KindFloat, f: v}
}

// String creates a text parameter.
func String(name string, v string) Param {
	return Param{name: name, kind: KindString, s: v}
}

// Bool creates a boolean parameter.
func Bool(name string, v bool) Param {
	return Param{name: name, kind: KindBool, b: v}
}

// Bytes creates a blob parameter. The slice is copied.
func Bytes(name string, v []byte) Param {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Param{name: name, kind: KindBytes, bytes: cp}
}

// Time creates a timestamp parameter.
func Time(name string, v time.Time) Param {
	return Param{name: name, kind: KindTime, t: v}
}

// Null creates a parameter bound as SQL NULL.
func Null(name string) Param {
	return Param{name: name, kind: KindNull}
}

// Named creates a parameter from a dynamically typed value.
//
// Supported types are nil, every Go integer type, float32, float64, string,
// bool, []byte and time.Time, plus defined types whose underlying type is
// one of the scalars or a byte slice. Any other type is a programming error
// and Named panics with *errs.UnexpectedMemberError.
func Named(name string, value any) Param {
	switch v := value.(type) {
	case nil:
		return Null(name)
	case int:
		return Int(name, int64(v))
	case int8:
		return Int(name, int64(v))
	case int16:
		return Int(name, int64(v))
	case int32:
		return Int(name, int64(v))
	case int64:
		return Int(name, v)
	case uint:
		return Uint(name, uint64(v))
	case uint8:
		return Uint(name, uint64(v))
	case uint16:
		return Uint(name, uint64(v))
	case uint32:
		return Uint(name, uint64(v))
	case uint64:
		return Uint(name, v)
	case float32:
		return Float(name, float64(v))
	case float64:
		return Float(name, v)
	case string:
		return String(name, v)
	case bool:
		return Bool(name, v)
	case []byte:
		return Bytes(name, v)
	case time.Time:
		return Time(name, v)
	default:
		if p, ok := namedByKind(name, value); ok {
			return p
		}
		panic(errs.NewUnexpectedMember(
			fmt.Sprintf("unsupported parameter type %T for %q", value, name), value))
	}
}

// namedByKind classifies defined types by their underlying kind, e.g.
// type AccountID int64 or type Blob []byte.
func namedByKind(name string, value any) (Param, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(name, v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(name, v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return Float(name, v.Float()), true
	case reflect.String:
		return String(name, v.String()), true
	case reflect.Bool:
		return Bool(name, v.Bool()), true
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return Bytes(name, v.Bytes()), true
		}
	}
	return Param{}, false
}

// Name returns the bind name without sigil.
func (p Param) Name() string {
	return p.name
}

// Kind returns the scalar kind held by the parameter.
func (p Param) Kind() Kind {
	return p.kind
}

// BindName returns the name as it appears in a statement, e.g. "@id".
func (p Param) BindName(sigil string) string {
	return sigil + p.name
}

// Value returns the value as supplied by the caller, before narrowing.
func (p Param) Value() any {
	switch p.kind {
	case KindNull:
		return nil
	case KindInt:
		return p.i
	case KindUint:
		return p.u
	case KindFloat:
		return p.f
	case KindString:
		return p.s
	case KindBool:
		return p.b
	case KindBytes:
		cp := make([]byte, len(p.bytes))
		copy(cp, p.bytes)
		return cp
	case KindTime:
		return p.t
	default:
		panic(errs.NewUnexpectedMember("unexpected parameter kind", p.kind))
	}
}

// bindValue returns the value handed to the driver.
//
// The backend cannot bind unsigned 64-bit integers, so KindUint is narrowed
// to int64 with two's complement wrap. Values above math.MaxInt64 are bound
// as negative numbers; converting the stored int64 back to uint64 recovers
// the original bits.
func (p Param) bindValue() any {
	switch p.kind {
	case KindUint:
		return int64(p.u) // #nosec G115 -- wrap is the documented binding rule
	case KindBytes:
		return p.bytes
	default:
		return p.Value()
	}
}

// String implements fmt.Stringer for diagnostics.
func (p Param) String() string {
	switch p.kind {
	case KindNull:
		return p.name + "=NULL"
	case KindBytes:
		return fmt.Sprintf("%s=<%d bytes>", p.name, len(p.bytes))
	default:
		return fmt.Sprintf("%s=%v", p.name, p.Value())
	}
}
