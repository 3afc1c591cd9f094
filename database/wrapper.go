package database

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// Wrapper is the capability contract of a database backend: parameterised
// reads that hand back parsed objects, and parameterised mutations whose
// commit is decided by a caller-supplied validator.
//
// Implementations serialise all operations on their connection.
type Wrapper interface {
	// Query executes a read-only statement, materializes every returned row
	// and then passes each row to visitor in backend order.
	Query(ctx context.Context, query string, visitor RowVisitor, params ...Param) error

	// ExecNonQuery executes statement inside a transaction and commits only
	// if validator accepts the affected-row count. The error is non-nil only
	// for failures; a rejected count returns Committed false and a nil error.
	ExecNonQuery(ctx context.Context, statement string, validator Validator, params ...Param) (MutationResult, error)

	// AttemptNonQuery is ExecNonQuery reduced to a boolean: true only when
	// the mutation was committed. It never panics on backend failure.
	AttemptNonQuery(ctx context.Context, statement string, validator Validator, params ...Param) bool

	// Close releases the connection. Safe to call more than once.
	Close() error
}

// Validator decides from the affected-row count whether a mutation commits.
type Validator func(rowsAffected int64) bool

// AcceptAll commits regardless of the affected-row count.
func AcceptAll(int64) bool {
	return true
}

// ExactlyOne commits only when exactly one row was affected.
func ExactlyOne(rowsAffected int64) bool {
	return rowsAffected == 1
}

// Exactly returns a validator that commits only when n rows were affected.
func Exactly(n int64) Validator {
	return func(rowsAffected int64) bool {
		return rowsAffected == n
	}
}

// AtMost returns a validator that commits when no more than n rows were affected.
func AtMost(n int64) Validator {
	return func(rowsAffected int64) bool {
		return rowsAffected <= n
	}
}

// MutationResult reports what happened to a mutation.
type MutationResult struct {
	Committed    bool
	RowsAffected int64
}

// RowVisitor receives the rows of a read.
type RowVisitor interface {
	// VisitRow is called once per row, in backend order. Returning an
	// error stops the visit and fails the read.
	VisitRow(row Row) error

	// Name identifies the visitor in diagnostic logs.
	Name() string
}

// Parser converts one row into a value.
type Parser[R any] func(row Row) (R, error)

// collector is the RowVisitor behind Select: it runs a Parser per row.
type collector[R any] struct {
	parser Parser[R]
	name   string
	out    []R
}

func (c *collector[R]) VisitRow(row Row) error {
	v, err := c.parser(row)
	if err != nil {
		return err
	}
	c.out = append(c.out, v)
	return nil
}

func (c *collector[R]) Name() string {
	return c.name
}

// Select runs query on w and parses every row with parser, preserving
// backend row order. Errors from execution, materialization or parser are
// returned; a read with no rows returns an empty slice and nil.
func Select[R any](ctx context.Context, w Wrapper, query string, parser Parser[R], params ...Param) ([]R, error) {
	// A nil visitor lets the wrapper report the missing parser itself.
	var visitor RowVisitor
	c := &collector[R]{parser: parser, name: funcName(parser), out: []R{}}
	if parser != nil {
		visitor = c
	}

	if err := w.Query(ctx, query, visitor, params...); err != nil {
		return []R{}, err
	}
	return c.out, nil
}

// SelectData is Select with failures collapsed to an empty slice, so an
// empty result means "no rows or failure". The wrapper logs every failure.
// Panics raised by parser (e.g. from MustGetByIndex) are not recovered.
func SelectData[R any](ctx context.Context, w Wrapper, query string, parser Parser[R], params ...Param) []R {
	out, err := Select(ctx, w, query, parser, params...)
	if err != nil {
		return []R{}
	}
	return out
}

// funcName returns the short name of a function value for logging,
// e.g. "database.ExactlyOne" or "store.(*Accounts).parse-fm".
func funcName(fn any) string {
	if fn == nil {
		return "<nil>"
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "<unknown>"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
