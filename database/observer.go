package database

import "time"

// StatementKind distinguishes reads from mutations in a StatementEvent.
type StatementKind string

// Statement kinds.
const (
	StatementSelect   StatementKind = "select"
	StatementNonQuery StatementKind = "non_query"
)

// Outcome is how a statement ended.
type Outcome string

// Statement outcomes.
const (
	// OutcomeSucceeded is a read that returned its rows.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeCommitted is a mutation whose validator accepted the row count.
	OutcomeCommitted Outcome = "committed"

	// OutcomeRolledBack is a mutation whose validator rejected the row count.
	OutcomeRolledBack Outcome = "rolled_back"

	// OutcomeFailed is any statement that hit an error.
	OutcomeFailed Outcome = "failed"
)

// StatementEvent describes one completed wrapper operation.
type StatementEvent struct {
	// ID is the operation id, also present in the log entries for the call.
	ID string

	Kind      StatementKind
	Statement string

	// Handler is the name of the validator or parser function.
	Handler string

	Params   []Param
	Outcome  Outcome
	Duration time.Duration
	Finished time.Time

	// Rows is the affected-row count for mutations and the returned-row
	// count for reads. It is -1 when the statement never produced a result.
	Rows int64

	// Err is set when Outcome is OutcomeFailed.
	Err error
}

// Observer receives an event after every wrapper operation, once the
// exclusion lock has been released. Implementations must be safe for
// concurrent use; a panicking observer is recovered and logged.
type Observer interface {
	ObserveStatement(event StatementEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event StatementEvent)

// ObserveStatement implements Observer.
func (f ObserverFunc) ObserveStatement(event StatementEvent) {
	f(event)
}
