package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TBye101/TUtils/logging"
)

// Sigil is the bind-variable prefix statements use for named parameters,
// e.g. "UPDATE accounts SET balance = @balance WHERE id = @id".
const Sigil = "@"

// Option configures a SQLiteWrapper.
type Option func(*SQLiteWrapper)

// WithLogger sets the logger used for statement diagnostics and failures.
// Without it the wrapper logs nothing.
func WithLogger(logger Logger) Option {
	return func(w *SQLiteWrapper) {
		if logger != nil {
			w.log = logger
		}
	}
}

// WithObserver adds an observer notified after every operation.
// It may be given more than once.
func WithObserver(observer Observer) Option {
	return func(w *SQLiteWrapper) {
		if observer != nil {
			w.observers = append(w.observers, observer)
		}
	}
}

// SQLiteWrapper is the SQLite implementation of Wrapper.
//
// It owns one connection for its whole lifetime and runs at most one
// operation on it at a time: a single mutex covers begin, execute, validate
// and commit or rollback for mutations, and execute plus materialization
// for reads. The affected-row check and the commit decision never
// interleave with another statement.
//
// Acquiring the lock cannot be cancelled. A statement that never returns
// holds the lock; ctx deadlines only reach the driver.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type SQLiteWrapper struct {
	db   *DB
	conn *sql.Conn

	// mu guards conn, its current transaction and closed.
	mu     sync.Mutex
	closed bool

	closeOnce sync.Once
	closeErr  error

	log       Logger
	observers []Observer
}

var _ Wrapper = (*SQLiteWrapper)(nil)

// NewWrapper pins a connection from db and returns a wrapper around it.
// The wrapper takes ownership of db and closes it in Close.
//
// Parameters:
//   - ctx: Context for acquiring the connection
//   - db: Open database handle
//   - opts: Logger and observers
//
// Returns:
//   - *SQLiteWrapper: Ready wrapper
//   - error: If no connection could be acquired
func NewWrapper(ctx context.Context, db *DB, opts ...Option) (*SQLiteWrapper, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}

	w := &SQLiteWrapper{
		db:   db,
		conn: conn,
		log:  nopLogger{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// OpenWrapper opens the database described by cfg and wraps it.
func OpenWrapper(ctx context.Context, cfg Config, opts ...Option) (*SQLiteWrapper, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	w, err := NewWrapper(ctx, db, opts...)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	return w, nil
}

// Path returns the filesystem path to the database file.
func (w *SQLiteWrapper) Path() string {
	return w.db.Path()
}

// Stats returns statistics of the underlying handle.
func (w *SQLiteWrapper) Stats() sql.DBStats {
	return w.db.Stats()
}

// Query implements Wrapper.
//
// Rows are fully materialized while the lock is held; visitor runs after
// the lock is released. Failures are logged and returned.
func (w *SQLiteWrapper) Query(ctx context.Context, query string, visitor RowVisitor, params ...Param) error {
	id := uuid.NewString()
	handler := "<nil>"
	if visitor != nil {
		handler = visitor.Name()
	}
	w.logStatement(id, "executing SQL query", query, handler, params)

	start := time.Now()
	rows, err := w.readRows(ctx, query, visitor, params)
	if err == nil {
		err = visitRows(rows, visitor)
	}

	event := StatementEvent{
		ID:        id,
		Kind:      StatementSelect,
		Statement: query,
		Handler:   handler,
		Params:    params,
		Outcome:   OutcomeSucceeded,
		Duration:  time.Since(start),
		Finished:  time.Now(),
		Rows:      int64(len(rows)),
	}
	if err != nil {
		event.Outcome = OutcomeFailed
		event.Err = err
		if rows == nil {
			event.Rows = -1
		}
		w.logFailure(err, fmt.Sprintf("an error occurred while executing a SQL query (op %s)", id))
	}
	w.notify(event)

	return err
}

// readRows executes query under the lock and copies every row out of the driver.
func (w *SQLiteWrapper) readRows(ctx context.Context, query string, visitor RowVisitor, params []Param) ([]Row, error) {
	if query == "" {
		return nil, ErrEmptyStatement
	}
	if visitor == nil {
		return nil, ErrNilParser
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	rs, err := w.conn.QueryContext(ctx, query, bindArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rs.Close() //nolint:errcheck // rs.Err reports iteration failures

	columns, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	rows := []Row{}
	for rs.Next() {
		items := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range items {
			dest[i] = &items[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rows = append(rows, newDataRow(items))
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return rows, nil
}

func visitRows(rows []Row, visitor RowVisitor) error {
	for i, row := range rows {
		if err := visitor.VisitRow(row); err != nil {
			return fmt.Errorf("parsing row %d: %w", i, err)
		}
	}
	return nil
}

// ExecNonQuery implements Wrapper.
//
// The statement runs in a transaction that is always finished before the
// call returns: committed when validator accepts the affected-row count,
// rolled back when it rejects it, panics, or anything fails.
func (w *SQLiteWrapper) ExecNonQuery(ctx context.Context, statement string, validator Validator, params ...Param) (MutationResult, error) {
	id := uuid.NewString()
	handler := funcName(validator)
	w.logStatement(id, "executing non-query SQL", statement, handler, params)

	start := time.Now()
	res, err := w.runNonQuery(ctx, statement, validator, params)

	event := StatementEvent{
		ID:        id,
		Kind:      StatementNonQuery,
		Statement: statement,
		Handler:   handler,
		Params:    params,
		Duration:  time.Since(start),
		Finished:  time.Now(),
		Rows:      res.RowsAffected,
	}
	switch {
	case err != nil:
		event.Outcome = OutcomeFailed
		event.Err = err
		w.logFailure(err, fmt.Sprintf("an error occurred while attempting to execute a non-query SQL statement (op %s)", id))
	case res.Committed:
		event.Outcome = OutcomeCommitted
	default:
		event.Outcome = OutcomeRolledBack
		w.safely("an error occurred while logging a rolled back non-query", func() {
			w.log.Write(logging.LevelWarning, "non-query rolled back: validator rejected result",
				"op_id", id,
				"rows_affected", res.RowsAffected,
				"validator", handler,
			)
		})
	}
	w.notify(event)

	return res, err
}

// runNonQuery is the locked begin→execute→validate→commit/rollback sequence.
func (w *SQLiteWrapper) runNonQuery(ctx context.Context, statement string, validator Validator, params []Param) (res MutationResult, err error) {
	res.RowsAffected = -1

	if statement == "" {
		return res, ErrEmptyStatement
	}
	if validator == nil {
		return res, ErrNilValidator
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return res, ErrClosed
	}

	tx, err := w.conn.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("starting transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rolling back transaction: %w", rbErr))
		}
	}()

	result, err := tx.ExecContext(ctx, statement, bindArgs(params)...)
	if err != nil {
		return res, fmt.Errorf("executing statement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return res, fmt.Errorf("reading rows affected: %w", err)
	}
	res.RowsAffected = rowsAffected

	accepted, err := callValidator(validator, rowsAffected)
	if err != nil || !accepted {
		return res, err
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	res.Committed = true

	return res, nil
}

// callValidator runs validator, turning a panic into ErrValidatorPanic.
func callValidator(validator Validator, rowsAffected int64) (accepted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrValidatorPanic, r)
		}
	}()
	return validator(rowsAffected), nil
}

// AttemptNonQuery implements Wrapper.
func (w *SQLiteWrapper) AttemptNonQuery(ctx context.Context, statement string, validator Validator, params ...Param) bool {
	res, err := w.ExecNonQuery(ctx, statement, validator, params...)
	return err == nil && res.Committed
}

// Ping verifies the pinned connection is alive. It takes the exclusion lock.
func (w *SQLiteWrapper) Ping(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if err := w.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close releases the connection and the database handle exactly once.
// It waits for an in-flight operation to finish. Later calls return the
// result of the first.
func (w *SQLiteWrapper) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		w.closed = true

		var errs []error
		if err := w.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, fmt.Errorf("closing connection: %w", err))
		}
		if err := w.db.Close(); err != nil {
			errs = append(errs, err)
		}
		w.closeErr = errors.Join(errs...)
	})
	return w.closeErr
}

// bindArgs turns params into driver arguments. go-sqlite3 resolves a named
// argument against the ":", "@" and "$" prefixed bind names.
func bindArgs(params []Param) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = sql.Named(p.name, p.bindValue())
	}
	return args
}

// logStatement writes the statement, its handler and its parameters.
// Logging must never abort a database call.
func (w *SQLiteWrapper) logStatement(id, message, statement, handler string, params []Param) {
	w.safely("an error occurred while logging a SQL command's information", func() {
		w.log.Write(logging.LevelInformation, message,
			"op_id", id,
			"sql", statement,
			"handler", handler,
		)
		for _, p := range params {
			w.log.Write(logging.LevelDebug, "statement parameter",
				"op_id", id,
				"param", Sigil+p.String(),
				"kind", p.Kind().String(),
			)
		}
	})
}

// logFailure reports err. A logger that panics here has nothing left to
// report to, so the panic is dropped.
func (w *SQLiteWrapper) logFailure(err error, message string) {
	defer func() { _ = recover() }()
	w.log.WriteException(err, message)
}

// notify hands event to every observer.
func (w *SQLiteWrapper) notify(event StatementEvent) {
	for _, o := range w.observers {
		w.safely("statement observer panicked", func() {
			o.ObserveStatement(event)
		})
	}
}

// safely runs fn, reporting a panic through the logger. A panic while
// reporting is dropped.
func (w *SQLiteWrapper) safely(message string, fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		defer func() { _ = recover() }()
		w.log.WriteException(fmt.Errorf("recovered panic: %v", r), message)
	}()
	fn()
}
