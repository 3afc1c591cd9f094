package database

import (
	"context"
	"errors"
	"math"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TBye101/TUtils/logging"
)

// TestOpenWrapper verifies the wrapper opens a database file.
func TestOpenWrapper(t *testing.T) {
	w := openTestWrapper(t)

	if _, err := os.Stat(w.Path()); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	if err := w.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	if stats := w.Stats(); stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %v, want 1 (single live connection)", stats.MaxOpenConnections)
	}
}

// TestAttemptNonQuery_Scenario runs the debit example against a table with
// and without the target row.
func TestAttemptNonQuery_Scenario(t *testing.T) {
	const debit = "UPDATE accounts SET balance = balance - @amt WHERE id = @id"
	ctx := context.Background()

	t.Run("row exists", func(t *testing.T) {
		w := openTestWrapper(t)
		mustExec(t, w, "CREATE TABLE accounts (id INTEGER PRIMARY KEY, balance INTEGER NOT NULL)")
		mustExec(t, w, "INSERT INTO accounts (id, balance) VALUES (7, 500), (8, 500)")

		ok := w.AttemptNonQuery(ctx, debit,
			func(rowsAffected int64) bool { return rowsAffected == 1 },
			Int("amt", 50), Int("id", 7))
		if !ok {
			t.Fatal("AttemptNonQuery() = false, want true")
		}

		got, err := Select(ctx, w, "SELECT balance FROM accounts ORDER BY id", Scalar[int64])
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if !reflect.DeepEqual(got, []int64{450, 500}) {
			t.Errorf("balances = %v, want [450 500]", got)
		}
	})

	t.Run("row missing", func(t *testing.T) {
		w := openTestWrapper(t)
		mustExec(t, w, "CREATE TABLE accounts (id INTEGER PRIMARY KEY, balance INTEGER NOT NULL)")
		mustExec(t, w, "INSERT INTO accounts (id, balance) VALUES (8, 500)")

		ok := w.AttemptNonQuery(ctx, debit, ExactlyOne, Int("amt", 50), Int("id", 7))
		if ok {
			t.Fatal("AttemptNonQuery() = true, want false")
		}

		got := SelectData(ctx, w, "SELECT balance FROM accounts", Scalar[int64])
		if !reflect.DeepEqual(got, []int64{500}) {
			t.Errorf("balances = %v, want [500]", got)
		}
	})
}

// TestExecNonQuery_RejectedRollsBack verifies no effect survives a validator rejection.
func TestExecNonQuery_RejectedRollsBack(t *testing.T) {
	w := openTestWrapper(t)
	seedAccounts(t, w)
	ctx := context.Background()

	res, err := w.ExecNonQuery(ctx,
		"INSERT INTO accounts (id, owner, balance) VALUES (@id, @owner, 0)",
		func(int64) bool { return false },
		Int("id", 10), String("owner", "dora"))
	if err != nil {
		t.Fatalf("ExecNonQuery() error = %v, want nil for a rejection", err)
	}
	if res.Committed {
		t.Error("Committed = true, want false")
	}
	if res.RowsAffected != 1 {
		t.Errorf("RowsAffected = %d, want 1", res.RowsAffected)
	}

	ok := w.AttemptNonQuery(ctx, "UPDATE accounts SET balance = balance + 1", Exactly(2))
	if ok {
		t.Error("AttemptNonQuery() = true, want false (3 rows affected)")
	}

	count := SelectData(ctx, w, "SELECT COUNT(*) FROM accounts", Scalar[int64])
	if !reflect.DeepEqual(count, []int64{3}) {
		t.Errorf("row count = %v, want [3]", count)
	}
	if got := balances(t, w); !reflect.DeepEqual(got, []int64{100, 100, 100}) {
		t.Errorf("balances = %v, want unchanged", got)
	}
}

// TestExecNonQuery_FailureRollsBackPartialWrite injects a failure after the
// first statement of a multi-statement write.
func TestExecNonQuery_FailureRollsBackPartialWrite(t *testing.T) {
	logger := &captureLogger{}
	w := openTestWrapper(t, WithLogger(logger))
	seedAccounts(t, w)
	ctx := context.Background()

	script := `UPDATE accounts SET balance = 0;
		INSERT INTO no_such_table (id) VALUES (1);`

	res, err := w.ExecNonQuery(ctx, script, AcceptAll)
	if err == nil {
		t.Fatal("ExecNonQuery() error = nil, want failure")
	}
	if res.Committed {
		t.Error("Committed = true after failure")
	}

	if w.AttemptNonQuery(ctx, script, AcceptAll) {
		t.Error("AttemptNonQuery() = true after failure")
	}

	if got := balances(t, w); !reflect.DeepEqual(got, []int64{100, 100, 100}) {
		t.Errorf("balances = %v, want unchanged after rollback", got)
	}
	if logger.exceptionCount() < 2 {
		t.Errorf("expected failures to be logged, got %d exceptions", logger.exceptionCount())
	}
}

// TestAttemptNonQuery_NeverPanics covers every failure path of the total mutation call.
func TestAttemptNonQuery_NeverPanics(t *testing.T) {
	w := openTestWrapper(t)
	seedAccounts(t, w)
	ctx := context.Background()

	tests := []struct {
		name      string
		statement string
		validator Validator
		wantErr   error
	}{
		{name: "empty statement", statement: "", validator: AcceptAll, wantErr: ErrEmptyStatement},
		{name: "nil validator", statement: "UPDATE accounts SET balance = 1", validator: nil, wantErr: ErrNilValidator},
		{name: "syntax error", statement: "UPDATE accounts SET", validator: AcceptAll},
		{name: "constraint violation", statement: "INSERT INTO accounts (id, owner, balance) VALUES (1, 'dup', 0)", validator: AcceptAll},
		{
			name:      "validator panics",
			statement: "UPDATE accounts SET balance = 1",
			validator: func(int64) bool { panic("boom") },
			wantErr:   ErrValidatorPanic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w.AttemptNonQuery(ctx, tt.statement, tt.validator) {
				t.Error("AttemptNonQuery() = true, want false")
			}

			_, err := w.ExecNonQuery(ctx, tt.statement, tt.validator)
			if err == nil {
				t.Fatal("ExecNonQuery() error = nil, want failure")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ExecNonQuery() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := balances(t, w); !reflect.DeepEqual(got, []int64{100, 100, 100}) {
		t.Errorf("balances = %v, want unchanged", got)
	}
}

// TestSelectData_Order verifies rows come back in backend order.
func TestSelectData_Order(t *testing.T) {
	w := openTestWrapper(t)
	seedAccounts(t, w)
	ctx := context.Background()

	got := SelectData(ctx, w, "SELECT id, owner FROM accounts ORDER BY id DESC", PairOf[int64, string])
	want := []Pair[int64, string]{{3, "chen"}, {2, "brian"}, {1, "ada"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectData() = %v, want %v", got, want)
	}

	filtered := SelectData(ctx, w, "SELECT owner FROM accounts WHERE balance >= @min AND id <> @skip ORDER BY owner",
		Scalar[string], Int("min", 100), Int("skip", 2))
	if !reflect.DeepEqual(filtered, []string{"ada", "chen"}) {
		t.Errorf("SelectData() filtered = %v, want [ada chen]", filtered)
	}
}

// TestSelectData_EmptyOnFailure verifies reads degrade to an empty, non-nil slice.
func TestSelectData_EmptyOnFailure(t *testing.T) {
	logger := &captureLogger{}
	w := openTestWrapper(t, WithLogger(logger))
	seedAccounts(t, w)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		parser Parser[int64]
	}{
		{name: "bad sql", query: "SELECT nope FROM nowhere", parser: Scalar[int64]},
		{name: "empty query", query: "", parser: Scalar[int64]},
		{name: "nil parser", query: "SELECT id FROM accounts", parser: nil},
		{name: "parser error", query: "SELECT owner FROM accounts", parser: Scalar[int64]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectData(ctx, w, tt.query, tt.parser)
			if got == nil || len(got) != 0 {
				t.Errorf("SelectData() = %#v, want empty non-nil slice", got)
			}

			if _, err := Select(ctx, w, tt.query, tt.parser); err == nil {
				t.Error("Select() error = nil, want failure")
			}
		})
	}

	if logger.exceptionCount() == 0 {
		t.Error("expected read failures to be logged")
	}

	noRows, err := Select(ctx, w, "SELECT id FROM accounts WHERE id > 100", Scalar[int64])
	if err != nil || noRows == nil || len(noRows) != 0 {
		t.Errorf("Select() no rows = %#v, %v; want empty, nil", noRows, err)
	}
}

// TestSelectData_Idempotent verifies identical reads produce identical output.
func TestSelectData_Idempotent(t *testing.T) {
	w := openTestWrapper(t)
	seedAccounts(t, w)
	ctx := context.Background()

	const q = "SELECT id, owner, balance FROM accounts WHERE balance = @b ORDER BY id"
	first := SelectData(ctx, w, q, TripleOf[int64, string, int64], Int("b", 100))
	second := SelectData(ctx, w, q, TripleOf[int64, string, int64], Int("b", 100))

	if len(first) != 3 {
		t.Fatalf("len(first) = %d, want 3", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reads differ: %v vs %v", first, second)
	}
}

// TestSelectData_ParserPanicPropagates verifies shape errors surface and
// the lock is released afterwards.
func TestSelectData_ParserPanicPropagates(t *testing.T) {
	w := openTestWrapper(t)
	seedAccounts(t, w)
	ctx := context.Background()

	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok || !errors.Is(err, ErrColumnOutOfRange) {
				t.Fatalf("panic = %v, want ErrColumnOutOfRange", r)
			}
		}()
		SelectData(ctx, w, "SELECT id FROM accounts", func(row Row) (int64, error) {
			return MustGetByIndex[int64](row, 5), nil
		})
	}()

	done := make(chan bool, 1)
	go func() {
		done <- w.AttemptNonQuery(ctx, "UPDATE accounts SET balance = 1 WHERE id = 1", ExactlyOne)
	}()
	select {
	case ok := <-done:
		if !ok {
			t.Error("AttemptNonQuery() after parser panic = false, want true")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("wrapper still locked after parser panic")
	}
}

// TestAttemptNonQuery_Concurrent verifies N concurrent increments all apply.
func TestAttemptNonQuery_Concurrent(t *testing.T) {
	const workers = 50

	w := openTestWrapper(t)
	mustExec(t, w, "CREATE TABLE counters (id INTEGER PRIMARY KEY, value INTEGER NOT NULL)")
	mustExec(t, w, "INSERT INTO counters (id, value) VALUES (1, 0)")
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			if !w.AttemptNonQuery(ctx, "UPDATE counters SET value = value + @by WHERE id = 1", ExactlyOne, Int("by", 1)) {
				return errors.New("increment not committed")
			}
			// Interleave reads with the writes
			SelectData(ctx, w, "SELECT value FROM counters", Scalar[int64])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent increments: %v", err)
	}

	got := SelectData(ctx, w, "SELECT value FROM counters WHERE id = 1", Scalar[int64])
	if !reflect.DeepEqual(got, []int64{workers}) {
		t.Errorf("counter = %v, want [%d]", got, workers)
	}
}

// TestUintNarrowing_RoundTrip binds unsigned values across the signed boundary.
func TestUintNarrowing_RoundTrip(t *testing.T) {
	w := openTestWrapper(t)
	mustExec(t, w, "CREATE TABLE ids (n INTEGER PRIMARY KEY, v INTEGER NOT NULL)")
	ctx := context.Background()

	values := []uint64{0, 1, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64}
	for i, v := range values {
		mustExec(t, w, "INSERT INTO ids (n, v) VALUES (@n, @v)", Int("n", int64(i)), Uint("v", v))
	}

	signed := SelectData(ctx, w, "SELECT v FROM ids ORDER BY n", Scalar[int64])
	wantSigned := []int64{0, 1, math.MaxInt64, math.MinInt64, -1}
	if !reflect.DeepEqual(signed, wantSigned) {
		t.Errorf("stored values = %v, want %v", signed, wantSigned)
	}

	unsigned := SelectData(ctx, w, "SELECT v FROM ids ORDER BY n", Scalar[uint64])
	if !reflect.DeepEqual(unsigned, values) {
		t.Errorf("read back as uint64 = %v, want %v", unsigned, values)
	}
}

// TestParams_Kinds binds every parameter kind.
func TestParams_Kinds(t *testing.T) {
	w := openTestWrapper(t)
	mustExec(t, w, "CREATE TABLE kinds (i INTEGER, f REAL, s TEXT, b INTEGER, blob BLOB, n TEXT)")
	ctx := context.Background()

	mustExec(t, w, "INSERT INTO kinds VALUES (@i, @f, @s, @b, @blob, @n)",
		Int("i", -4), Float("f", 2.25), String("s", "hi"), Bool("b", true),
		Bytes("blob", []byte{0xde, 0xad}), Null("n"))

	rows := SelectData(ctx, w, "SELECT i, f, s, b, blob, n FROM kinds", func(row Row) ([]any, error) {
		return []any{
			MustGetByIndex[int64](row, 0),
			MustGetByIndex[float64](row, 1),
			MustGetByIndex[string](row, 2),
			MustGetByIndex[bool](row, 3),
			MustGetByIndex[[]byte](row, 4),
			MustGetByIndex[*string](row, 5),
		}, nil
	})
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	want := []any{int64(-4), 2.25, "hi", true, []byte{0xde, 0xad}, (*string)(nil)}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("row = %#v, want %#v", rows[0], want)
	}
}

// TestWrapper_LogsStatements verifies statement and parameter diagnostics.
func TestWrapper_LogsStatements(t *testing.T) {
	logger := &captureLogger{}
	w := openTestWrapper(t, WithLogger(logger))
	seedAccounts(t, w)
	ctx := context.Background()

	w.AttemptNonQuery(ctx, "UPDATE accounts SET balance = balance - @amt WHERE id = @id", ExactlyOne,
		Int("amt", 50), Int("id", 1))

	if !logger.contains(logging.LevelInformation, "executing non-query SQL", "UPDATE accounts", "ExactlyOne") {
		t.Error("expected statement and validator name at information level")
	}
	if !logger.contains(logging.LevelDebug, "@amt=50") || !logger.contains(logging.LevelDebug, "@id=1") {
		t.Error("expected each parameter at debug level")
	}

	SelectData(ctx, w, "SELECT owner FROM accounts", Scalar[string])
	if !logger.contains(logging.LevelInformation, "executing SQL query", "Scalar") {
		t.Error("expected query and parser name at information level")
	}

	w.AttemptNonQuery(ctx, "DELETE FROM accounts", ExactlyOne)
	if !logger.contains(logging.LevelWarning, "rolled back") {
		t.Error("expected a warning for a rejected mutation")
	}
}

// TestWrapper_LoggingFailureDoesNotAbort verifies a panicking logger is contained.
func TestWrapper_LoggingFailureDoesNotAbort(t *testing.T) {
	logger := &captureLogger{}
	w := openTestWrapper(t, WithLogger(logger))
	seedAccounts(t, w)
	ctx := context.Background()

	logger.panicWrite = true
	defer func() { logger.panicWrite = false }()

	if !w.AttemptNonQuery(ctx, "UPDATE accounts SET balance = 0 WHERE id = @id", ExactlyOne, Int("id", 2)) {
		t.Error("AttemptNonQuery() = false with a failing logger, want true")
	}
	if logger.exceptionCount() == 0 {
		t.Error("expected the logging failure to be reported")
	}

	logger.panicWrite = false
	if got := balances(t, w); !reflect.DeepEqual(got, []int64{100, 0, 100}) {
		t.Errorf("balances = %v, want [100 0 100]", got)
	}
}

// TestWrapper_Observers verifies every operation produces an event.
func TestWrapper_Observers(t *testing.T) {
	var mu sync.Mutex
	var events []StatementEvent
	observer := ObserverFunc(func(e StatementEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	panicky := ObserverFunc(func(StatementEvent) { panic("observer bug") })

	w := openTestWrapper(t, WithObserver(observer), WithObserver(panicky))
	mustExec(t, w, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	ctx := context.Background()

	w.AttemptNonQuery(ctx, "INSERT INTO t (id) VALUES (1)", ExactlyOne)
	w.AttemptNonQuery(ctx, "INSERT INTO t (id) VALUES (2)", func(int64) bool { return false })
	w.AttemptNonQuery(ctx, "INSERT INTO t (id) VALUES (1)", ExactlyOne)
	SelectData(ctx, w, "SELECT id FROM t", Scalar[int64])

	mu.Lock()
	defer mu.Unlock()

	want := []struct {
		kind    StatementKind
		outcome Outcome
		rows    int64
	}{
		{StatementNonQuery, OutcomeCommitted, 0},
		{StatementNonQuery, OutcomeCommitted, 1},
		{StatementNonQuery, OutcomeRolledBack, 1},
		{StatementNonQuery, OutcomeFailed, -1},
		{StatementSelect, OutcomeSucceeded, 1},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, w := range want {
		e := events[i]
		if e.Kind != w.kind || e.Outcome != w.outcome || e.Rows != w.rows {
			t.Errorf("event %d = {%s %s %d}, want {%s %s %d}", i, e.Kind, e.Outcome, e.Rows, w.kind, w.outcome, w.rows)
		}
		if e.ID == "" {
			t.Errorf("event %d has no operation id", i)
		}
	}
	if events[3].Err == nil {
		t.Error("failed event should carry its error")
	}
}

// TestClose verifies disposal is idempotent and later calls fail softly.
func TestClose(t *testing.T) {
	w := openTestWrapper(t)
	mustExec(t, w, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	ctx := context.Background()

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if w.AttemptNonQuery(ctx, "INSERT INTO t (id) VALUES (1)", AcceptAll) {
		t.Error("AttemptNonQuery() after Close = true, want false")
	}
	if _, err := w.ExecNonQuery(ctx, "INSERT INTO t (id) VALUES (1)", AcceptAll); !errors.Is(err, ErrClosed) {
		t.Errorf("ExecNonQuery() after Close error = %v, want ErrClosed", err)
	}
	if _, err := Select(ctx, w, "SELECT id FROM t", Scalar[int64]); !errors.Is(err, ErrClosed) {
		t.Errorf("Select() after Close error = %v, want ErrClosed", err)
	}
	if got := SelectData(ctx, w, "SELECT id FROM t", Scalar[int64]); len(got) != 0 {
		t.Errorf("SelectData() after Close = %v, want empty", got)
	}
	if err := w.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after Close error = %v, want ErrClosed", err)
	}
}

// TestCommittedDurable verifies a committed mutation survives reopening.
func TestCommittedDurable(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Path: t.TempDir() + "/durable.db", WALMode: true, BusyTimeout: 5}

	w, err := OpenWrapper(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenWrapper() error = %v", err)
	}
	mustExec(t, w, "CREATE TABLE notes (body TEXT)")
	mustExec(t, w, "INSERT INTO notes (body) VALUES (@b)", String("b", "kept"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	w2, err := OpenWrapper(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer w2.Close() //nolint:errcheck // Test cleanup

	got := SelectData(ctx, w2, "SELECT body FROM notes", Scalar[string])
	if !reflect.DeepEqual(got, []string{"kept"}) {
		t.Errorf("notes = %v, want [kept]", got)
	}
}
