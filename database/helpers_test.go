package database

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/TBye101/TUtils/logging"
)

// logEntry is one call captured by captureLogger.
type logEntry struct {
	level   logging.Level
	message string
	args    []any
}

// captureLogger records everything written to it.
type captureLogger struct {
	mu         sync.Mutex
	entries    []logEntry
	exceptions []error
	panicWrite bool
}

func (l *captureLogger) Write(level logging.Level, message string, args ...any) {
	if l.panicWrite {
		panic("logger exploded")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: message, args: args})
}

func (l *captureLogger) WriteException(err error, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exceptions = append(l.exceptions, fmt.Errorf("%s: %w", message, err))
}

// contains reports whether any entry at level mentions every needle in its
// message or attributes.
func (l *captureLogger) contains(level logging.Level, needles ...string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.level != level {
			continue
		}
		text := e.message + " " + fmt.Sprint(e.args...)
		found := true
		for _, n := range needles {
			if !strings.Contains(text, n) {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

func (l *captureLogger) exceptionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.exceptions)
}

// openTestWrapper creates a wrapper over a temporary database.
func openTestWrapper(t *testing.T, opts ...Option) *SQLiteWrapper {
	t.Helper()

	w, err := OpenWrapper(context.Background(), Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}, opts...)
	if err != nil {
		t.Fatalf("failed to open test wrapper: %v", err)
	}
	t.Cleanup(func() {
		w.Close() //nolint:errcheck // Test cleanup
	})

	return w
}

// mustExec runs a setup statement and fails the test if it is not committed.
func mustExec(t *testing.T, w *SQLiteWrapper, statement string, params ...Param) {
	t.Helper()

	res, err := w.ExecNonQuery(context.Background(), statement, AcceptAll, params...)
	if err != nil {
		t.Fatalf("ExecNonQuery(%q) error = %v", statement, err)
	}
	if !res.Committed {
		t.Fatalf("ExecNonQuery(%q) not committed", statement)
	}
}

// seedAccounts creates the accounts table with ids 1..3 and balance 100 each.
func seedAccounts(t *testing.T, w *SQLiteWrapper) {
	t.Helper()

	mustExec(t, w, `CREATE TABLE accounts (
		id INTEGER PRIMARY KEY,
		owner TEXT NOT NULL,
		balance INTEGER NOT NULL
	)`)
	for i, owner := range []string{"ada", "brian", "chen"} {
		mustExec(t, w, "INSERT INTO accounts (id, owner, balance) VALUES (@id, @owner, @balance)",
			Int("id", int64(i+1)), String("owner", owner), Int("balance", 100))
	}
}

// balances returns every account balance ordered by id.
func balances(t *testing.T, w *SQLiteWrapper) []int64 {
	t.Helper()

	out, err := Select(context.Background(), w, "SELECT balance FROM accounts ORDER BY id", Scalar[int64])
	if err != nil {
		t.Fatalf("Select() balances error = %v", err)
	}
	return out
}
