// Package database provides a backend-agnostic query execution layer with
// a SQLite implementation.
//
// This package manages:
//   - Parameterised reads returning strongly-typed results (Select, SelectData)
//   - Parameterised mutations committed only when a caller-supplied validator
//     accepts the affected-row count (ExecNonQuery, AttemptNonQuery)
//   - Serialisation of every operation on the wrapper's single connection
//   - Diagnostic logging of every statement, handler and parameter
//   - Running embedded SQL scripts (ReadScript, LaunchScript)
//
// # Failure signalling
//
// AttemptNonQuery and SelectData are total: backend failures are logged and
// reported as false or an empty slice, indistinguishable from a rejected
// row count or a read without rows. Callers that need to tell the two apart
// use ExecNonQuery and Select, which return the error.
//
// # Usage
//
//	w, err := database.OpenWrapper(ctx, database.Config{Path: "data/app.db"},
//	    database.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	ok := w.AttemptNonQuery(ctx,
//	    "UPDATE accounts SET balance = balance - @amt WHERE id = @id",
//	    database.ExactlyOne,
//	    database.Int("amt", 50), database.Int("id", 7))
//
//	balances := database.SelectData(ctx, w,
//	    "SELECT id, balance FROM accounts ORDER BY id",
//	    database.PairOf[int64, int64])
//
// # Security
//
// All statements are parameterised; values are never interpolated into SQL.
// The database file is created with 0600 permissions.
package database
