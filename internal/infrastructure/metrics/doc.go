// Package metrics exposes database statement metrics in Prometheus text
// format using VictoriaMetrics/metrics.
//
// A Collector is a database.Observer: register it with
// database.WithObserver and every Query and ExecNonQuery is counted by
// kind and outcome, with its duration recorded in a histogram.
//
// Exposed metrics (prefix defaults to "tutils"):
//
//	tutils_statements_total{kind="select",outcome="succeeded"}
//	tutils_statement_duration_seconds{kind="non_query"}
//	tutils_rows_affected_total
//	tutils_last_commit_timestamp_seconds
//
// Usage:
//
//	collector := metrics.New(metrics.WithPrefix("tutils"))
//	w, err := database.OpenWrapper(ctx, cfg, database.WithObserver(collector))
//	http.HandleFunc("/metrics", collector.Handler)
package metrics
