package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"

	"github.com/TBye101/TUtils/database"
)

// DefaultPrefix is the metric name prefix used when none is configured.
const DefaultPrefix = "tutils"

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "tutils"
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// outcomeKey indexes the pre-created statement counters.
type outcomeKey struct {
	kind    database.StatementKind
	outcome database.Outcome
}

// Collector counts database statements. It implements database.Observer.
//
// All metrics are pre-created at initialization time.
// Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	statements map[outcomeKey]*metrics.Counter
	durations  map[database.StatementKind]*metrics.Histogram

	rowsAffected *metrics.Counter
	lastCommit   atomic.Int64
}

var _ database.Observer = (*Collector)(nil)

// New creates a Collector backed by its own metrics.Set. Nothing is
// registered in the global set.
//
// Returns:
//   - *Collector: A new metrics collector ready for use
func New(opts ...Option) *Collector {
	c := &Collector{
		set:    metrics.NewSet(),
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.initMetrics()

	return c
}

// initMetrics pre-creates every metric with the configured prefix.
func (c *Collector) initMetrics() {
	p := c.prefix

	pairs := []outcomeKey{
		{database.StatementSelect, database.OutcomeSucceeded},
		{database.StatementSelect, database.OutcomeFailed},
		{database.StatementNonQuery, database.OutcomeCommitted},
		{database.StatementNonQuery, database.OutcomeRolledBack},
		{database.StatementNonQuery, database.OutcomeFailed},
	}
	c.statements = make(map[outcomeKey]*metrics.Counter, len(pairs))
	for _, k := range pairs {
		c.statements[k] = c.set.NewCounter(
			fmt.Sprintf(`%s_statements_total{kind=%q,outcome=%q}`, p, k.kind, k.outcome))
	}

	c.durations = map[database.StatementKind]*metrics.Histogram{
		database.StatementSelect: c.set.NewHistogram(
			fmt.Sprintf(`%s_statement_duration_seconds{kind=%q}`, p, database.StatementSelect)),
		database.StatementNonQuery: c.set.NewHistogram(
			fmt.Sprintf(`%s_statement_duration_seconds{kind=%q}`, p, database.StatementNonQuery)),
	}

	c.rowsAffected = c.set.NewCounter(p + "_rows_affected_total")
	c.set.NewGauge(p+"_last_commit_timestamp_seconds", func() float64 {
		return float64(c.lastCommit.Load())
	})
}

// ObserveStatement implements database.Observer.
func (c *Collector) ObserveStatement(e database.StatementEvent) {
	if counter, ok := c.statements[outcomeKey{e.Kind, e.Outcome}]; ok {
		counter.Inc()
	}
	if h, ok := c.durations[e.Kind]; ok {
		h.Update(e.Duration.Seconds())
	}

	if e.Outcome == database.OutcomeCommitted {
		if e.Rows > 0 {
			c.rowsAffected.Add(int(e.Rows))
		}
		c.lastCommit.Store(e.Finished.Unix())
	}
}

// StatementCount returns how many statements of kind ended with outcome.
func (c *Collector) StatementCount(kind database.StatementKind, outcome database.Outcome) uint64 {
	counter, ok := c.statements[outcomeKey{kind, outcome}]
	if !ok {
		return 0
	}
	return counter.Get()
}

// Handler exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	c.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to w.
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}
