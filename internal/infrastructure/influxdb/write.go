package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/TBye101/TUtils/database"
)

// Measurements written by the client.
const (
	StatementMeasurement = "db_statements"
	ScriptMeasurement    = "script_runs"
)

var _ database.Observer = (*Client)(nil)

// ObserveStatement implements database.Observer by writing one point per
// wrapper operation. The write is non-blocking; a disconnected client drops it.
func (c *Client) ObserveStatement(event database.StatementEvent) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(StatementPoint(event))
}

// StatementPoint converts a statement event into an InfluxDB point.
//
// Tags carry the low-cardinality dimensions (kind, outcome, handler); the
// statement text, operation id and counts are fields. Events without a
// finish time are stamped with the current time.
func StatementPoint(event database.StatementEvent) *write.Point {
	ts := event.Finished
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := map[string]interface{}{
		"op_id":       event.ID,
		"statement":   event.Statement,
		"duration_ms": float64(event.Duration) / float64(time.Millisecond),
		"rows":        event.Rows,
		"params":      int64(len(event.Params)),
	}
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}

	return write.NewPoint(
		StatementMeasurement,
		map[string]string{
			"kind":    string(event.Kind),
			"outcome": string(event.Outcome),
			"handler": event.Handler,
		},
		fields,
		ts,
	)
}

// RecordScriptRun writes one script_runs point for a startup script.
// A nil err records a successful run.
func (c *Client) RecordScriptRun(script string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"ok":          err == nil,
		"duration_ms": float64(duration) / float64(time.Millisecond),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.WritePoint(ScriptMeasurement, map[string]string{"script": script}, fields)
}

// WritePoint writes a custom point stamped with the current time.
// A disconnected client drops it.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
