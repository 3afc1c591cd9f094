package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/TBye101/TUtils/database"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	Database      DatabaseMetrics   `json:"database"`
	Statements    *StatementMetrics `json:"statements,omitempty"`
	MQTT          MQTTMetrics       `json:"mqtt"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// DatabaseMetrics contains statistics of the wrapper's database handle.
type DatabaseMetrics struct {
	Path            string `json:"path"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	WaitDurationMS  int64  `json:"wait_duration_ms"`
}

// StatementMetrics counts wrapper operations by outcome.
type StatementMetrics struct {
	SelectSucceeded    uint64 `json:"select_succeeded"`
	SelectFailed       uint64 `json:"select_failed"`
	NonQueryCommitted  uint64 `json:"non_query_committed"`
	NonQueryRolledBack uint64 `json:"non_query_rolled_back"`
	NonQueryFailed     uint64 `json:"non_query_failed"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// bytesPerMB converts byte counts to megabytes.
const bytesPerMB = 1024 * 1024

// handleMetrics returns system metrics as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbStats := s.db.Stats()

	resp := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		Database: DatabaseMetrics{
			Path:            s.db.Path(),
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
			WaitDurationMS:  dbStats.WaitDuration.Milliseconds(),
		},
	}

	if s.metrics != nil {
		resp.Statements = &StatementMetrics{
			SelectSucceeded:    s.metrics.StatementCount(database.StatementSelect, database.OutcomeSucceeded),
			SelectFailed:       s.metrics.StatementCount(database.StatementSelect, database.OutcomeFailed),
			NonQueryCommitted:  s.metrics.StatementCount(database.StatementNonQuery, database.OutcomeCommitted),
			NonQueryRolledBack: s.metrics.StatementCount(database.StatementNonQuery, database.OutcomeRolledBack),
			NonQueryFailed:     s.metrics.StatementCount(database.StatementNonQuery, database.OutcomeFailed),
		}
	}

	if s.mqtt != nil {
		resp.MQTT = MQTTMetrics{
			Enabled:   true,
			Connected: s.mqtt.IsConnected(),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
