// Package influxdb writes database statement telemetry to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. A connected Client
// is a database.Observer: every wrapper operation becomes one point in the
// "db_statements" measurement, tagged by kind, outcome and handler.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil && !errors.Is(err, influxdb.ErrDisabled) {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	w, err := database.OpenWrapper(ctx, cfg.DatabaseOptions(),
//	    database.WithObserver(client))
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Writes are non-blocking; batch errors are delivered via SetOnError.
// Connection and health check errors are returned directly.
package influxdb
