// Package mqtt connects the tutils daemon to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS guarantees
//   - Subscriptions restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - A database.Observer that announces mutations
//
// # Topics
//
// All topics sit under a configurable prefix (default "tutils"):
//
//	<prefix>/db/commit        committed mutations
//	<prefix>/db/rollback      mutations rejected by their validator
//	<prefix>/db/failure       mutations that failed with an error
//	<prefix>/system/status    retained online/offline status
//	<prefix>/system/shutdown  graceful shutdown request
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	notifier := mqtt.NewNotifier(client, client.Topics(), client.QoS(), logger)
//	w, err := database.OpenWrapper(ctx, cfg.DatabaseOptions(),
//	    database.WithObserver(notifier))
package mqtt
