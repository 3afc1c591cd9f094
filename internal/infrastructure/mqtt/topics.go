package mqtt

import "strings"

// DefaultTopicPrefix is the root of every topic when mqtt.topic_prefix is unset.
const DefaultTopicPrefix = "tutils"

// Topics builds the MQTT topics used by tutils under a configurable root.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.NewTopics("lab")
//	topics.DBCommit() // "lab/db/commit"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix. Surrounding slashes are
// trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// =============================================================================
// Database Topics
// =============================================================================

// DBCommit returns the topic committed mutations are announced on.
//
// Example: tutils/db/commit
func (t Topics) DBCommit() string {
	return t.Prefix() + "/db/commit"
}

// DBRollback returns the topic for mutations whose validator rejected the result.
//
// Example: tutils/db/rollback
func (t Topics) DBRollback() string {
	return t.Prefix() + "/db/rollback"
}

// DBFailure returns the topic for statements that failed with an error.
//
// Example: tutils/db/failure
func (t Topics) DBFailure() string {
	return t.Prefix() + "/db/failure"
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the retained online/offline status topic.
//
// Example: tutils/system/status
func (t Topics) SystemStatus() string {
	return t.Prefix() + "/system/status"
}

// SystemShutdown returns the topic that requests a graceful daemon shutdown.
//
// Example: tutils/system/shutdown
func (t Topics) SystemShutdown() string {
	return t.Prefix() + "/system/shutdown"
}
