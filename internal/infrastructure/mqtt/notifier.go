package mqtt

import (
	"encoding/json"
	"time"

	"github.com/TBye101/TUtils/database"
)

// Publisher is the part of Client the notifier needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StatementMessage is the JSON payload announced for a mutation.
type StatementMessage struct {
	OpID         string `json:"op_id"`
	Outcome      string `json:"outcome"`
	Statement    string `json:"statement"`
	Validator    string `json:"validator"`
	RowsAffected int64  `json:"rows_affected"`
	DurationMS   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// Notifier announces mutations on the database topics. It implements
// database.Observer; reads are ignored.
//
//	committed   → <prefix>/db/commit
//	rolled back → <prefix>/db/rollback
//	failed      → <prefix>/db/failure
//
// Publishing happens on the goroutine that ran the statement, after the
// wrapper has released its lock. Publish errors are logged, never returned.
type Notifier struct {
	publisher Publisher
	topics    Topics
	qos       byte
	logger    Logger
}

var _ database.Observer = (*Notifier)(nil)

// NewNotifier returns a notifier publishing through publisher.
// logger may be nil.
func NewNotifier(publisher Publisher, topics Topics, qos byte, logger Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		topics:    topics,
		qos:       qos,
		logger:    logger,
	}
}

// ObserveStatement implements database.Observer.
func (n *Notifier) ObserveStatement(event database.StatementEvent) {
	if event.Kind != database.StatementNonQuery {
		return
	}

	topic := n.topicFor(event.Outcome)
	if topic == "" {
		return
	}

	payload, err := json.Marshal(buildStatementMessage(event))
	if err != nil {
		n.warn("encoding statement message failed", "op_id", event.ID, "error", err)
		return
	}

	if err := n.publisher.Publish(topic, payload, n.qos, false); err != nil {
		n.warn("publishing statement message failed", "op_id", event.ID, "topic", topic, "error", err)
	}
}

func (n *Notifier) topicFor(outcome database.Outcome) string {
	switch outcome {
	case database.OutcomeCommitted:
		return n.topics.DBCommit()
	case database.OutcomeRolledBack:
		return n.topics.DBRollback()
	case database.OutcomeFailed:
		return n.topics.DBFailure()
	default:
		return ""
	}
}

func (n *Notifier) warn(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}

// buildStatementMessage converts event into its wire form. Parameter values
// are not included.
func buildStatementMessage(event database.StatementEvent) StatementMessage {
	ts := event.Finished
	if ts.IsZero() {
		ts = time.Now()
	}

	msg := StatementMessage{
		OpID:         event.ID,
		Outcome:      string(event.Outcome),
		Statement:    event.Statement,
		Validator:    event.Handler,
		RowsAffected: event.Rows,
		DurationMS:   event.Duration.Milliseconds(),
		Timestamp:    ts.UTC().Format(time.RFC3339Nano),
	}
	if event.Err != nil {
		msg.Error = event.Err.Error()
	}
	return msg
}
