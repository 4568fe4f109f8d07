package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-batch-grader/internal/grading"
)

type natsProgressNotifier struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewProgressNotifier publishes task completion events on a NATS subject so live
// dashboards can follow a running batch. Returns nil when the connection is nil,
// which disables publishing.
func NewProgressNotifier(conn *nats.Conn, subject string, logger zerolog.Logger) grading.ProgressNotifier {
	if conn == nil || subject == "" {
		return nil
	}

	return &natsProgressNotifier{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "progress_notifier").Logger(),
	}
}

func (n *natsProgressNotifier) TaskCompleted(ctx context.Context, event grading.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to encode progress event")
		return
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		n.logger.Warn().Err(err).
			Str("batch_id", event.BatchID).
			Str("student_id", event.StudentID).
			Msg("failed to publish progress event")
	}
}
