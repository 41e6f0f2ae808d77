package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink records events in the service log. It is the default sink when no
// webhook endpoint is configured.
type LogSink struct{}

// NewLogSink creates a log-backed sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Deliver logs the event and never fails.
func (s *LogSink) Deliver(_ context.Context, event Event) error {
	zap.L().Info("lifecycle event",
		zap.String("kind", string(event.Kind)),
		zap.Int64("request_id", event.RequestID),
		zap.Int64("user_id", event.UserID),
		zap.String("status", string(event.Status)),
		zap.String("amount", event.Amount.String()),
		zap.String("message", event.Message),
	)
	return nil
}
