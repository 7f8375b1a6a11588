package mailer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mailer").Str("provider", ProviderLog).Logger()}
}

// Send logs recipient, subject and body.
func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To.Email == "" {
		return "", fmt.Errorf("%w: recipient email is empty", ErrDeliveryFailed)
	}

	id := uuid.NewString()
	s.logger.Info().
		Str("message_id", id).
		Str("to", msg.To.Email).
		Str("subject", msg.Subject).
		Str("body", msg.TextBody).
		Msg("email delivered to log")
	return id, nil
}
