package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Providers understood by New.
const (
	ProviderLog      = "log"
	ProviderSendGrid = "sendgrid"
)

// ErrDeliveryFailed wraps transport errors and rejected sends.
var ErrDeliveryFailed = errors.New("mail delivery failed")

// Address is a named mailbox.
type Address struct {
	Name  string
	Email string
}

// Message is a single outbound email.
type Message struct {
	To       Address
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender hands messages to a transport and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Config selects and configures a transport.
type Config struct {
	Provider     string
	FromAddress  string
	FromName     string
	SendGridKey  string
	SendGridHost string
	Timeout      time.Duration
}

// New builds the Sender named by cfg.Provider.
func New(cfg Config, logger zerolog.Logger) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderLog:
		return NewLogSender(logger), nil
	case ProviderSendGrid:
		if cfg.SendGridKey == "" {
			return nil, fmt.Errorf("sendgrid api key is required")
		}
		return NewSendGridSender(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}
}
