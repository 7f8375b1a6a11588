package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridEndpoint    = "/v3/mail/send"
	defaultSendGridHost = "https://api.sendgrid.com"
	defaultTimeout      = 10 * time.Second
)

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	key    string
	host   string
	from   *sgmail.Email
	client *rest.Client
	logger zerolog.Logger
}

// NewSendGridSender constructs a SendGrid transport.
func NewSendGridSender(cfg Config, logger zerolog.Logger) *SendGridSender {
	host := strings.TrimRight(cfg.SendGridHost, "/")
	if host == "" {
		host = defaultSendGridHost
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &SendGridSender{
		key:    cfg.SendGridKey,
		host:   host,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		client: &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
		logger: logger.With().Str("component", "mailer").Str("provider", ProviderSendGrid).Logger(),
	}
}

func (s *SendGridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}
	return m
}

// Send posts the message and returns the X-Message-Id header.
func (s *SendGridSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To.Email == "" {
		return "", fmt.Errorf("%w: recipient email is empty", ErrDeliveryFailed)
	}

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: sendgrid responded %d: %s", ErrDeliveryFailed, res.StatusCode, res.Body)
	}

	var messageID string
	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	s.logger.Debug().Str("message_id", messageID).Str("to", msg.To.Email).Msg("email accepted by sendgrid")
	return messageID, nil
}
