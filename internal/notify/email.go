package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/nutribot/pkg/logging"
)

const defaultFromName = "Nutribot"

// EmailMessage is one operator email. HTML is optional; Text is always sent.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers an EmailMessage. SendGrid, SES and the log-only
// sender implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// From is the sender identity shared by every provider.
type From struct {
	Email string
	Name  string
}

func (f From) displayName() string {
	if f.Name == "" {
		return defaultFromName
	}
	return f.Name
}

func (f From) address() string {
	return fmt.Sprintf("%s <%s>", f.displayName(), f.Email)
}

type sendGridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	api    sendGridAPI
	from   From
	logger *logging.Logger
}

// NewSendGridSender returns nil when apiKey is empty.
func NewSendGridSender(apiKey string, from From, logger *logging.Logger) *SendGridSender {
	if apiKey == "" {
		return nil
	}
	return newSendGridSender(sendgrid.NewSendClient(apiKey), from, logger)
}

func newSendGridSender(api sendGridAPI, from From, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{api: api, from: from, logger: logger}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("notify: sendgrid not configured")
	}
	html := msg.HTML
	if html == "" {
		html = msg.Text
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.displayName(), s.from.Email),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		html,
	)

	resp, err := s.api.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	s.logger.Debug("sendgrid accepted email", "to", msg.To, "status", resp.StatusCode)
	return nil
}

// LogSender only logs. It backs EMAIL_PROVIDER=stub.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email not sent (stub provider)", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*LogSender)(nil)
)
