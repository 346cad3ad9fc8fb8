package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/wolfman30/nutribot/pkg/logging"
)

// SESAPI is the part of the SES v2 client SESSender calls.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES v2.
type SESSender struct {
	api    SESAPI
	from   From
	logger *logging.Logger
}

// NewSESSender returns nil when api is nil.
func NewSESSender(api SESAPI, from From, logger *logging.Logger) *SESSender {
	if api == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{api: api, from: from, logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("notify: ses not configured")
	}
	out, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from.address()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(msg.Subject),
				Body:    sesBody(msg),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: ses: %w", err)
	}
	s.logger.Debug("ses accepted email", "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}

func sesBody(msg EmailMessage) *types.Body {
	body := &types.Body{Text: utf8Content(msg.Text)}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}
	return body
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)
