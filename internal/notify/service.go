package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/nutribot/pkg/logging"
)

// Feedback is one /feedback submission.
type Feedback struct {
	UserKey  string
	Username string
	Text     string
	At       time.Time
}

// FeedbackNotifier forwards user feedback to the operator mailbox.
type FeedbackNotifier struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewFeedbackNotifier returns a notifier that does nothing when email is nil
// or to is empty.
func NewFeedbackNotifier(email EmailSender, to string, logger *logging.Logger) *FeedbackNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeedbackNotifier{email: email, to: strings.TrimSpace(to), logger: logger}
}

func (n *FeedbackNotifier) Enabled() bool {
	return n != nil && n.email != nil && n.to != ""
}

func (n *FeedbackNotifier) NotifyFeedback(ctx context.Context, fb Feedback) error {
	if !n.Enabled() {
		return nil
	}
	at := fb.At
	if at.IsZero() {
		at = time.Now()
	}

	msg := EmailMessage{
		To:      n.to,
		Subject: fmt.Sprintf("New feedback from %s", fb.Username),
		Text: fmt.Sprintf("User: %s (%s)\nReceived: %s\n\n%s",
			fb.Username, fb.UserKey, at.Format("2006-01-02 15:04:05"), fb.Text),
		HTML: fmt.Sprintf("<p><strong>User:</strong> %s (%s)<br><strong>Received:</strong> %s</p><blockquote>%s</blockquote>",
			html.EscapeString(fb.Username), html.EscapeString(fb.UserKey), at.Format("2006-01-02 15:04:05"),
			strings.ReplaceAll(html.EscapeString(fb.Text), "\n", "<br>")),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: feedback email: %w", err)
	}
	n.logger.Info("feedback forwarded", "user_key", fb.UserKey, "preview", truncate(fb.Text, 50))
	return nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
