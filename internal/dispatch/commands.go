package dispatch

import (
	"context"

	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/internal/notify"
)

const (
	CommandStart    = "/start"
	CommandHelp     = "/help"
	CommandFeedback = "/feedback"

	FeedbackThanksReply = "Thanks for your feedback! 🙏 It helps us improve."
	FeedbackUsageReply  = "Please add your feedback after the command, for example:\n/feedback The calorie estimates are spot on!"
)

func isKnownCommand(cmd string) bool {
	switch cmd {
	case CommandStart, CommandHelp, CommandFeedback:
		return true
	}
	return false
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev InboundEvent, res *Result) {
	switch ev.Command {
	case CommandStart, CommandHelp:
		res.Intent = conversation.IntentWelcome
		res.Reply = conversation.WelcomeMessage
	case CommandFeedback:
		res.Reply = d.handleFeedback(ctx, ev)
	}
	d.deliver(ctx, ev.ReplyChatID(), res)
}

func (d *Dispatcher) handleFeedback(ctx context.Context, ev InboundEvent) string {
	if ev.CommandArgs == "" {
		return FeedbackUsageReply
	}
	name := ev.DisplayName()
	if err := d.recorder.LogFeedback(ctx, name, ev.CommandArgs); err != nil {
		d.logger.Error("failed to log feedback", "error", err, "user_key", ev.UserKey())
	}
	err := d.feedback.NotifyFeedback(ctx, notify.Feedback{
		UserKey:  ev.UserKey(),
		Username: name,
		Text:     ev.CommandArgs,
		At:       d.now(),
	})
	if err != nil {
		d.logger.Error("failed to forward feedback", "error", err, "user_key", ev.UserKey())
	}
	return FeedbackThanksReply
}
