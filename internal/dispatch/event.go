package dispatch

import (
	"strconv"
	"strings"

	"github.com/wolfman30/nutribot/internal/channels/telegram"
)

const (
	KindText        = "text"
	KindImage       = "image"
	KindCommand     = "command"
	KindUnsupported = "unsupported"
)

// InboundEvent is one user message, normalised from a Telegram update.
// It is handled once and never persisted.
type InboundEvent struct {
	SenderID  int64
	ChatID    int64
	FirstName string
	LastName  string
	Username  string

	Text        string
	Caption     string
	Image       []byte
	ImageFileID string

	// Command is the lower-cased leading "/word" without any "@botname";
	// CommandArgs is the rest of the text.
	Command     string
	CommandArgs string
}

// EventFromUpdate converts a webhook update. ok is false for updates that
// carry no user message (edits, channel posts, other bots).
func EventFromUpdate(u telegram.Update) (InboundEvent, bool) {
	msg := u.Message
	if msg == nil {
		return InboundEvent{}, false
	}
	ev := InboundEvent{
		ChatID:  msg.Chat.ID,
		Text:    msg.Text,
		Caption: msg.Caption,
	}
	if msg.From != nil {
		if msg.From.IsBot {
			return InboundEvent{}, false
		}
		ev.SenderID = msg.From.ID
		ev.FirstName = msg.From.FirstName
		ev.LastName = msg.From.LastName
		ev.Username = msg.From.Username
	}
	if photo := msg.LargestPhoto(); photo != nil {
		ev.ImageFileID = photo.FileID
	}
	ev.Command, ev.CommandArgs = parseCommand(msg.Text)
	return ev, true
}

func parseCommand(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return "", ""
	}
	word, rest, _ := strings.Cut(trimmed, " ")
	if at := strings.IndexByte(word, '@'); at > 0 {
		word = word[:at]
	}
	return strings.ToLower(word), strings.TrimSpace(rest)
}

// DisplayName is "First Last" when known, else the numeric id, else "Unknown".
// It labels logs and sheet rows only; history is keyed by UserKey.
func (e InboundEvent) DisplayName() string {
	if name := strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName)); name != "" {
		return name
	}
	if e.SenderID != 0 {
		return strconv.FormatInt(e.SenderID, 10)
	}
	return "Unknown"
}

// UserKey is the stable history key for the sender.
func (e InboundEvent) UserKey() string {
	switch {
	case e.SenderID != 0:
		return "tg:" + strconv.FormatInt(e.SenderID, 10)
	case e.ChatID != 0:
		return "tg:chat:" + strconv.FormatInt(e.ChatID, 10)
	default:
		return "tg:unknown"
	}
}

// ReplyChatID is where replies go; private chats share the sender's id.
func (e InboundEvent) ReplyChatID() int64 {
	if e.ChatID != 0 {
		return e.ChatID
	}
	return e.SenderID
}

func (e InboundEvent) HasImage() bool {
	return len(e.Image) > 0 || e.ImageFileID != ""
}

func (e InboundEvent) Kind() string {
	switch {
	case e.HasImage():
		return KindImage
	case isKnownCommand(e.Command):
		return KindCommand
	case strings.TrimSpace(e.Text) != "":
		return KindText
	default:
		return KindUnsupported
	}
}
