package telegram

import "encoding/json"

// Update is the top-level structure Telegram posts to the webhook.
type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
}

// Message contains the message content. Photos arrive as several sizes of
// the same image, smallest first.
type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      Chat            `json:"chat"`
	Date      int64           `json:"date"`
	Text      string          `json:"text,omitempty"`
	Caption   string          `json:"caption,omitempty"`
	Photo     []PhotoSize     `json:"photo,omitempty"`
	Entities  []MessageEntity `json:"entities,omitempty"`
}

// User identifies who sent the message.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// File is the getFile result; FilePath is relative to the file download base.
type File struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size,omitempty"`
}

// SendMessageRequest is the sendMessage payload. An empty ParseMode sends plain text.
type SendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// APIResponse is the envelope of every Bot API response.
type APIResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// LargestPhoto returns the biggest size Telegram offers, or nil when the
// message has no photo.
func (m *Message) LargestPhoto() *PhotoSize {
	if m == nil || len(m.Photo) == 0 {
		return nil
	}
	best := &m.Photo[0]
	for i := range m.Photo[1:] {
		p := &m.Photo[i+1]
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}
