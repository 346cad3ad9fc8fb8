package telegram

import "strings"

const (
	// MaxMessageLength is Telegram's limit for one text message, in characters.
	MaxMessageLength = 4096

	ParseModeMarkdown = "Markdown"
)

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// Truncate hard-cuts text to at most limit code points.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// NeedsEscaping is false for replies that already start with Markdown
// (bold, italic or code), which are sent as-is.
func NeedsEscaping(text string) bool {
	return !(strings.HasPrefix(text, "*") || strings.HasPrefix(text, "_") || strings.HasPrefix(text, "`"))
}

// EscapeMarkdown escapes backslashes and square brackets only, leaving
// emphasis and list markup intact.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// FormatReply prepares text for sendMessage and returns it with the parse mode.
func FormatReply(text string) (string, string) {
	if !NeedsEscaping(text) {
		return Truncate(text, MaxMessageLength), ParseModeMarkdown
	}

	out := Truncate(EscapeMarkdown(text), MaxMessageLength)
	// An odd run of trailing backslashes means the cut split an escape pair.
	trailing := len(out) - len(strings.TrimRight(out, `\`))
	if trailing%2 == 1 {
		out = out[:len(out)-1]
	}
	return out, ParseModeMarkdown
}
