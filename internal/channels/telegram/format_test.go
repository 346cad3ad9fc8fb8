package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "🍎🍌", Truncate("🍎🍌🍇", 2))

	long := strings.Repeat("é", MaxMessageLength+10)
	assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(Truncate(long, MaxMessageLength)))
}

func TestNeedsEscaping(t *testing.T) {
	assert.False(t, NeedsEscaping("**Food:** Apple"))
	assert.False(t, NeedsEscaping("_italic_ start"))
	assert.False(t, NeedsEscaping("```code```"))
	assert.True(t, NeedsEscaping("Plain [link] text"))
	assert.True(t, NeedsEscaping(""))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `see \[1\] and C:\\path`, EscapeMarkdown(`see [1] and C:\path`))
	assert.Equal(t, "**bold** _it_ 1. list", EscapeMarkdown("**bold** _it_ 1. list"))
}

func TestFormatReply(t *testing.T) {
	t.Run("escapes plain replies", func(t *testing.T) {
		text, mode := FormatReply("Eggs [large] have **6 g** protein")
		assert.Equal(t, `Eggs \[large\] have **6 g** protein`, text)
		assert.Equal(t, ParseModeMarkdown, mode)
	})

	t.Run("leaves pre-formatted replies alone", func(t *testing.T) {
		text, _ := FormatReply("**Food:** [Salad]")
		assert.Equal(t, "**Food:** [Salad]", text)
	})

	t.Run("never exceeds the limit", func(t *testing.T) {
		text, _ := FormatReply(strings.Repeat("a", 5000))
		assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(text))

		text, _ = FormatReply("*" + strings.Repeat("b", 5000))
		assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(text))
	})

	t.Run("drops a split escape at the cut", func(t *testing.T) {
		// 4095 letters, then "[" escapes to `\[` whose backslash lands at 4096.
		text, _ := FormatReply(strings.Repeat("a", MaxMessageLength-1) + "[x")
		assert.Equal(t, MaxMessageLength-1, utf8.RuneCountInString(text))
		assert.False(t, strings.HasSuffix(text, `\`))
	})

	t.Run("keeps a complete escaped backslash at the cut", func(t *testing.T) {
		text, _ := FormatReply(strings.Repeat("a", MaxMessageLength-2) + `\x`)
		assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(text))
		assert.True(t, strings.HasSuffix(text, `\\`))
	})
}
