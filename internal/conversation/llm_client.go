package conversation

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ImagePart is raw image data attached to a chat message.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string      `json:"role"`
	Content string      `json:"content"`
	Images  []ImagePart `json:"-"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is provider neutral. A negative Temperature leaves the provider default.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

func mimeOrDefault(mimeType string) string {
	if mimeType == "" {
		return "image/jpeg"
	}
	return mimeType
}
