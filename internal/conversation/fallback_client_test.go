package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackLLMClient(t *testing.T) {
	req := LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}}

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubLLMClient{resp: LLMResponse{Text: "primary"}}
		fallback := &stubLLMClient{resp: LLMResponse{Text: "fallback"}}
		resp, err := NewFallbackLLMClient(primary, fallback, nil).Complete(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "primary", resp.Text)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("fallback used on failure", func(t *testing.T) {
		primary := &stubLLMClient{err: errors.New("boom")}
		fallback := &stubLLMClient{resp: LLMResponse{Text: "fallback"}}
		resp, err := NewFallbackLLMClient(primary, fallback, nil).Complete(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "fallback", resp.Text)
		assert.Equal(t, 1, fallback.calls)
	})

	t.Run("both fail", func(t *testing.T) {
		primary := &stubLLMClient{err: errors.New("boom")}
		fallback := &stubLLMClient{err: errors.New("also boom")}
		_, err := NewFallbackLLMClient(primary, fallback, nil).Complete(context.Background(), req)
		assert.EqualError(t, err, "also boom")
	})

	t.Run("no fallback configured", func(t *testing.T) {
		primary := &stubLLMClient{err: errors.New("boom")}
		_, err := NewFallbackLLMClient(primary, nil, nil).Complete(context.Background(), req)
		assert.EqualError(t, err, "boom")
	})

	t.Run("expired context skips fallback", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		primary := &stubLLMClient{err: context.Canceled}
		fallback := &stubLLMClient{resp: LLMResponse{Text: "fallback"}}
		_, err := NewFallbackLLMClient(primary, fallback, nil).Complete(ctx, req)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, fallback.calls)
	})
}
