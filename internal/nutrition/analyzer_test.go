package nutrition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/nutribot/internal/conversation"
)

type stubVisionClient struct {
	resp  conversation.LLMResponse
	err   error
	calls int
	last  conversation.LLMRequest
}

func (s *stubVisionClient) Complete(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
	s.calls++
	s.last = req
	return s.resp, s.err
}

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

func TestAnalyzerAnalyze(t *testing.T) {
	client := &stubVisionClient{resp: conversation.LLMResponse{
		Text:  "**Food:** Apple\n**Calories:** 95 kcal\n**Proteins:** 0.5 g\n**Carbs:** 25 g\n**Fat:** 0.3 g",
		Usage: conversation.TokenUsage{InputTokens: 800, OutputTokens: 40},
	}}
	a := NewAnalyzer(client, AnalyzerConfig{Model: "gpt-4o"}, nil, nil)
	a.now = steppingClock(time.Date(2025, 3, 9, 13, 4, 5, 0, time.UTC), 2340*time.Millisecond)

	entry, reply := a.Analyze(context.Background(), []byte{0xff, 0xd8}, "my snack", "https://drive.google.com/uc?id=abc")

	assert.Equal(t, Entry{
		Date:        "2025-03-09",
		Time:        "13:04:07",
		Food:        "Apple",
		Calories:    "95 kcal",
		Proteins:    "0.5 g",
		Carbs:       "25 g",
		Fat:         "0.3 g",
		ImageURL:    "https://drive.google.com/uc?id=abc",
		TimeElapsed: 2.34,
	}, entry)
	assert.Equal(t, 800, reply.InputTokens)
	assert.Equal(t, 40, reply.OutputTokens)

	require.Equal(t, 1, client.calls)
	assert.Equal(t, []string{ImagePrompt}, client.last.System)
	msg := client.last.Messages[0]
	assert.Equal(t, "Analyze the food item in this image. The user added: my snack", msg.Content)
	require.Len(t, msg.Images, 1)
	assert.Equal(t, "image/jpeg", msg.Images[0].MIMEType)
}

func TestAnalyzerAnalyze_Failure(t *testing.T) {
	client := &stubVisionClient{err: errors.New("timeout")}
	a := NewAnalyzer(client, AnalyzerConfig{}, nil, nil)

	entry, reply := a.Analyze(context.Background(), []byte{1}, "", "")
	assert.Equal(t, conversation.ModelReply{Text: AnalysisFailedReply}, reply)
	assert.Empty(t, entry.Food)
	assert.Empty(t, entry.Calories)
	assert.NotEmpty(t, entry.Date)
	assert.Equal(t, "Analyze the food item in this image.", client.last.Messages[0].Content)
}

func TestAnalyzerAnalyze_EmptyImageSkipsCall(t *testing.T) {
	client := &stubVisionClient{}
	a := NewAnalyzer(client, AnalyzerConfig{}, nil, nil)

	_, reply := a.Analyze(context.Background(), nil, "", "")
	assert.Equal(t, AnalysisFailedReply, reply.Text)
	assert.Equal(t, 0, client.calls)
}

func TestFormatReport(t *testing.T) {
	entry := Entry{Food: "Apple", Calories: "95 kcal", Carbs: "25 g", TimeElapsed: 1.5}
	got := FormatReport(entry, "ignored")
	assert.Equal(t, "**Food:** Apple\n**Calories:** 95 kcal\n**Proteins:** N/A\n**Carbs:** 25 g\n**Fat:** N/A\n\n⏱️ _Analyzed in 1.50 seconds_", got)

	assert.Equal(t, AnalysisFailedReply, FormatReport(Entry{TimeElapsed: 3}, AnalysisFailedReply+"\n"))
}
