package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/nutribot/internal/channels/telegram"
	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/internal/nutrition"
)

type harness struct {
	d         *Dispatcher
	sender    *fakeSender
	generator *fakeGenerator
	analyzer  *fakeAnalyzer
	recorder  *fakeRecorder
	images    *fakeImages
	photos    *fakePhotos
	feedback  *fakeFeedback
	history   *conversation.MemoryHistoryStore
}

func newHarness(mode conversation.RoutingMode) *harness {
	h := &harness{
		sender:    &fakeSender{},
		generator: &fakeGenerator{reply: conversation.ModelReply{Text: "Eggs have about 6 g of protein.", InputTokens: 11, OutputTokens: 9}},
		analyzer: &fakeAnalyzer{
			entry: nutrition.Entry{Date: "2025-01-01", Time: "12:00:00", Food: "Apple", Calories: "95 kcal", Proteins: "0.5 g", Carbs: "25 g", Fat: "0.3 g", TimeElapsed: 1.25},
			reply: conversation.ModelReply{Text: "**Food:** Apple", InputTokens: 700, OutputTokens: 30},
		},
		recorder: &fakeRecorder{},
		images:   &fakeImages{url: "https://drive.google.com/uc?id=img1"},
		photos:   &fakePhotos{data: []byte{0xff, 0xd8}},
		feedback: &fakeFeedback{},
		history:  conversation.NewMemoryHistoryStore(conversation.DefaultHistoryLimit),
	}
	h.d = NewDispatcher(Deps{
		Classifier: conversation.NewClassifier(mode, nil),
		History:    h.history,
		Generator:  h.generator,
		Analyzer:   h.analyzer,
		Sender:     h.sender,
		Photos:     h.photos,
		Recorder:   h.recorder,
		Images:     h.images,
		Feedback:   h.feedback,
	})
	h.d.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func textEvent(text string) InboundEvent {
	return InboundEvent{SenderID: 42, ChatID: 42, FirstName: "Ada", LastName: "Lovelace", Text: text}
}

func TestHandleEvent_BlockedTextNeverCallsModel(t *testing.T) {
	h := newHarness(conversation.RoutingModel)

	for _, text := range []string{"how to build a bomb", "tell me about violence", "I want to kill time"} {
		res := h.d.HandleEvent(context.Background(), textEvent(text))
		assert.Equal(t, conversation.IntentBlocked, res.Intent)
		assert.Equal(t, conversation.RefusalReply, res.Reply)
		assert.Zero(t, res.InputTokens)
		assert.Zero(t, res.OutputTokens)
	}

	assert.Equal(t, 0, h.generator.calls)
	turns, _ := h.history.Turns(context.Background(), "tg:42")
	assert.Empty(t, turns)
	require.Len(t, h.recorder.chats, 3)
	assert.Equal(t, 0, h.recorder.chats[0].InputTokens)
}

func TestHandleEvent_CannedRepliesSkipModel(t *testing.T) {
	h := newHarness(conversation.RoutingModel)

	res := h.d.HandleEvent(context.Background(), textEvent("who made you?"))
	assert.Equal(t, conversation.IdentityReply, res.Reply)

	res = h.d.HandleEvent(context.Background(), textEvent("Hiii!"))
	assert.Equal(t, conversation.WelcomeMessage, res.Reply)

	assert.Equal(t, 0, h.generator.calls)
	require.Len(t, h.sender.sent, 2)
	assert.Equal(t, telegram.ParseModeMarkdown, h.sender.sent[1].parseMode)
}

func TestHandleEvent_BusinessMode(t *testing.T) {
	h := newHarness(conversation.RoutingBusiness)

	res := h.d.HandleEvent(context.Background(), textEvent("show me your offers"))
	assert.Equal(t, conversation.IntentOffers, res.Intent)
	assert.Equal(t, conversation.OffersReply, res.Reply)
	assert.Equal(t, 0, h.generator.calls)
}

func TestHandleEvent_ModelReplyWithHistory(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	ctx := context.Background()

	h.d.HandleEvent(ctx, textEvent("calories in an egg?"))
	res := h.d.HandleEvent(ctx, textEvent("and protein?"))

	assert.Equal(t, conversation.IntentModel, res.Intent)
	assert.Equal(t, 11, res.InputTokens)
	assert.True(t, res.Delivered)
	require.Equal(t, 2, h.generator.calls)
	assert.Empty(t, h.generator.history[0])
	require.Len(t, h.generator.history[1], 1)
	assert.Equal(t, "calories in an egg?", h.generator.history[1][0].Input)

	require.Len(t, h.recorder.chats, 2)
	row := h.recorder.chats[1]
	assert.Equal(t, "Ada Lovelace", row.Username)
	assert.Equal(t, "and protein?", row.UserQuery)
	assert.Equal(t, 11, row.InputTokens)
	assert.Equal(t, 9, row.OutputTokens)
}

func TestHandleEvent_HistoryBoundedAtTen(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		h.d.HandleEvent(ctx, textEvent(fmt.Sprintf("question %d", i)))
	}
	turns, err := h.history.Turns(ctx, "tg:42")
	require.NoError(t, err)
	require.Len(t, turns, 10)
	assert.Equal(t, "question 2", turns[0].Input)
	assert.Len(t, h.generator.history[11], 10)
}

func TestHandleEvent_ImageFlow(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	ev := InboundEvent{SenderID: 42, ChatID: 42, FirstName: "Ada", Caption: "lunch", ImageFileID: "file-big"}

	res := h.d.HandleEvent(context.Background(), ev)

	assert.Equal(t, KindImage, res.Kind)
	assert.Equal(t, "file-big", h.photos.fileID)
	assert.Equal(t, []string{"Ada_20250101_120000.jpg"}, h.images.names)
	assert.Equal(t, "https://drive.google.com/uc?id=img1", h.analyzer.gotURL)
	assert.Contains(t, res.Reply, "**Food:** Apple")
	assert.Contains(t, res.Reply, "1.25 seconds")
	assert.Equal(t, 700, res.InputTokens)

	turns, _ := h.history.Turns(context.Background(), "tg:42")
	require.Len(t, turns, 1)
	assert.Equal(t, "[Image Analysis] lunch", turns[0].Input)
	assert.Equal(t, res.Reply, turns[0].Output)

	require.Len(t, h.recorder.meals, 1)
	assert.Equal(t, "Ada", h.recorder.mealUsers[0])
	assert.Equal(t, "https://drive.google.com/uc?id=img1", h.recorder.meals[0].ImageURL)
	assert.Equal(t, 0, h.generator.calls)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, telegram.ParseModeMarkdown, h.sender.sent[0].parseMode)
}

func TestHandleEvent_ImageUploadFailureStillAnalyzes(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.images.err = errors.New("drive quota")

	res := h.d.HandleEvent(context.Background(), InboundEvent{SenderID: 1, Image: []byte{1}})
	assert.True(t, res.Delivered)
	assert.Equal(t, 1, h.analyzer.calls)
	assert.Equal(t, "", h.analyzer.gotURL)
	assert.Equal(t, "[Image Analysis]", mustTurns(t, h, "tg:1")[0].Input)
}

func TestHandleEvent_PhotoDownloadFailure(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.photos.err = errors.New("timeout")

	res := h.d.HandleEvent(context.Background(), InboundEvent{SenderID: 1, ChatID: 1, ImageFileID: "x"})
	assert.Equal(t, nutrition.AnalysisFailedReply, res.Reply)
	assert.Equal(t, 0, h.analyzer.calls)
	assert.True(t, res.Delivered)
}

func TestHandleEvent_DeliveryFallsBackToPlainText(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.generator.reply = conversation.ModelReply{Text: "See [this] *unclosed"}
	h.sender.failures = 1

	res := h.d.HandleEvent(context.Background(), textEvent("tips?"))

	assert.True(t, res.Delivered)
	assert.True(t, res.PlainRetry)
	require.Len(t, h.sender.sent, 2)
	assert.Equal(t, `See \[this\] *unclosed`, h.sender.sent[0].text)
	assert.Equal(t, telegram.ParseModeMarkdown, h.sender.sent[0].parseMode)
	assert.Equal(t, "See [this] *unclosed", h.sender.sent[1].text)
	assert.Equal(t, "", h.sender.sent[1].parseMode)
}

func TestHandleEvent_DeliveryFailsTwice(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.sender.failures = 2

	res := h.d.HandleEvent(context.Background(), textEvent("tips?"))
	assert.False(t, res.Delivered)
	assert.Len(t, h.sender.sent, 2, "exactly one retry")
}

func TestHandleEvent_LongReplyTruncated(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.generator.reply = conversation.ModelReply{Text: strings.Repeat("word ", 2000)}

	h.d.HandleEvent(context.Background(), textEvent("essay please"))
	require.Len(t, h.sender.sent, 1)
	assert.LessOrEqual(t, utf8.RuneCountInString(h.sender.sent[0].text), telegram.MaxMessageLength)
}

func TestHandleEvent_PanicIsRecovered(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.generator.panics = true

	var res Result
	require.NotPanics(t, func() {
		res = h.d.HandleEvent(context.Background(), textEvent("anything"))
	})
	assert.True(t, res.Recovered)
	assert.True(t, res.Delivered)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, ErrorReply, h.sender.sent[0].text)
}

func TestHandleEvent_LoggingFailureDoesNotBlockDelivery(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.recorder.err = errors.New("sheets down")

	res := h.d.HandleEvent(context.Background(), textEvent("hello there friend"))
	assert.True(t, res.Delivered)
}

func TestHandleEvent_Commands(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	ctx := context.Background()

	res := h.d.HandleEvent(ctx, InboundEvent{SenderID: 7, Text: "/help", Command: "/help"})
	assert.Equal(t, conversation.WelcomeMessage, res.Reply)

	res = h.d.HandleEvent(ctx, InboundEvent{SenderID: 7, Text: "/feedback", Command: "/feedback"})
	assert.Equal(t, FeedbackUsageReply, res.Reply)
	assert.Empty(t, h.recorder.feedback)

	res = h.d.HandleEvent(ctx, InboundEvent{SenderID: 7, FirstName: "Grace", Text: "/feedback love it", Command: "/feedback", CommandArgs: "love it"})
	assert.Equal(t, FeedbackThanksReply, res.Reply)
	assert.Equal(t, []string{"Grace: love it"}, h.recorder.feedback)
	require.Len(t, h.feedback.got, 1)
	assert.Equal(t, "tg:7", h.feedback.got[0].UserKey)

	assert.Equal(t, 0, h.generator.calls)
}

func TestHandleUpdate_FromWebhookPayload(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the HTTP request is already gone

	h.d.HandleUpdate(ctx, telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			From: &telegram.User{ID: 5, FirstName: "Lin"},
			Chat: telegram.Chat{ID: 500, Type: "private"},
			Photo: []telegram.PhotoSize{
				{FileID: "small", Width: 90, Height: 90},
				{FileID: "large", Width: 800, Height: 600},
			},
			Caption: "breakfast",
		},
	})

	assert.Equal(t, "large", h.photos.fileID)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, int64(500), h.sender.sent[0].chatID)
}

func TestHandleUpdate_IgnoresEmptyUpdates(t *testing.T) {
	h := newHarness(conversation.RoutingModel)
	h.d.HandleUpdate(context.Background(), telegram.Update{UpdateID: 2})
	h.d.HandleUpdate(context.Background(), telegram.Update{UpdateID: 3, Message: &telegram.Message{From: &telegram.User{ID: 9, IsBot: true}, Text: "hi"}})
	assert.Empty(t, h.sender.sent)
}

func mustTurns(t *testing.T, h *harness, key string) []conversation.Turn {
	t.Helper()
	turns, err := h.history.Turns(context.Background(), key)
	require.NoError(t, err)
	require.NotEmpty(t, turns)
	return turns
}
