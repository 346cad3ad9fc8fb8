package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/internal/notify"
	"github.com/wolfman30/nutribot/internal/nutrition"
	"github.com/wolfman30/nutribot/internal/sheets"
)

type sentMessage struct {
	chatID    int64
	text      string
	parseMode string
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failures int // number of leading calls that fail
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID, text, parseMode})
	if len(f.sent) <= f.failures {
		return errors.New("telegram: API error 400: can't parse entities")
	}
	return nil
}

type fakeGenerator struct {
	reply   conversation.ModelReply
	calls   int
	history [][]conversation.Turn
	panics  bool
}

func (f *fakeGenerator) Generate(ctx context.Context, history []conversation.Turn, text string) conversation.ModelReply {
	f.calls++
	f.history = append(f.history, history)
	if f.panics {
		panic("generator exploded")
	}
	return f.reply
}

type fakeAnalyzer struct {
	entry    nutrition.Entry
	reply    conversation.ModelReply
	calls    int
	gotURL   string
	gotImage []byte
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, image []byte, caption, imageURL string) (nutrition.Entry, conversation.ModelReply) {
	f.calls++
	f.gotURL = imageURL
	f.gotImage = image
	e := f.entry
	e.ImageURL = imageURL
	return e, f.reply
}

type fakeRecorder struct {
	chats     []sheets.ChatRow
	meals     []nutrition.Entry
	mealUsers []string
	feedback  []string
	err       error
}

func (f *fakeRecorder) LogChat(ctx context.Context, row sheets.ChatRow) error {
	f.chats = append(f.chats, row)
	return f.err
}

func (f *fakeRecorder) LogMeal(ctx context.Context, client string, e nutrition.Entry) error {
	f.meals = append(f.meals, e)
	f.mealUsers = append(f.mealUsers, client)
	return f.err
}

func (f *fakeRecorder) LogFeedback(ctx context.Context, username, text string) error {
	f.feedback = append(f.feedback, username+": "+text)
	return f.err
}

type fakeImages struct {
	names []string
	url   string
	err   error
}

func (f *fakeImages) Upload(ctx context.Context, name string, data []byte) (string, error) {
	f.names = append(f.names, name)
	return f.url, f.err
}

type fakePhotos struct {
	data   []byte
	err    error
	fileID string
}

func (f *fakePhotos) FetchPhoto(ctx context.Context, fileID string) ([]byte, error) {
	f.fileID = fileID
	return f.data, f.err
}

type fakeFeedback struct {
	got []notify.Feedback
}

func (f *fakeFeedback) NotifyFeedback(ctx context.Context, fb notify.Feedback) error {
	f.got = append(f.got, fb)
	return nil
}
