package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/wolfman30/nutribot/internal/channels/telegram"
	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/internal/notify"
	"github.com/wolfman30/nutribot/internal/nutrition"
	"github.com/wolfman30/nutribot/internal/observability/metrics"
	"github.com/wolfman30/nutribot/internal/sheets"
	"github.com/wolfman30/nutribot/internal/storage"
	"github.com/wolfman30/nutribot/pkg/logging"
)

const (
	defaultDispatchTimeout = 2 * time.Minute

	// ErrorReply is the best-effort message after an unexpected failure.
	ErrorReply = "Sorry, something went wrong. Please try again."

	imageTurnPrefix = "[Image Analysis]"
)

// Sender delivers a reply. parseMode "" means plain text.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

type PhotoFetcher interface {
	FetchPhoto(ctx context.Context, fileID string) ([]byte, error)
}

type TextGenerator interface {
	Generate(ctx context.Context, history []conversation.Turn, text string) conversation.ModelReply
}

type ImageAnalyzer interface {
	Analyze(ctx context.Context, image []byte, caption, imageURL string) (nutrition.Entry, conversation.ModelReply)
}

type FeedbackNotifier interface {
	NotifyFeedback(ctx context.Context, fb notify.Feedback) error
}

// Deps are the dispatcher's collaborators. Recorder, Images and Feedback
// may be nil and then do nothing.
type Deps struct {
	Classifier *conversation.Classifier
	History    conversation.HistoryStore
	Generator  TextGenerator
	Analyzer   ImageAnalyzer
	Sender     Sender
	Photos     PhotoFetcher
	Recorder   sheets.Recorder
	Images     storage.ImageStore
	Feedback   FeedbackNotifier
	Logger     *logging.Logger
	Metrics    *metrics.BotMetrics
	Timeout    time.Duration
}

// Result describes what happened to one event. Tests and logs use it; the
// webhook ignores it.
type Result struct {
	Kind         string
	Intent       conversation.Intent
	Reply        string
	ParseMode    string
	InputTokens  int
	OutputTokens int
	Delivered    bool
	PlainRetry   bool
	Recovered    bool
}

// Dispatcher runs the per-event pipeline: classify or analyze, remember,
// log, format, deliver.
type Dispatcher struct {
	classifier *conversation.Classifier
	history    conversation.HistoryStore
	generator  TextGenerator
	analyzer   ImageAnalyzer
	sender     Sender
	photos     PhotoFetcher
	recorder   sheets.Recorder
	images     storage.ImageStore
	feedback   FeedbackNotifier
	logger     *logging.Logger
	metrics    *metrics.BotMetrics
	timeout    time.Duration
	now        func() time.Time
}

func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Generator == nil || deps.Analyzer == nil || deps.Sender == nil {
		panic("dispatch: generator, analyzer and sender are required")
	}
	d := &Dispatcher{
		classifier: deps.Classifier,
		history:    deps.History,
		generator:  deps.Generator,
		analyzer:   deps.Analyzer,
		sender:     deps.Sender,
		photos:     deps.Photos,
		recorder:   deps.Recorder,
		images:     deps.Images,
		feedback:   deps.Feedback,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		timeout:    deps.Timeout,
		now:        time.Now,
	}
	if d.classifier == nil {
		d.classifier = conversation.NewClassifier(conversation.RoutingModel, nil)
	}
	if d.history == nil {
		d.history = conversation.NewMemoryHistoryStore(conversation.DefaultHistoryLimit)
	}
	if d.recorder == nil {
		d.recorder = sheets.Noop{}
	}
	if d.images == nil {
		d.images = storage.Noop{}
	}
	if d.feedback == nil {
		d.feedback = (*notify.FeedbackNotifier)(nil)
	}
	if d.logger == nil {
		d.logger = logging.Default()
	}
	if d.timeout <= 0 {
		d.timeout = defaultDispatchTimeout
	}
	return d
}

// HandleUpdate is the webhook entry point. Work continues after the HTTP
// request is gone, bounded by the dispatch timeout.
func (d *Dispatcher) HandleUpdate(ctx context.Context, u telegram.Update) {
	ev, ok := EventFromUpdate(u)
	if !ok {
		d.metrics.ObserveInbound(KindUnsupported, "ignored")
		d.logger.Debug("ignoring update without user message", "update_id", u.UpdateID)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	res := d.HandleEvent(ctx, ev)
	d.logger.Info("update handled",
		"update_id", u.UpdateID,
		"kind", res.Kind,
		"intent", res.Intent,
		"delivered", res.Delivered,
		"plain_retry", res.PlainRetry,
		"input_tokens", res.InputTokens,
		"output_tokens", res.OutputTokens,
	)
}

// HandleEvent processes one event and never panics.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev InboundEvent) (res Result) {
	res.Kind = ev.Kind()
	start := time.Now()
	d.metrics.ObserveInbound(res.Kind, "accepted")

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("dispatch panicked",
				"panic", fmt.Sprint(rec),
				"user_key", ev.UserKey(),
				"stack", string(debug.Stack()),
			)
			res.Recovered = true
			res.Delivered = d.sendApology(ctx, ev.ReplyChatID())
		}
		d.metrics.ObserveDispatchLatency(res.Kind, time.Since(start).Seconds())
	}()

	switch res.Kind {
	case KindImage:
		d.handleImage(ctx, ev, &res)
	case KindCommand:
		d.handleCommand(ctx, ev, &res)
	case KindText:
		d.handleText(ctx, ev, &res)
	default:
		d.logger.Debug("ignoring unsupported message", "user_key", ev.UserKey())
	}
	return res
}

func (d *Dispatcher) handleText(ctx context.Context, ev InboundEvent, res *Result) {
	key := ev.UserKey()
	decision := d.classifier.Classify(ev.Text)
	res.Intent = decision.Intent

	var reply conversation.ModelReply
	if decision.Canned() {
		reply = conversation.ModelReply{Text: decision.Reply}
		d.logger.Info("canned reply", "user_key", key, "intent", decision.Intent, "reason", decision.Reason)
	} else {
		history, err := d.history.Turns(ctx, key)
		if err != nil {
			d.logger.Warn("failed to load history, continuing without it", "error", err, "user_key", key)
			history = nil
		}
		reply = d.generator.Generate(ctx, history, ev.Text)
	}
	res.Reply = reply.Text
	res.InputTokens = reply.InputTokens
	res.OutputTokens = reply.OutputTokens

	// A blocked message stops here: nothing of it is remembered.
	if decision.Intent != conversation.IntentBlocked {
		d.remember(ctx, key, conversation.Turn{Input: ev.Text, Output: reply.Text})
	}

	err := d.recorder.LogChat(ctx, sheets.ChatRow{
		Username:     ev.DisplayName(),
		UserQuery:    ev.Text,
		BotMessage:   reply.Text,
		InputTokens:  reply.InputTokens,
		OutputTokens: reply.OutputTokens,
	})
	if err != nil {
		d.logger.Error("failed to log chat row", "error", err, "user_key", key)
	}

	d.deliver(ctx, ev.ReplyChatID(), res)
}

func (d *Dispatcher) handleImage(ctx context.Context, ev InboundEvent, res *Result) {
	key := ev.UserKey()
	name := ev.DisplayName()

	image := ev.Image
	if len(image) == 0 {
		data, err := d.fetchPhoto(ctx, ev.ImageFileID)
		if err != nil {
			d.logger.Error("failed to download photo", "error", err, "user_key", key)
			res.Reply = nutrition.AnalysisFailedReply
			d.deliver(ctx, ev.ReplyChatID(), res)
			return
		}
		image = data
	}

	imageURL, err := d.images.Upload(ctx, storage.ImageFileName(name, d.now()), image)
	if err != nil {
		d.logger.Error("failed to upload image", "error", err, "user_key", key)
		imageURL = ""
	}

	entry, reply := d.analyzer.Analyze(ctx, image, ev.Caption, imageURL)
	report := nutrition.FormatReport(entry, reply.Text)
	res.Reply = report
	res.InputTokens = reply.InputTokens
	res.OutputTokens = reply.OutputTokens

	input := imageTurnPrefix
	if caption := strings.TrimSpace(ev.Caption); caption != "" {
		input += " " + caption
	}
	d.remember(ctx, key, conversation.Turn{Input: input, Output: report})

	if err := d.recorder.LogMeal(ctx, name, entry); err != nil {
		d.logger.Error("failed to log meal row", "error", err, "user_key", key)
	}

	d.deliver(ctx, ev.ReplyChatID(), res)
}

func (d *Dispatcher) fetchPhoto(ctx context.Context, fileID string) ([]byte, error) {
	if d.photos == nil {
		return nil, fmt.Errorf("dispatch: no photo fetcher configured")
	}
	return d.photos.FetchPhoto(ctx, fileID)
}

func (d *Dispatcher) remember(ctx context.Context, key string, turn conversation.Turn) {
	if err := d.history.Append(ctx, key, turn); err != nil {
		d.logger.Error("failed to append history", "error", err, "user_key", key)
	}
}

// deliver sends the formatted reply and, if Telegram rejects it, the raw text
// once more without a parse mode. A second failure is logged and dropped.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, res *Result) {
	text, mode := telegram.FormatReply(res.Reply)
	res.ParseMode = mode

	err := d.sender.SendMessage(ctx, chatID, text, mode)
	if err == nil {
		d.metrics.ObserveOutbound("sent", mode)
		res.Delivered = true
		return
	}
	d.metrics.ObserveOutbound("failed", mode)
	d.logger.Warn("formatted send failed, retrying as plain text", "error", err, "chat_id", chatID)

	res.PlainRetry = true
	res.ParseMode = ""
	plain := telegram.Truncate(res.Reply, telegram.MaxMessageLength)
	if err := d.sender.SendMessage(ctx, chatID, plain, ""); err != nil {
		d.metrics.ObserveOutbound("failed", "")
		d.logger.Error("plain send failed, dropping reply", "error", err, "chat_id", chatID)
		return
	}
	d.metrics.ObserveOutbound("sent", "")
	res.Delivered = true
}

func (d *Dispatcher) sendApology(ctx context.Context, chatID int64) (sent bool) {
	if chatID == 0 {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("apology send panicked", "panic", fmt.Sprint(rec))
			sent = false
		}
	}()
	if err := d.sender.SendMessage(ctx, chatID, ErrorReply, ""); err != nil {
		d.logger.Error("failed to send apology", "error", err, "chat_id", chatID)
		return false
	}
	return true
}
