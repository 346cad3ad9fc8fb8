package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/nutribot/internal/api/router"
	"github.com/wolfman30/nutribot/internal/channels/telegram"
	appconfig "github.com/wolfman30/nutribot/internal/config"
	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/internal/dispatch"
	httpmiddleware "github.com/wolfman30/nutribot/internal/http/middleware"
	"github.com/wolfman30/nutribot/internal/nutrition"
	"github.com/wolfman30/nutribot/internal/observability/metrics"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// Options carries process-level dependencies that the binaries own.
type Options struct {
	Logger *logging.Logger
	// Registry receives the bot's metrics. Nil creates a private registry.
	Registry *prometheus.Registry
	// LoadAWS is only called when a provider, storage or email backend needs AWS.
	LoadAWS AWSConfigLoader
}

// App is the fully wired bot.
type App struct {
	Handler    http.Handler
	Webhook    *telegram.WebhookHandler
	Dispatcher *dispatch.Dispatcher
	Limiter    *httpmiddleware.RateLimiter

	closers []func() error
}

// Build wires every component from cfg. Callers run cfg.Validate first; any
// error returned here must stop the process before it serves traffic.
func Build(ctx context.Context, cfg *appconfig.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	loadAWS := onceAWS(opts.LoadAWS)
	app := &App{}

	botMetrics := metrics.NewBotMetrics(reg)

	textClient, closeText, err := BuildLLMClient(ctx, cfg, PurposeText, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeText)

	visionClient, closeVision, err := BuildLLMClient(ctx, cfg, PurposeVision, loadAWS, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeVision)

	history, closeHistory := BuildHistoryStore(ctx, cfg, logger)
	app.closers = append(app.closers, closeHistory)

	ts, err := BuildGoogleTokenSource(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	recorder, err := BuildRecorder(ctx, cfg, ts, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	images, err := BuildImageStore(ctx, cfg, ts, loadAWS, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	feedback := BuildFeedbackNotifier(ctx, cfg, loadAWS, logger)

	tg := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramTimeout)
	tg.SetAPIBase(cfg.TelegramAPIBase)

	responder := conversation.NewResponder(textClient, conversation.ResponderConfig{
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
		Timeout:     cfg.LLMTextTimeout,
	}, logger, botMetrics)
	analyzer := nutrition.NewAnalyzer(visionClient, nutrition.AnalyzerConfig{
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
		Timeout:     cfg.LLMImageTimeout,
	}, logger, botMetrics)

	mode := conversation.ParseRoutingMode(cfg.RoutingMode)
	app.Dispatcher = dispatch.NewDispatcher(dispatch.Deps{
		Classifier: conversation.NewClassifier(mode, conversation.NewSafetyFilter()),
		History:    history,
		Generator:  responder,
		Analyzer:   analyzer,
		Sender:     tg,
		Photos:     tg,
		Recorder:   recorder,
		Images:     images,
		Feedback:   feedback,
		Logger:     logger,
		Metrics:    botMetrics,
		Timeout:    cfg.DispatchTimeout,
	})

	app.Webhook = telegram.NewWebhookHandler(cfg.TelegramWebhookSecret, app.Dispatcher.HandleUpdate, logger, botMetrics)
	app.Limiter = httpmiddleware.NewRateLimiter(cfg.WebhookRateLimit, cfg.WebhookRateBurst)
	app.Handler = router.New(&router.Config{
		Logger:         logger,
		Webhook:        app.Webhook,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		WebhookLimiter: app.Limiter,
	})

	logger.Info("bot wired",
		"routing_mode", mode,
		"history_backend", cfg.HistoryBackend,
		"storage_backend", cfg.StorageBackend,
		"feedback_email", feedback.Enabled(),
	)
	return app, nil
}

// Close releases provider and Redis connections. It is safe to call twice.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// onceAWS memoises the loader so every AWS-backed component shares one config.
func onceAWS(load AWSConfigLoader) AWSConfigLoader {
	if load == nil {
		return nil
	}
	var (
		once   sync.Once
		awsCfg aws.Config
		err    error
	)
	return func(ctx context.Context) (aws.Config, error) {
		once.Do(func() {
			awsCfg, err = load(ctx)
		})
		return awsCfg, err
	}
}
