package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/nutribot/internal/channels/telegram"
	httpmiddleware "github.com/wolfman30/nutribot/internal/http/middleware"
	"github.com/wolfman30/nutribot/pkg/logging"
)

const rootMessage = "Telegram nutrition bot is running."

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Webhook        http.Handler
	MetricsHandler http.Handler

	// WebhookLimiter throttles POST /webhook per client IP. Nil disables it.
	// Dropped updates are still acknowledged so Telegram does not redeliver.
	WebhookLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", rootHandler)
	r.Get("/health", healthHandler)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webhook != nil {
		r.Group(func(hook chi.Router) {
			if cfg.WebhookLimiter != nil {
				hook.Use(httpmiddleware.RateLimit(cfg.WebhookLimiter, droppedUpdate(cfg.Logger)))
			}
			hook.Method(http.MethodPost, "/webhook", cfg.Webhook)
		})
	}

	return r
}

func droppedUpdate(logger *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Warn("webhook rate limit exceeded; dropping update",
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}
		telegram.WriteAck(w, http.StatusOK)
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": rootMessage})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
