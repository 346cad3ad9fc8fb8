package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wolfman30/nutribot/internal/observability/metrics"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// SecretHeader carries the secret_token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxWebhookBody = 1 << 20

// UpdateHandler processes one update. Panics are recovered and logged.
type UpdateHandler func(ctx context.Context, update Update)

// WebhookHandler accepts Telegram updates over HTTP.
type WebhookHandler struct {
	secret   string
	onUpdate UpdateHandler
	logger   *logging.Logger
	metrics  *metrics.BotMetrics
}

// NewWebhookHandler creates a webhook handler. An empty secret disables the
// header check.
func NewWebhookHandler(secret string, onUpdate UpdateHandler, logger *logging.Logger, m *metrics.BotMetrics) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		secret:   secret,
		onUpdate: onUpdate,
		logger:   logger,
		metrics:  m,
	}
}

// ServeHTTP handles POST /webhook.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("telegram: failed to read webhook body", "error", err)
		body = nil
	}

	status := h.Process(r.Context(), r.Header.Get(SecretHeader), body)
	WriteAck(w, status)
}

// Process verifies and dispatches one raw update. It returns the HTTP status
// to answer with: 401 on a secret mismatch, otherwise 200 whatever happened.
func (h *WebhookHandler) Process(ctx context.Context, secretHeader string, body []byte) int {
	if !VerifySecret(h.secret, secretHeader) {
		h.metrics.ObserveInbound("unknown", "unauthorized")
		h.logger.Warn("telegram: webhook secret mismatch")
		return http.StatusUnauthorized
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		// Acknowledge anyway so Telegram does not redeliver the same payload.
		h.metrics.ObserveInbound("invalid", "malformed")
		h.logger.Warn("telegram: malformed update", "error", err, "bytes", len(body))
		return http.StatusOK
	}

	if h.onUpdate != nil {
		h.dispatch(ctx, update)
	}
	return http.StatusOK
}

func (h *WebhookHandler) dispatch(ctx context.Context, update Update) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("telegram: update handler panicked",
				"update_id", update.UpdateID,
				"panic", fmt.Sprint(rec),
			)
		}
	}()
	h.onUpdate(ctx, update)
}

// VerifySecret compares the header against the configured secret in constant time.
func VerifySecret(secret, header string) bool {
	if secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(header)) == 1
}

// WriteAck writes the {"ok": ...} body Telegram expects.
func WriteAck(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": status == http.StatusOK})
}
