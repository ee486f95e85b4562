package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/IshaanNene/ShelfStat/internal/observability"
)

const (
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes = 1 << 20
)

// WebhookHandler receives updates pushed by Telegram.
type WebhookHandler struct {
	bot     *Bot
	secret  string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWebhookHandler creates the endpoint. An empty secret disables the
// header check.
func NewWebhookHandler(bot *Bot, secret string, metrics *observability.Metrics, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		bot:     bot,
		secret:  secret,
		metrics: metrics,
		logger:  logger.With("component", "webhook"),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	var u Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&u); err != nil {
		h.logger.Warn("invalid update", "error", err)
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	if h.metrics != nil {
		h.metrics.UpdatesReceived.Add(1)
	}

	// Telegram redelivers on non-2xx, so delivery failures are only logged.
	if err := h.bot.HandleUpdate(r.Context(), &u); err != nil {
		h.logger.Warn("update handled with errors", "update_id", u.UpdateID, "error", err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}
