package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goldtouch/messenger-relay/internal/booking"
	"github.com/goldtouch/messenger-relay/internal/comlog"
	"github.com/goldtouch/messenger-relay/internal/completion"
	"github.com/goldtouch/messenger-relay/internal/config"
	"github.com/goldtouch/messenger-relay/internal/crm"
	"github.com/goldtouch/messenger-relay/internal/dedup"
	"github.com/goldtouch/messenger-relay/internal/httputil"
	"github.com/goldtouch/messenger-relay/internal/messenger"
	"github.com/goldtouch/messenger-relay/internal/ratelimit"
	"github.com/goldtouch/messenger-relay/internal/telemetry"
	"github.com/goldtouch/messenger-relay/internal/types"
)

const maxBodySize = 1 << 20 // 1MB

// Handler holds dependencies for the relay HTTP handlers. The completion
// provider and message sender sit behind narrow interfaces so tests can
// substitute doubles; deduper, limiter, comlog, and metrics are optional.
type Handler struct {
	cfg      func() *config.Config
	provider completion.Provider
	sender   messenger.Sender
	bookings *booking.Manager
	crm      crm.Recorder
	comlog   comlog.Recorder
	deduper  *dedup.Deduper
	limiter  *ratelimit.Limiter
	metrics  *telemetry.Metrics
}

func NewHandler(
	cfg func() *config.Config,
	provider completion.Provider,
	sender messenger.Sender,
	bookings *booking.Manager,
	crmRecorder crm.Recorder,
	comlogRecorder comlog.Recorder,
	deduper *dedup.Deduper,
	limiter *ratelimit.Limiter,
	metrics *telemetry.Metrics,
) *Handler {
	return &Handler{
		cfg:      cfg,
		provider: provider,
		sender:   sender,
		bookings: bookings,
		crm:      crmRecorder,
		comlog:   comlogRecorder,
		deduper:  deduper,
		limiter:  limiter,
		metrics:  metrics,
	}
}

// VerifyWebhook handles GET /webhook, the platform's one-time verification
// handshake. The challenge is echoed back only when the verify token matches.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token == "" || token != h.cfg().Messenger.VerifyToken {
		slog.Warn("webhook verification failed", "request_id", reqID, "mode", mode)
		httputil.WriteForbiddenError(w, reqID, "Verification token mismatch")
		return
	}

	slog.Info("webhook verified", "request_id", reqID)
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// HandleWebhook handles POST /webhook. The platform expects a prompt 200
// regardless of downstream outcome, anything else triggers redelivery, so
// every path through here ends in an acknowledgement.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.recordWebhook("messenger", "read_error")
		h.ack(w)
		return
	}
	defer r.Body.Close()

	msg, err := messenger.ParseEvent(body)
	if err != nil {
		switch err {
		case messenger.ErrNoMessage:
			slog.Info("event without message text, ignoring", "request_id", reqID)
			h.recordWebhook("messenger", "no_text")
		default:
			slog.Warn("malformed webhook payload, ignoring", "request_id", reqID)
			h.recordWebhook("messenger", "malformed")
		}
		h.ack(w)
		return
	}

	if h.deduper != nil && h.deduper.Seen(r.Context(), msg.MessageID) {
		slog.Info("duplicate delivery suppressed", "request_id", reqID, "message_id", msg.MessageID)
		h.recordWebhook("messenger", "duplicate")
		h.ack(w)
		return
	}

	cfg := h.cfg()
	if h.limiter != nil && cfg.RateLimit.Enabled {
		result, _ := h.limiter.Check(r.Context(), msg.SenderID, int64(cfg.RateLimit.RequestsPerMin), time.Minute)
		if !result.Allowed {
			slog.Warn("sender rate limited", "request_id", reqID, "sender_id", msg.SenderID)
			if h.metrics != nil {
				h.metrics.RecordRateLimitHit("messenger")
			}
			h.recordWebhook("messenger", "rate_limited")
			h.ack(w)
			return
		}
	}

	h.logCommunication("messenger", comlog.DirectionInbound, msg.SenderID, msg.Text)

	reply, err := h.complete(r.Context(), cfg, msg.Text)
	if err != nil {
		slog.Error("completion failed", "request_id", reqID, "sender_id", msg.SenderID, "error", err)
		h.recordWebhook("messenger", "completion_error")
		h.ack(w)
		return
	}

	if err := h.sender.SendText(r.Context(), msg.SenderID, reply); err != nil {
		// Terminal for this event: no in-process retry.
		slog.Error("send failed", "request_id", reqID, "sender_id", msg.SenderID, "error", err)
		if h.metrics != nil {
			h.metrics.RecordSend("error")
		}
		h.recordWebhook("messenger", "send_error")
		h.ack(w)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSend("ok")
	}

	h.logCommunication("messenger", comlog.DirectionOutbound, msg.SenderID, reply)

	slog.Info("message relayed",
		"request_id", reqID,
		"sender_id", msg.SenderID,
		"message_id", msg.MessageID,
		"reply_len", len(reply),
		"duration_ms", time.Since(receivedAt).Milliseconds(),
	)
	h.recordWebhook("messenger", "relayed")
	h.ack(w)
}

// complete runs one completion call with the fixed system prompt.
func (h *Handler) complete(ctx context.Context, cfg *config.Config, userText string) (string, error) {
	start := time.Now()
	reply, err := h.provider.Complete(ctx, []types.Message{
		{Role: types.RoleSystem, Content: systemPrompt},
		{Role: types.RoleUser, Content: userText},
	})
	durationMs := float64(time.Since(start).Milliseconds())

	if h.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		h.metrics.RecordCompletion(cfg.Completion.Model, status, durationMs)
	}
	return reply, err
}

func (h *Handler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}

// logCommunication appends to the local audit log without blocking the
// request path.
func (h *Handler) logCommunication(channel, direction, party, body string) {
	if h.comlog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.comlog.Record(ctx, channel, direction, party, body); err != nil {
			slog.Warn("failed to record communication", "channel", channel, "error", err)
		}
	}()
}

func (h *Handler) recordWebhook(endpoint, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(endpoint, outcome)
	}
}
