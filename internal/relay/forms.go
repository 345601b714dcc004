package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goldtouch/messenger-relay/internal/comlog"
	"github.com/goldtouch/messenger-relay/internal/httputil"
)

type formSubmission struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// HandleFormWebhook handles POST /forms/webhook: website form submissions.
// The form builder sends JSON by default but can be configured for
// form-encoded posts, so both are accepted.
func (h *Handler) HandleFormWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	sub := parseFormSubmission(r)
	if sub.Name == "" {
		sub.Name = "Customer"
	}

	h.recordWebhook("forms", "received")

	userMessage := fmt.Sprintf("Form submission from %s (%s): %s", sub.Name, sub.Phone, sub.Message)
	h.logCommunication("forms", comlog.DirectionInbound, sub.Phone, userMessage)

	reply, err := h.complete(r.Context(), h.cfg(), userMessage)
	if err != nil {
		slog.Error("form completion failed", "request_id", reqID, "error", err)
		h.recordWebhook("forms", "completion_error")
		httputil.WriteServiceUnavailableError(w, reqID, "Completion API error")
		return
	}

	if sub.Phone != "" {
		h.saveLead(sub, reply)
	}

	h.logCommunication("forms", comlog.DirectionOutbound, sub.Phone, reply)
	h.recordWebhook("forms", "relayed")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"reply": reply})
}

// saveLead mirrors the lead into the CRM without blocking the response.
func (h *Handler) saveLead(sub formSubmission, reply string) {
	if h.crm == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		contactID, err := h.crm.UpsertContact(ctx, sub.Phone, sub.Name, "")
		if err != nil {
			slog.Warn("crm contact upsert failed", "phone", sub.Phone, "error", err)
			return
		}
		if err := h.crm.LogCommunication(ctx, contactID, comlog.DirectionInbound, sub.Message); err != nil {
			slog.Warn("crm communication log failed", "contact_id", contactID, "error", err)
		}
		if err := h.crm.LogCommunication(ctx, contactID, comlog.DirectionOutbound, reply); err != nil {
			slog.Warn("crm communication log failed", "contact_id", contactID, "error", err)
		}
	}()
}

func parseFormSubmission(r *http.Request) formSubmission {
	var sub formSubmission

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err == nil {
			json.Unmarshal(body, &sub)
		}
		return sub
	}

	if err := r.ParseForm(); err == nil {
		sub.Name = r.PostFormValue("name")
		sub.Phone = r.PostFormValue("phone")
		sub.Message = r.PostFormValue("message")
	}
	return sub
}
