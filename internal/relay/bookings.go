package relay

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goldtouch/messenger-relay/internal/booking"
	"github.com/goldtouch/messenger-relay/internal/comlog"
	"github.com/goldtouch/messenger-relay/internal/httputil"
)

type bookRequest struct {
	ClientPhone string `json:"client_phone"`
	Location    string `json:"location"`
	MassageType string `json:"massage_type"`
	BookingID   string `json:"booking_id,omitempty"`
}

type bookResponse struct {
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	BookingID string `json:"booking_id"`
}

// HandleBook handles POST /book: match a provider and dispatch a booking
// request SMS.
func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req bookRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}

	if req.ClientPhone == "" || req.Location == "" || req.MassageType == "" {
		httputil.WriteBadRequestError(w, reqID, "client_phone, location, and massage_type are required")
		return
	}

	mt := strings.ToLower(req.MassageType)
	if mt != booking.TypeMobile && mt != booking.TypeInStudio {
		httputil.WriteBadRequestError(w, reqID, "massage_type must be 'mobile' or 'in-studio'")
		return
	}

	b, err := h.bookings.RequestBooking(r.Context(), booking.Request{
		BookingID:   req.BookingID,
		ClientPhone: req.ClientPhone,
		Location:    req.Location,
		MassageType: mt,
	})
	if err != nil {
		if errors.Is(err, booking.ErrNoProvider) {
			httputil.WriteNotFoundError(w, reqID, "No providers found for this location/type")
			return
		}
		slog.Error("booking request failed", "request_id", reqID, "error", err)
		httputil.WriteServiceUnavailableError(w, reqID, "Failed to dispatch booking request")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookResponse{
		Status:    "Booking request sent",
		Provider:  b.ProviderName,
		BookingID: b.ID,
	})
}

// HandleSMSWebhook handles POST /sms-webhook: provider YES/NO replies,
// delivered form-encoded by the SMS gateway. Always 204, the gateway does
// not care about the outcome.
func (h *Handler) HandleSMSWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	bookingID := r.PostFormValue("booking_id")

	slog.Info("provider sms received",
		"request_id", reqID,
		"from", from,
		"booking_id", bookingID,
		"body_len", len(body),
	)
	h.recordWebhook("sms", "received")
	h.logCommunication("sms", comlog.DirectionInbound, from, body)

	if from != "" {
		h.bookings.HandleProviderReply(r.Context(), from, body, bookingID)
	}

	w.WriteHeader(http.StatusNoContent)
}
