package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goldtouch/messenger-relay/internal/booking"
	"github.com/goldtouch/messenger-relay/internal/config"
)

// relaySMSSender implements sms.Sender for handler tests.
type relaySMSSender struct {
	sent []struct{ to, body string }
	err  error
}

func (s *relaySMSSender) Send(ctx context.Context, to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, struct{ to, body string }{to, body})
	return nil
}

func newBookingTestHandler(t *testing.T, providers []config.Provider) (*Handler, *booking.MemoryStore, *relaySMSSender) {
	t.Helper()
	store := booking.NewMemoryStore()
	smsSender := &relaySMSSender{}
	pcfg := &config.ProvidersConfig{Providers: providers}
	mgr := booking.NewManager(store, smsSender,
		func() *config.ProvidersConfig { return pcfg },
		15*time.Minute, nil)
	h := NewHandler(testCfg(), &mockProvider{}, &mockSender{}, mgr, nil, nil, nil, nil, nil)
	return h, store, smsSender
}

func TestHandleBook_DispatchesRequest(t *testing.T) {
	h, store, smsSender := newBookingTestHandler(t, []config.Provider{
		{Name: "Maria", Phone: "+15550001", Location: "Austin", InStudio: false},
	})

	body := `{"client_phone":"+15559999","location":"Austin","massage_type":"mobile"}`
	req := httptest.NewRequest("POST", "/book", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleBook(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp bookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "Booking request sent" {
		t.Errorf("unexpected status %q", resp.Status)
	}
	if resp.Provider != "Maria" {
		t.Errorf("expected provider Maria, got %q", resp.Provider)
	}
	if resp.BookingID == "" {
		t.Error("expected a booking id")
	}
	if len(smsSender.sent) != 1 || smsSender.sent[0].to != "+15550001" {
		t.Fatalf("expected one SMS to the provider, got %+v", smsSender.sent)
	}

	b, err := store.Get(context.Background(), resp.BookingID)
	if err != nil {
		t.Fatalf("booking not stored: %v", err)
	}
	if b.Status != booking.StatusPending {
		t.Errorf("expected pending booking, got %s", b.Status)
	}
}

func TestHandleBook_MissingFields(t *testing.T) {
	h, _, _ := newBookingTestHandler(t, nil)

	req := httptest.NewRequest("POST", "/book", strings.NewReader(`{"location":"Austin"}`))
	w := httptest.NewRecorder()
	h.HandleBook(w, req)

	if w.Code != 400 {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleBook_InvalidMassageType(t *testing.T) {
	h, _, _ := newBookingTestHandler(t, nil)

	body := `{"client_phone":"+15559999","location":"Austin","massage_type":"hot-stone"}`
	req := httptest.NewRequest("POST", "/book", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleBook(w, req)

	if w.Code != 400 {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleBook_NoProvider(t *testing.T) {
	h, _, _ := newBookingTestHandler(t, []config.Provider{
		{Name: "Maria", Phone: "+15550001", Location: "Dallas", InStudio: false},
	})

	body := `{"client_phone":"+15559999","location":"Austin","massage_type":"mobile"}`
	req := httptest.NewRequest("POST", "/book", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleBook(w, req)

	if w.Code != 404 {
		t.Errorf("expected 404 when no provider matches, got %d", w.Code)
	}
}

func TestHandleSMSWebhook_ConfirmsBooking(t *testing.T) {
	h, store, smsSender := newBookingTestHandler(t, []config.Provider{
		{Name: "Maria", Phone: "+15550001", Location: "Austin", InStudio: false},
	})

	b, err := h.bookings.RequestBooking(context.Background(), booking.Request{
		ClientPhone: "+15559999",
		Location:    "Austin",
		MassageType: booking.TypeMobile,
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	form := url.Values{"From": {"+15550001"}, "Body": {"YES"}, "booking_id": {b.ID}}
	req := httptest.NewRequest("POST", "/sms-webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.HandleSMSWebhook(w, req)

	if w.Code != 204 {
		t.Errorf("expected 204, got %d", w.Code)
	}
	got, err := store.Get(context.Background(), b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != booking.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}
	// Request SMS plus confirmation acknowledgement.
	if len(smsSender.sent) != 2 {
		t.Errorf("expected 2 SMS messages, got %d", len(smsSender.sent))
	}
}

func TestHandleSMSWebhook_GarbageBodyStillAccepted(t *testing.T) {
	h, _, _ := newBookingTestHandler(t, nil)

	req := httptest.NewRequest("POST", "/sms-webhook", strings.NewReader("%%%not-a-form"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.HandleSMSWebhook(w, req)

	if w.Code != 204 {
		t.Errorf("expected 204 for unparseable form, got %d", w.Code)
	}
}
