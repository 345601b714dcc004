package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goldtouch/messenger-relay/internal/config"
)

// mockSMSSender records sent messages.
type mockSMSSender struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

type sentSMS struct {
	to   string
	body string
}

func (m *mockSMSSender) Send(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentSMS{to: to, body: body})
	return nil
}

func (m *mockSMSSender) messages() []sentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentSMS(nil), m.sent...)
}

func testProviders() func() *config.ProvidersConfig {
	pc := &config.ProvidersConfig{
		Providers: []config.Provider{
			{Name: "Alice", Phone: "+15550001111", Location: "Downtown", InStudio: true},
			{Name: "Bob", Phone: "+15550002222", Location: "Downtown", InStudio: false},
			{Name: "Carol", Phone: "+15550003333", Location: "Uptown", InStudio: false},
		},
	}
	return func() *config.ProvidersConfig { return pc }
}

func newTestManager(sender *mockSMSSender) (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	mgr := NewManager(store, sender, testProviders(), 15*time.Minute, nil)
	return mgr, store
}

func TestRequestBooking_MobileMatchesMobileProvider(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, _ := newTestManager(sender)

	b, err := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "Downtown",
		MassageType: TypeMobile,
	})
	if err != nil {
		t.Fatalf("RequestBooking failed: %v", err)
	}

	if b.ProviderName != "Bob" {
		t.Errorf("expected mobile provider Bob, got %s", b.ProviderName)
	}
	if b.Status != StatusPending {
		t.Errorf("expected pending, got %s", b.Status)
	}
	if b.ID == "" {
		t.Error("expected generated booking id")
	}

	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 sms, got %d", len(msgs))
	}
	if msgs[0].to != "+15550002222" {
		t.Errorf("expected sms to Bob, got %s", msgs[0].to)
	}
}

func TestRequestBooking_InStudioMatchesStudioProvider(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, _ := newTestManager(sender)

	b, err := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "downtown", // case-insensitive match
		MassageType: "In-Studio",
	})
	if err != nil {
		t.Fatalf("RequestBooking failed: %v", err)
	}
	if b.ProviderName != "Alice" {
		t.Errorf("expected studio provider Alice, got %s", b.ProviderName)
	}
}

func TestRequestBooking_NoProvider(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, _ := newTestManager(sender)

	_, err := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "Nowhere",
		MassageType: TypeMobile,
	})
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
	if len(sender.messages()) != 0 {
		t.Error("no sms should be sent when no provider matches")
	}
}

func TestRequestBooking_KeepsSuppliedID(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, store := newTestManager(sender)

	b, err := mgr.RequestBooking(context.Background(), Request{
		BookingID:   "abc123",
		ClientPhone: "+15559990000",
		Location:    "Uptown",
		MassageType: TypeMobile,
	})
	if err != nil {
		t.Fatalf("RequestBooking failed: %v", err)
	}
	if b.ID != "abc123" {
		t.Errorf("expected supplied id, got %s", b.ID)
	}

	stored, err := store.Get(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("booking not stored: %v", err)
	}
	if stored.ProviderName != "Carol" {
		t.Errorf("expected Carol, got %s", stored.ProviderName)
	}
}

func TestHandleProviderReply_YesConfirms(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, store := newTestManager(sender)

	b, _ := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "Downtown",
		MassageType: TypeMobile,
	})

	mgr.HandleProviderReply(context.Background(), b.ProviderPhone, " yes \n", b.ID)

	got, _ := store.Get(context.Background(), b.ID)
	if got.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}

	msgs := sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected booking sms + confirmation sms, got %d", len(msgs))
	}
	if msgs[1].body != "Thank you! Booking confirmed." {
		t.Errorf("unexpected confirmation body %q", msgs[1].body)
	}
}

func TestHandleProviderReply_NoDeclines(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, store := newTestManager(sender)

	b, _ := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "Downtown",
		MassageType: TypeMobile,
	})

	mgr.HandleProviderReply(context.Background(), b.ProviderPhone, "NO", b.ID)

	got, _ := store.Get(context.Background(), b.ID)
	if got.Status != StatusDeclined {
		t.Errorf("expected declined, got %s", got.Status)
	}
	// No confirmation SMS on decline.
	if len(sender.messages()) != 1 {
		t.Errorf("expected only the booking request sms, got %d", len(sender.messages()))
	}
}

func TestHandleProviderReply_MatchesByPhoneWithoutID(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, store := newTestManager(sender)

	b, _ := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "Downtown",
		MassageType: TypeMobile,
	})

	mgr.HandleProviderReply(context.Background(), b.ProviderPhone, "YES", "")

	got, _ := store.Get(context.Background(), b.ID)
	if got.Status != StatusConfirmed {
		t.Errorf("expected confirmed via phone match, got %s", got.Status)
	}
}

func TestHandleProviderReply_UnknownBookingIgnored(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, _ := newTestManager(sender)

	// Must not panic or send anything.
	mgr.HandleProviderReply(context.Background(), "+15550009999", "YES", "missing")

	if len(sender.messages()) != 0 {
		t.Error("no sms expected for unknown booking")
	}
}

func TestHandleProviderReply_AlreadyResolvedIgnored(t *testing.T) {
	sender := &mockSMSSender{}
	mgr, store := newTestManager(sender)

	b, _ := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "Downtown",
		MassageType: TypeMobile,
	})
	mgr.HandleProviderReply(context.Background(), b.ProviderPhone, "NO", b.ID)

	// Second reply must not flip the terminal state.
	mgr.HandleProviderReply(context.Background(), b.ProviderPhone, "YES", b.ID)

	got, _ := store.Get(context.Background(), b.ID)
	if got.Status != StatusDeclined {
		t.Errorf("expected declined to stick, got %s", got.Status)
	}
}

func TestSweep_ExpiresOverdueAndNotifiesProvider(t *testing.T) {
	sender := &mockSMSSender{}
	store := NewMemoryStore()
	mgr := NewManager(store, sender, testProviders(), time.Millisecond, nil)

	b, err := mgr.RequestBooking(context.Background(), Request{
		ClientPhone: "+15559990000",
		Location:    "Downtown",
		MassageType: TypeMobile,
	})
	if err != nil {
		t.Fatalf("RequestBooking failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	mgr.sweep(context.Background())

	got, _ := store.Get(context.Background(), b.ID)
	if got.Status != StatusExpired {
		t.Errorf("expected expired, got %s", got.Status)
	}

	msgs := sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected booking sms + expiry sms, got %d", len(msgs))
	}
	if msgs[1].to != b.ProviderPhone {
		t.Errorf("expiry sms should go to the provider, got %s", msgs[1].to)
	}
}

func TestMemoryStore_ResolveRequiresPending(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	b := &Booking{ID: "b1", Status: StatusConfirmed, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	store.Create(context.Background(), b)

	if err := store.Resolve(context.Background(), "b1", StatusDeclined, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-pending booking, got %v", err)
	}
}
