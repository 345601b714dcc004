package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goldtouch/messenger-relay/internal/config"
	"github.com/goldtouch/messenger-relay/internal/sms"
	"github.com/goldtouch/messenger-relay/internal/telemetry"
)

// Manager matches booking requests to providers, dispatches SMS booking
// requests, and resolves provider replies.
type Manager struct {
	store     Store
	sender    sms.Sender
	providers func() *config.ProvidersConfig
	window    time.Duration
	metrics   *telemetry.Metrics
}

func NewManager(store Store, sender sms.Sender, providers func() *config.ProvidersConfig, window time.Duration, metrics *telemetry.Metrics) *Manager {
	return &Manager{
		store:     store,
		sender:    sender,
		providers: providers,
		window:    window,
		metrics:   metrics,
	}
}

// Request is a client booking request.
type Request struct {
	BookingID   string
	ClientPhone string
	Location    string
	MassageType string
}

// RequestBooking matches a provider and dispatches the booking request SMS.
// The booking stays pending until the provider replies or the response
// window elapses.
func (m *Manager) RequestBooking(ctx context.Context, req Request) (*Booking, error) {
	provider, ok := m.matchProvider(req.Location, req.MassageType)
	if !ok {
		return nil, ErrNoProvider
	}

	id := req.BookingID
	if id == "" {
		id = NewID()
	}

	now := time.Now()
	b := &Booking{
		ID:            id,
		ClientPhone:   req.ClientPhone,
		Location:      req.Location,
		MassageType:   req.MassageType,
		ProviderName:  provider.Name,
		ProviderPhone: provider.Phone,
		Status:        StatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.window),
	}

	if err := m.store.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("store booking: %w", err)
	}

	body := fmt.Sprintf("New booking request at %s for %s massage. Are you available? Reply YES or NO.",
		b.Location, b.MassageType)
	if err := m.sender.Send(ctx, b.ProviderPhone, body); err != nil {
		m.recordSMS("error")
		return nil, fmt.Errorf("dispatch booking sms: %w", err)
	}
	m.recordSMS("ok")
	m.recordBooking(string(StatusPending))

	slog.Info("booking request dispatched",
		"booking_id", b.ID,
		"provider", b.ProviderName,
		"location", b.Location,
		"massage_type", b.MassageType,
	)
	return b, nil
}

// matchProvider finds the first provider based in the requested location that
// can serve the massage type. In-studio requests need a provider with a
// studio; mobile requests go to mobile-only providers, matching how the
// directory is curated.
func (m *Manager) matchProvider(location, massageType string) (config.Provider, bool) {
	wantStudio := strings.EqualFold(massageType, TypeInStudio)
	for _, p := range m.providers().Providers {
		if !strings.EqualFold(p.Location, location) {
			continue
		}
		if p.InStudio == wantStudio {
			return p, true
		}
	}
	return config.Provider{}, false
}

// HandleProviderReply resolves a pending booking from a provider's SMS reply.
// When bookingID is empty the latest pending booking for the provider's phone
// number is used. Unknown or already-resolved bookings are logged and ignored.
func (m *Manager) HandleProviderReply(ctx context.Context, providerPhone, body, bookingID string) {
	var b *Booking
	var err error
	if bookingID != "" {
		b, err = m.store.Get(ctx, bookingID)
	} else {
		b, err = m.store.LatestPendingByProvider(ctx, providerPhone)
	}
	if err != nil {
		slog.Warn("provider reply without matching booking",
			"provider_phone", providerPhone, "booking_id", bookingID, "error", err)
		return
	}
	if b.Status != StatusPending {
		slog.Warn("provider reply for resolved booking", "booking_id", b.ID, "status", b.Status)
		return
	}

	status := StatusDeclined
	if strings.EqualFold(strings.TrimSpace(body), "YES") {
		status = StatusConfirmed
	}

	if err := m.store.Resolve(ctx, b.ID, status, time.Now()); err != nil {
		slog.Warn("failed to resolve booking", "booking_id", b.ID, "error", err)
		return
	}
	m.recordBooking(string(status))

	if status == StatusConfirmed {
		if err := m.sender.Send(ctx, b.ProviderPhone, "Thank you! Booking confirmed."); err != nil {
			slog.Error("failed to send confirmation sms", "booking_id", b.ID, "error", err)
			m.recordSMS("error")
		} else {
			m.recordSMS("ok")
		}
	}

	slog.Info("booking resolved", "booking_id", b.ID, "status", status)
}

// RunSweeper expires overdue pending bookings until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	expired, err := m.store.ExpireOverdue(ctx, time.Now())
	if err != nil {
		slog.Error("booking expiry sweep failed", "error", err)
		return
	}

	for _, b := range expired {
		m.recordBooking(string(StatusExpired))
		slog.Info("booking expired without provider response",
			"booking_id", b.ID, "provider", b.ProviderName)

		body := "The booking request was sent to another provider since we didn't hear back in time. We'll reach out again for future bookings!"
		if err := m.sender.Send(ctx, b.ProviderPhone, body); err != nil {
			slog.Error("failed to send expiry sms", "booking_id", b.ID, "error", err)
			m.recordSMS("error")
		} else {
			m.recordSMS("ok")
		}
	}
}

func (m *Manager) recordBooking(state string) {
	if m.metrics != nil {
		m.metrics.RecordBooking(state)
	}
}

func (m *Manager) recordSMS(status string) {
	if m.metrics != nil {
		m.metrics.RecordSMS(status)
	}
}
