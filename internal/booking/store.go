package booking

import (
	"context"
	"time"
)

// Store persists bookings. Backed by PostgreSQL in production and by an
// in-memory implementation in tests.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	// LatestPendingByProvider returns the most recent pending booking
	// dispatched to the given provider phone, or ErrNotFound.
	LatestPendingByProvider(ctx context.Context, providerPhone string) (*Booking, error)
	// Resolve moves a pending booking to a terminal status. Returns
	// ErrNotFound when the booking does not exist or is already resolved.
	Resolve(ctx context.Context, id string, status Status, at time.Time) error
	// ExpireOverdue marks pending bookings whose window elapsed as expired
	// and returns them.
	ExpireOverdue(ctx context.Context, now time.Time) ([]Booking, error)
}
