package booking

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. Used in tests and as a fallback when no
// database is configured; bookings are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[string]*Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]*Booking)}
}

func (s *MemoryStore) Create(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) LatestPendingByProvider(ctx context.Context, providerPhone string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Booking
	for _, b := range s.bookings {
		if b.ProviderPhone != providerPhone || b.Status != StatusPending {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, id string, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.Status != StatusPending {
		return ErrNotFound
	}
	b.Status = status
	b.ResolvedAt = &at
	return nil
}

func (s *MemoryStore) ExpireOverdue(ctx context.Context, now time.Time) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []Booking
	for _, b := range s.bookings {
		if b.Status == StatusPending && b.ExpiresAt.Before(now) {
			b.Status = StatusExpired
			at := now
			b.ResolvedAt = &at
			expired = append(expired, *b)
		}
	}
	return expired, nil
}
