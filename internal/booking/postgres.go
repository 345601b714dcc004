package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (id, client_phone, location, massage_type,
		                      provider_name, provider_phone, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, b.ID, b.ClientPhone, b.Location, b.MassageType,
		b.ProviderName, b.ProviderPhone, b.Status, b.CreatedAt, b.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, client_phone, location, massage_type, provider_name,
		       provider_phone, status, created_at, expires_at, resolved_at
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (s *PostgresStore) LatestPendingByProvider(ctx context.Context, providerPhone string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, client_phone, location, massage_type, provider_name,
		       provider_phone, status, created_at, expires_at, resolved_at
		FROM bookings
		WHERE provider_phone = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`, providerPhone)
	return scanBooking(row)
}

func (s *PostgresStore) Resolve(ctx context.Context, id string, status Status, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id, status, at)
	if err != nil {
		return fmt.Errorf("resolve booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ExpireOverdue(ctx context.Context, now time.Time) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE bookings
		SET status = 'expired', resolved_at = $1
		WHERE status = 'pending' AND expires_at < $1
		RETURNING id, client_phone, location, massage_type, provider_name,
		          provider_phone, status, created_at, expires_at, resolved_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("expire bookings: %w", err)
	}
	defer rows.Close()

	var expired []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.ClientPhone,
		&b.Location,
		&b.MassageType,
		&b.ProviderName,
		&b.ProviderPhone,
		&b.Status,
		&b.CreatedAt,
		&b.ExpiresAt,
		&b.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	return &b, nil
}
