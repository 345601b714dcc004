// Package comlog keeps a local audit trail of every message that passed
// through the relay, independent of the CRM.
package comlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Recorder appends one communication record. Callers treat failures as
// non-fatal: a lost audit row never affects the message flow.
type Recorder interface {
	Record(ctx context.Context, channel, direction, party, body string) error
}

// PostgresRecorder implements Recorder on a pgx connection pool.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

func NewPostgresRecorder(db *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) Record(ctx context.Context, channel, direction, party, body string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO communications (channel, direction, party, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, channel, direction, party, body, time.Now())
	if err != nil {
		return fmt.Errorf("insert communication: %w", err)
	}
	return nil
}
