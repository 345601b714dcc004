package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "relay:mid:"

// Deduper suppresses duplicate webhook deliveries. The platform redelivers
// events it considers unacknowledged, so the same message id can arrive more
// than once.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a deduper. If rdb is nil, every delivery is treated as fresh
// (fail open).
func New(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// Seen marks the message id and reports whether it was already marked within
// the TTL window. Redis errors fail open: the delivery is treated as fresh.
func (d *Deduper) Seen(ctx context.Context, messageID string) bool {
	if d.rdb == nil || messageID == "" {
		return false
	}

	set, err := d.rdb.SetNX(ctx, keyPrefix+messageID, 1, d.ttl).Result()
	if err != nil {
		return false
	}
	return !set
}
