package dedup

import (
	"context"
	"testing"
	"time"
)

func TestSeen_NilRedisFailsOpen(t *testing.T) {
	d := New(nil, 10*time.Minute)

	if d.Seen(context.Background(), "mid.1") {
		t.Error("nil-redis deduper should never report seen")
	}
	if d.Seen(context.Background(), "mid.1") {
		t.Error("nil-redis deduper should never report seen, even on repeat")
	}
}

func TestSeen_EmptyMessageID(t *testing.T) {
	d := New(nil, 10*time.Minute)

	if d.Seen(context.Background(), "") {
		t.Error("empty message id should never be treated as a duplicate")
	}
}
