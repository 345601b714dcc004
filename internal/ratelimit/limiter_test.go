package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestCheck_NilRedisFailsOpen(t *testing.T) {
	limiter := NewLimiter(nil)

	for i := 0; i < 100; i++ {
		result, err := limiter.Check(context.Background(), "U1", 20, time.Minute)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if !result.Allowed {
			t.Fatal("nil-redis limiter should always allow")
		}
	}
}

func TestCheck_NilRedisRemaining(t *testing.T) {
	limiter := NewLimiter(nil)

	result, _ := limiter.Check(context.Background(), "U1", 20, time.Minute)
	if result.Remaining != 19 {
		t.Errorf("expected remaining 19, got %d", result.Remaining)
	}
	if result.ResetAt.Before(time.Now()) {
		t.Error("reset time should be in the future")
	}
}
