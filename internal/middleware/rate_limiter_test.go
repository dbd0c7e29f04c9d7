package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterDeniesBurstBeyondBudget(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 3, time.Hour)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}

	if limiter.Allow("10.0.0.1") {
		t.Fatal("request beyond burst budget should be denied")
	}
}

func TestIPRateLimiterTracksKeysIndependently(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Hour)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first caller should be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("first caller should now be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("second caller has its own budget")
	}
}

func TestIPRateLimiterExpiresIdleVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute)
	inner, ok := limiter.(*ipRateLimiter)
	if !ok {
		t.Fatalf("unexpected limiter type %T", limiter)
	}

	current := time.Now()
	inner.WithNowFunc(func() time.Time { return current })

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}

	// Idle past the ttl; the visitor entry is dropped and the budget resets.
	current = current.Add(2 * time.Minute)
	limiter.Allow("10.0.0.2")

	inner.mu.Lock()
	_, stillTracked := inner.clients["10.0.0.1"]
	inner.mu.Unlock()

	if stillTracked {
		t.Fatal("idle visitor should have been evicted")
	}
}
