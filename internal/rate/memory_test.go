package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToBurst(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		res, err := l.Allow(ctx, "client-a")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	res, err := l.Allow(ctx, "client-a")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("request over the limit should be denied")
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, want > 0", res.RetryAfter)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(1, time.Minute)

	if res, _ := l.Allow(ctx, "a"); !res.Allowed {
		t.Fatal("first request for key a should pass")
	}
	if res, _ := l.Allow(ctx, "a"); res.Allowed {
		t.Fatal("second request for key a should be denied")
	}
	if res, _ := l.Allow(ctx, "b"); !res.Allowed {
		t.Fatal("key b has its own bucket")
	}
}

func TestMemoryLimiter_MinimumOfOne(t *testing.T) {
	l := NewMemoryLimiter(0, time.Minute)
	if res, _ := l.Allow(context.Background(), "x"); !res.Allowed {
		t.Fatal("limiter with max<1 should clamp to 1, not deny everything")
	}
}
