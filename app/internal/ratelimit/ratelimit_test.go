package ratelimit

import (
	"testing"
	"time"
)

func TestNew_DefaultMaxTokens(t *testing.T) {
	l := New(Config{TokensPerMinute: 10})
	defer l.Stop()

	if l.capacity != 10 {
		t.Errorf("expected capacity=10, got %v", l.capacity)
	}
	if d := l.Take("k"); d.Limit != 10 {
		t.Errorf("expected limit 10, got %d", d.Limit)
	}
}

func TestNew_CustomMaxTokens(t *testing.T) {
	l := New(Config{TokensPerMinute: 10, MaxTokens: 20})
	defer l.Stop()

	if l.capacity != 20 {
		t.Errorf("expected capacity=20, got %v", l.capacity)
	}
}

func TestTake_CountsDownRemaining(t *testing.T) {
	l := New(Config{TokensPerMinute: 3, MaxTokens: 3})
	defer l.Stop()

	for want := 2; want >= 0; want-- {
		d := l.Take("1.2.3.4")
		if !d.Allowed {
			t.Fatalf("request should be allowed with %d left", want+1)
		}
		if d.Remaining != want {
			t.Errorf("expected %d remaining, got %d", want, d.Remaining)
		}
		if d.RetryAfter != 0 {
			t.Errorf("allowed request should not carry RetryAfter, got %v", d.RetryAfter)
		}
	}

	d := l.Take("1.2.3.4")
	if d.Allowed {
		t.Error("request should be denied after the bucket is drained")
	}
	if d.Remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", d.Remaining)
	}
}

func TestTake_DifferentKeys(t *testing.T) {
	l := New(Config{TokensPerMinute: 2, MaxTokens: 2})
	defer l.Stop()

	l.Take("ip1")
	l.Take("ip1")

	if !l.Take("ip2").Allowed {
		t.Error("different key should have its own bucket")
	}
	if l.Take("ip1").Allowed {
		t.Error("ip1 should be rate limited")
	}
}

func TestTake_RetryAfter(t *testing.T) {
	l := New(Config{TokensPerMinute: 60, MaxTokens: 1}) // one token per second
	defer l.Stop()

	l.Take("busy")
	d := l.Take("busy")
	if d.Allowed {
		t.Fatal("second request should be denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Second {
		t.Errorf("expected wait in (0, 1s], got %v", d.RetryAfter)
	}
}

func TestTake_Refill(t *testing.T) {
	l := New(Config{TokensPerMinute: 60, MaxTokens: 60})
	defer l.Stop()

	for i := 0; i < 60; i++ {
		l.Take("refill")
	}
	if l.Take("refill").Allowed {
		t.Error("should be rate limited after draining")
	}

	l.mu.Lock()
	l.buckets["refill"].seen = time.Now().Add(-time.Minute)
	l.mu.Unlock()

	d := l.Take("refill")
	if !d.Allowed {
		t.Error("should be allowed after a minute of refill")
	}
	if d.Remaining != 59 {
		t.Errorf("refill should cap at the bucket size, got %d remaining", d.Remaining)
	}
}

func TestDropIdle(t *testing.T) {
	l := New(Config{TokensPerMinute: 10})
	defer l.Stop()

	l.Take("idle")
	l.Take("busy")
	l.mu.Lock()
	l.buckets["idle"].seen = time.Now().Add(-2 * idleTimeout)
	l.mu.Unlock()

	l.dropIdle(time.Now())

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["idle"]; ok {
		t.Error("idle bucket should be dropped")
	}
	if _, ok := l.buckets["busy"]; !ok {
		t.Error("active bucket should survive")
	}
}

func TestErrorMessage(t *testing.T) {
	msg := "custom rate limit message"
	l := New(Config{TokensPerMinute: 1, ErrorMessage: msg})
	defer l.Stop()

	if l.ErrorMessage() != msg {
		t.Errorf("expected %q, got %q", msg, l.ErrorMessage())
	}
}

func TestDefaultErrorMessage(t *testing.T) {
	l := New(Config{TokensPerMinute: 10})
	defer l.Stop()

	if l.ErrorMessage() != DefaultErrorMessage {
		t.Errorf("expected default message, got %q", l.ErrorMessage())
	}
}

func TestStop_Twice(t *testing.T) {
	l := New(Config{TokensPerMinute: 10})
	l.Stop()
	l.Stop()
}
