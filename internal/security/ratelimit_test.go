package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over the limit should be denied")
	}

	// A different client has its own window
	if !rl.Allow("5.6.7.8") {
		t.Error("unrelated client should be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("c") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("c") {
		t.Fatal("second request in window should be denied")
	}

	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("c") {
		t.Error("request after the window should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if got := ClientIP(r); got != "10.0.0.1:1234" {
		t.Errorf("ClientIP() = %q, want remote addr", got)
	}

	r.Header.Set("X-Real-IP", "4.4.4.4")
	if got := ClientIP(r); got != "4.4.4.4" {
		t.Errorf("ClientIP() = %q, want X-Real-IP", got)
	}

	r.Header.Set("X-Forwarded-For", "8.8.8.8")
	if got := ClientIP(r); got != "8.8.8.8" {
		t.Errorf("ClientIP() = %q, want X-Forwarded-For", got)
	}

	// Only the first hop of a forwarded chain identifies the client; the
	// rest of the list must not change the limiter key.
	r.Header.Set("X-Forwarded-For", "8.8.8.8, 1.1.1.1, 2.2.2.2")
	if got := ClientIP(r); got != "8.8.8.8" {
		t.Errorf("ClientIP() = %q, want first hop of the chain", got)
	}
	r.Header.Set("X-Forwarded-For", " 8.8.8.8 ,1.1.1.1")
	if got := ClientIP(r); got != "8.8.8.8" {
		t.Errorf("ClientIP() = %q, want trimmed first hop", got)
	}
}
