package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2, time.Second)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other IPs have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the interval")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 1, time.Second)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("1.2.3.4")

	now = now.Add(10 * time.Minute)
	rl.sweep(5 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("visitors = %d, want 0", len(rl.visitors))
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(NewRateLimiter(ctx, 1, time.Hour))(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, rr.Code, want)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestCORS_AllowList(t *testing.T) {
	handler := CORS([]string{"https://mail.example.com", " "})(okHandler())

	tests := []struct {
		origin string
		allow  bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:3001", true},
		{"https://mail.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("OPTIONS", "/api/mail/send", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		got := rr.Header().Get("Access-Control-Allow-Origin")
		if tt.allow && got != tt.origin {
			t.Errorf("%s: Allow-Origin = %q, want echo", tt.origin, got)
		}
		if !tt.allow && got != "" {
			t.Errorf("%s: Allow-Origin = %q, want empty", tt.origin, got)
		}
	}
}

func TestCSRF_ExemptsJSONAndBearer(t *testing.T) {
	key := make([]byte, 32)
	handler := CSRF(key, []string{"localhost:3000"})(okHandler())

	jsonReq := httptest.NewRequest("POST", "/api/auth/login", nil)
	jsonReq.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, jsonReq)
	if rr.Code != http.StatusOK {
		t.Errorf("json post: status = %d, want 200", rr.Code)
	}

	bearerReq := httptest.NewRequest("POST", "/api/mail/send", nil)
	bearerReq.Header.Set("Authorization", "Bearer abc")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, bearerReq)
	if rr.Code != http.StatusOK {
		t.Errorf("bearer post: status = %d, want 200", rr.Code)
	}

	formReq := httptest.NewRequest("POST", "/api/mail/send", nil)
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, formReq)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form post without token: status = %d, want 403", rr.Code)
	}
}

func TestCSRF_SafeMethodsSetNoCookie(t *testing.T) {
	key := make([]byte, 32)
	handler := CSRF(key, []string{"localhost:3000"})(okHandler())

	for _, method := range []string{"GET", "HEAD", "OPTIONS"} {
		req := httptest.NewRequest(method, "/api/health", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", method, rr.Code)
		}
		if c := rr.Header().Get("Set-Cookie"); c != "" {
			t.Errorf("%s: Set-Cookie = %q, want none", method, c)
		}
	}
}
