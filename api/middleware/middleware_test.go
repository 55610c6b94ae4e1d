package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
	"github.com/angelmondragon/photoalbum-backend/pkg/redis"
)

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	scopes []string
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (redis.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.Window{}, f.err
	}
	f.scopes = append(f.scopes, scope)
	f.counts[scope]++
	count := f.counts[scope]
	return redis.Window{Allowed: count <= limit, Count: count, Limit: limit, ResetIn: 1500 * time.Millisecond}, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Message == "" {
		t.Fatal("expected error message to be present")
	}
	return payload.Code
}

func TestRateLimit_IPLimitTriggers(t *testing.T) {
	limiter := newFakeLimiter()
	handler := RateLimit(NewRateLimitPolicy("Upload", time.Minute, 2), limiter, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 {
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if got := rec.Header().Get("Retry-After"); got != "2" {
			t.Fatalf("expected Retry-After 2, got %q", got)
		}
		if code := decodeCode(t, rec); code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code %s", code)
		}
	}

	if limiter.scopes[0] != "ip:upload:1.2.3.4" {
		t.Fatalf("unexpected scope %q", limiter.scopes[0])
	}
}

func TestRateLimit_SeparateIPs(t *testing.T) {
	limiter := newFakeLimiter()
	handler := RateLimit(NewRateLimitPolicy("upload", time.Minute, 1), limiter, nil)(okHandler())

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
		req.Header.Set("X-Forwarded-For", ip+", 172.16.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("ip %s: expected 200, got %d", ip, rec.Code)
		}
	}
}

func TestRateLimit_DisabledWithoutLimiter(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("upload", time.Minute, 1), nil, nil)(okHandler())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/upload", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}

func TestRateLimit_LimiterFailure(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis down")
	handler := RateLimit(NewRateLimitPolicy("upload", time.Minute, 1), limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if code := decodeCode(t, rec); code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	if got := clientIP(req); got != "9.9.9.9" {
		t.Fatalf("expected remote addr host, got %q", got)
	}
	req.Header.Set("X-Real-IP", "8.8.8.8")
	if got := clientIP(req); got != "8.8.8.8" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 7.7.7.7 , 6.6.6.6")
	if got := clientIP(req); got != "7.7.7.7" {
		t.Fatalf("expected first forwarded ip, got %q", got)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(requestIDHeader) != seen {
		t.Fatalf("expected generated id to be echoed, ctx=%q header=%q", seen, rec.Header().Get(requestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("expected incoming id to be kept, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if len(seen) > maxRequestIDLength {
		t.Fatalf("expected oversized id to be replaced, got length %d", len(seen))
	}
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: &buf})
	handler := Recoverer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if code := decodeCode(t, rec); code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("panic value leaked to client: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "panic.recovered") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: &buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/years", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected start and complete lines, got %d: %s", len(lines), buf.String())
	}
	var complete map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &complete); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if complete["message"] != "request.complete" || complete["status"] != float64(http.StatusTeapot) || complete["path"] != "/api/years" {
		t.Fatalf("unexpected completion log %v", complete)
	}
	if complete["bytes"] != float64(len("short and stout")) {
		t.Fatalf("unexpected byte count %v", complete["bytes"])
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://albums.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "https://albums.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://albums.example.com" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/years", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected foreign origin to be refused, got %q", got)
	}
}
