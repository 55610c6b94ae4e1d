package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/photoalbum-backend/internal/media"
	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage/local"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	blobs, err := local.New(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	svc, err := media.NewService(media.NewMemoryStore(media.DefaultYearRange()), blobs, media.ServiceConfig{}, nil, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	cfg := &config.Config{
		App:             config.AppConfig{Env: "dev"},
		Media:           config.MediaConfig{MaxRequestMB: 8, MultipartMemMB: 1},
		UploadRateLimit: config.UploadRateLimitConfig{Window: time.Minute, IPLimit: 1},
		CORS:            config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	return NewRouter(cfg, logger.Nop(), prometheus.NewRegistry(), svc, nil)
}

func TestRouterServesPublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		path   string
		status int
	}{
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/api/years", http.StatusOK},
		{"/api/years/2024/months", http.StatusOK},
		{"/api/media?year=2024&month=1", http.StatusOK},
		{"/api/media/2024/1", http.StatusOK},
		{"/api/albums", http.StatusOK},
		{"/api/files/unknown", http.StatusNotFound},
		{"/api/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.path, tc.status, rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", tc.path)
		}
	}
}

func TestRouterUploadWithoutRedisIsNotLimited(t *testing.T) {
	router := newTestRouter(t)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("not multipart"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected 400 from form parsing, got %d", i, rec.Code)
		}
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/years", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `photoalbum_http_requests_total{method="GET",route="/api/years",status="200"} 1`) {
		t.Fatalf("expected request counter for /api/years, got:\n%s", body)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected dev origin to be allowed, got %q", got)
	}
}
