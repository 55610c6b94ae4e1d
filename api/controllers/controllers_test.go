package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/photoalbum-backend/internal/media"
	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage/local"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x42}, 64)...)
	mp4Bytes  = append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}, bytes.Repeat([]byte{0x00}, 64)...)
)

type testFile struct {
	field    string
	name     string
	mimeType string
	data     []byte
}

type harness struct {
	svc    *media.Service
	root   string
	router chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := filepath.Join(t.TempDir(), "uploads")
	blobs, err := local.New(root)
	require.NoError(t, err)
	svc, err := media.NewService(media.NewMemoryStore(media.DefaultYearRange()), blobs, media.ServiceConfig{MaxFileBytes: 1 << 20}, nil, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/api/years", Years(svc, nil))
	r.Get("/api/years/{year}/months", Months(svc, nil))
	r.Get("/api/media", MediaByQuery(svc, nil))
	r.Get("/api/media/{year}/{month}", MediaByPath(svc, nil))
	r.Get("/api/albums", Albums(svc, nil))
	r.Post("/api/upload", Upload(svc, UploadLimits{MaxRequestBytes: 4 << 20, MemoryBytes: 1 << 20}, nil))
	r.Get("/api/files/{id}", File(svc, nil))
	return &harness{svc: svc, root: root, router: r}
}

func multipartBody(t *testing.T, fields map[string]string, files []testFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		field := f.field
		if field == "" {
			field = "files"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+f.name+`"`)
		if f.mimeType != "" {
			h.Set("Content-Type", f.mimeType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) upload(t *testing.T, fields map[string]string, files []testFile) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	return h.do(t, req)
}

type errorBody struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.NotEmpty(t, body.Message)
	return body
}

func tripFields() map[string]string {
	return map[string]string{"albumName": "Trip", "year": "2024", "month": "5"}
}

func TestUploadAndBrowse(t *testing.T) {
	h := newHarness(t)

	rec := h.upload(t, tripFields(), []testFile{
		{name: "a.jpg", mimeType: "image/jpeg", data: jpegBytes},
		{name: "b.jpg", mimeType: "image/jpeg", data: jpegBytes},
		{name: "clip.mp4", mimeType: "video/mp4", data: mp4Bytes},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result media.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Uploaded 3 files", result.Message)
	require.Len(t, result.Files, 3)
	ids := map[string]bool{}
	for _, f := range result.Files {
		ids[f.ID.String()] = true
		assert.Contains(t, f.FilePath, "2024")
		assert.Contains(t, f.FilePath, string(filepath.Separator)+"5"+string(filepath.Separator))
	}
	assert.Len(t, ids, 3)

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/years", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[2024]`, rec.Body.String())

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/years/2024/months", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"month":5,"count":3}]`, rec.Body.String())

	for _, target := range []string{"/api/media?album=Trip&year=2024&month=5", "/api/media/2024/5?album=Trip", "/api/media/2024/5"} {
		rec = h.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)
		var files []models.MediaFile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
		require.Len(t, files, 3, target)
		for i := range files {
			assert.Equal(t, result.Files[i].ID, files[i].ID)
		}
	}

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/albums", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Trip"]`, rec.Body.String())
}

func TestMediaFileJSONShape(t *testing.T) {
	h := newHarness(t)
	rec := h.upload(t, tripFields(), []testFile{{name: "a.jpg", mimeType: "image/jpeg", data: jpegBytes}})
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Files []map[string]any `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"id", "albumName", "year", "month", "filename", "originalName", "mimeType", "size", "filePath", "uploadedAt"} {
		assert.Contains(t, raw.Files[0], key)
	}
}

func TestEmptyMonthsIsEmptyArray(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/years/2024/months", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/years", nil))
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestNavigationRejectsBadParameters(t *testing.T) {
	h := newHarness(t)
	for _, target := range []string{
		"/api/years/abc/months",
		"/api/years/1800/months",
		"/api/media?year=2024",
		"/api/media?year=2024&month=twelve",
		"/api/media?year=2024&month=12",
		"/api/media/2024/-1",
		"/api/media/x/1",
	} {
		rec := h.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code, target)
	}
}

func TestUploadRejectsPDF(t *testing.T) {
	h := newHarness(t)
	rec := h.upload(t, tripFields(), []testFile{{name: "doc.pdf", mimeType: "application/pdf", data: []byte("%PDF-1.4\n")}})

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeUnsupportedMedia), body.Code)
	assert.Contains(t, body.Message, "doc.pdf")

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/media?album=Trip&year=2024&month=5", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.NoDirExists(t, h.root)
}

func TestUploadRejectsMixedBatch(t *testing.T) {
	h := newHarness(t)
	rec := h.upload(t, tripFields(), []testFile{
		{name: "a.jpg", mimeType: "image/jpeg", data: jpegBytes},
		{name: "b.txt", mimeType: "text/plain", data: []byte("hello")},
		{name: "c.jpg", mimeType: "image/jpeg", data: jpegBytes},
	})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/years", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.NoDirExists(t, h.root)
}

func TestUploadRequestValidation(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		files  []testFile
		status int
	}{
		{"no files", tripFields(), nil, http.StatusBadRequest},
		{"wrong field name", tripFields(), []testFile{{field: "file", name: "a.jpg", mimeType: "image/jpeg", data: jpegBytes}}, http.StatusBadRequest},
		{"missing album", map[string]string{"year": "2024", "month": "5"}, []testFile{{name: "a.jpg", mimeType: "image/jpeg", data: jpegBytes}}, http.StatusBadRequest},
		{"non-numeric year", map[string]string{"albumName": "Trip", "year": "later", "month": "5"}, []testFile{{name: "a.jpg", mimeType: "image/jpeg", data: jpegBytes}}, http.StatusBadRequest},
		{"month out of range", map[string]string{"albumName": "Trip", "year": "2024", "month": "12"}, []testFile{{name: "a.jpg", mimeType: "image/jpeg", data: jpegBytes}}, http.StatusBadRequest},
		{"file too large", tripFields(), []testFile{{name: "big.jpg", mimeType: "image/jpeg", data: bytes.Repeat([]byte{0xFF}, (1<<20)+1)}}, http.StatusRequestEntityTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.upload(t, tc.fields, tc.files)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			decodeError(t, rec)
			assert.NoDirExists(t, h.root)
		})
	}
}

func TestUploadRequestBodyLimit(t *testing.T) {
	blobs, err := local.New(t.TempDir())
	require.NoError(t, err)
	svc, err := media.NewService(media.NewMemoryStore(media.DefaultYearRange()), blobs, media.ServiceConfig{}, nil, nil)
	require.NoError(t, err)
	handler := Upload(svc, UploadLimits{MaxRequestBytes: 1024, MemoryBytes: 512}, nil)

	body, contentType := multipartBody(t, tripFields(), []testFile{{name: "a.jpg", mimeType: "image/jpeg", data: bytes.Repeat([]byte{0xFF}, 4096)}})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, string(pkgerrors.CodePayloadTooLarge), decodeError(t, rec).Code)
}

func TestUploadRequiresMultipart(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"albumName":"Trip"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileServing(t *testing.T) {
	h := newHarness(t)
	rec := h.upload(t, tripFields(), []testFile{
		{name: "summer shot.jpg", mimeType: "image/jpeg", data: jpegBytes},
		{name: "gone.jpg", mimeType: "image/jpeg", data: jpegBytes},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result media.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+result.Files[0].ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="summer shot.jpg"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, jpegBytes, rec.Body.Bytes())

	req := httptest.NewRequest(http.MethodGet, "/api/files/"+result.Files[0].ID.String(), nil)
	req.Header.Set("Range", "bytes=0-2")
	rec = h.do(t, req)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, jpegBytes[:3], rec.Body.Bytes())

	require.NoError(t, os.Remove(result.Files[1].FilePath))
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+result.Files[1].ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found on disk", decodeError(t, rec).Message)

	for _, id := range []string{"nope", "0190a5b4-7c4e-7000-8000-000000000000"} {
		rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "File not found", decodeError(t, rec).Message)
	}
}

type stubNavigation struct {
	err error
}

func (s stubNavigation) ListYears(context.Context) ([]int, error) { return nil, s.err }
func (s stubNavigation) ListMonths(context.Context, int) ([]models.MonthCount, error) {
	return nil, s.err
}
func (s stubNavigation) ListMedia(context.Context, string, int, int) ([]models.MediaFile, error) {
	return nil, s.err
}
func (s stubNavigation) ListAlbums(context.Context) ([]string, error) { return nil, s.err }

func TestNavigationHidesInternalErrors(t *testing.T) {
	svc := stubNavigation{err: errors.New("connection refused to 10.0.0.5")}
	for name, handler := range map[string]http.HandlerFunc{
		"years":  Years(svc, nil),
		"albums": Albums(svc, nil),
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, name)
		body := decodeError(t, rec)
		assert.Equal(t, string(pkgerrors.CodeInternal), body.Code)
		assert.NotContains(t, body.Message, "10.0.0.5")
	}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, ReadinessCheck{Name: "media", Pinger: stubPinger{}}, ReadinessCheck{Name: "redis"}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"media":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, ReadinessCheck{Name: "media", Pinger: stubPinger{}}, ReadinessCheck{Name: "redis", Pinger: stubPinger{err: io.ErrUnexpectedEOF}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeDependency), body.Code)
	assert.Equal(t, "down", body.Details["redis"])
	assert.Equal(t, "ok", body.Details["media"])
}
