package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dubapi/internal/config"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	t.Setenv("PUBLIC_DIR", t.TempDir())
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")
	api, err := NewAPI(config.Load())
	require.NoError(t, err)
	t.Cleanup(api.Shutdown)
	return api
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLanguagesEndpoint(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/api/languages", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "English")
	assert.Contains(t, rec.Body.String(), `"code":"es"`)
}

func TestPlatformsEndpoint(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/api/platforms", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "youtube")
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestStatsEndpoint(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_conversions":0`)
}

func TestConvertRejectsInvalidRequests(t *testing.T) {
	r := newTestAPI(t).Router()

	rec := doJSON(t, r, http.MethodPost, "/api/convert/video", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/convert/video", `{"original_url":"https://youtu.be/abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "target language")

	rec = doJSON(t, r, http.MethodPost, "/api/convert/video", `{"target_language":"es"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No translation credentials configured in the test environment.
	rec = doJSON(t, r, http.MethodPost, "/api/convert/video",
		`{"original_url":"https://youtu.be/abc","target_language":"es"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "translation capability")
}

func TestConversionStatusNotFound(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/api/convert/video/conv_missing/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubtitlesNotFound(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/api/convert/video/conv_missing/subtitles.srt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoiceGenerateRejectsInvalidRequests(t *testing.T) {
	r := newTestAPI(t).Router()

	rec := doJSON(t, r, http.MethodPost, "/api/voice/generate", `{"target_language":"es"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "input text")

	rec = doJSON(t, r, http.MethodPost, "/api/voice/generate", `{"input_text":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigEndpoint(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/api/config", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "elevenlabs")
	assert.Contains(t, rec.Body.String(), "remux_output")
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestAPI(t).Router()
	rec := doJSON(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShutdownIsIdempotent(t *testing.T) {
	api := newTestAPI(t)
	// The janitor and pool stop exactly once; the cleanup-registered
	// call and any explicit one after it must be harmless.
	api.Shutdown()
	api.Shutdown()
}

func TestAPIKeyEnforcement(t *testing.T) {
	t.Setenv("PUBLIC_DIR", t.TempDir())
	t.Setenv("REQUIRE_API_KEY", "true")
	t.Setenv("API_KEYS", "secret1")
	api, err := NewAPI(config.Load())
	require.NoError(t, err)
	t.Cleanup(api.Shutdown)
	r := api.Router()

	rec := doJSON(t, r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-API-Key", "secret1")
	ok := httptest.NewRecorder()
	r.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}
