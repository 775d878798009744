package captions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	payload := `<transcript>` +
		`<text start="0" dur="2.5">Hello &amp;amp; welcome</text>` +
		`<text start="2.5" dur="3">to   the&#39;s show</text>` +
		`</transcript>`
	// &amp;amp; is double-escaped on the wire; one pass of entity
	// decoding yields the literal &amp; text.
	got := DecodePayload(payload)
	assert.Equal(t, "Hello &amp; welcome to the's show", got)
}

func TestDecodePayloadWholeDocumentFallback(t *testing.T) {
	payload := `<transcript><p>nested <b>markup</b> here</p></transcript>`
	assert.Equal(t, "nested markup here", DecodePayload(payload))
}

func TestDecodePayloadEmpty(t *testing.T) {
	assert.Equal(t, "", DecodePayload(""))
}

func TestFetchPrefersRequestedLanguage(t *testing.T) {
	var trackSrv *httptest.Server
	trackSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("lang")
		_, _ = w.Write([]byte(`<transcript><text start="0" dur="2">captions in ` + lang + ` for this video</text></transcript>`))
	}))
	defer trackSrv.Close()

	watchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := `var config = {"captionTracks": [` +
			`{"baseUrl": "` + trackSrv.URL + `?lang=en", "languageCode": "en", "vssId": ".en"},` +
			`{"baseUrl": "` + trackSrv.URL + `?lang=es", "languageCode": "es", "vssId": ".es"}` +
			`]};`
		_, _ = w.Write([]byte(page))
	}))
	defer watchSrv.Close()

	c := NewWithBase(watchSrv.URL, 10)
	text, lang, err := c.Fetch(context.Background(), "vid123", "es")
	require.NoError(t, err)
	assert.Equal(t, "es", lang)
	assert.Contains(t, text, "captions in es")
}

func TestFetchFallsBackToFirstTrack(t *testing.T) {
	trackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<transcript><text start="0" dur="2">first available track text</text></transcript>`))
	}))
	defer trackSrv.Close()

	watchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := `{"captionTracks": [{"baseUrl": "` + trackSrv.URL + `", "languageCode": "de", "vssId": ".de"}]}`
		_, _ = w.Write([]byte(page))
	}))
	defer watchSrv.Close()

	c := NewWithBase(watchSrv.URL, 10)
	text, lang, err := c.Fetch(context.Background(), "vid123", "ja")
	require.NoError(t, err)
	assert.Equal(t, "de", lang)
	assert.Contains(t, text, "first available track")
}

func TestFetchNoTracks(t *testing.T) {
	watchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no player config here</body></html>`))
	}))
	defer watchSrv.Close()

	c := NewWithBase(watchSrv.URL, 10)
	_, _, err := c.Fetch(context.Background(), "vid123", "en")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchTooShortCaptions(t *testing.T) {
	trackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<transcript><text start="0" dur="1">hi</text></transcript>`))
	}))
	defer trackSrv.Close()

	watchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := `{"captionTracks": [{"baseUrl": "` + trackSrv.URL + `", "languageCode": "en", "vssId": ".en"}]}`
		_, _ = w.Write([]byte(page))
	}))
	defer watchSrv.Close()

	c := NewWithBase(watchSrv.URL, 10)
	_, _, err := c.Fetch(context.Background(), "vid123", "en")
	assert.ErrorIs(t, err, ErrUnavailable)
}
