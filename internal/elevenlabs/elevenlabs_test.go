package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceID(t *testing.T) {
	assert.Equal(t, "AZnzlk1XvdvUeBnXmlld", VoiceID("es"))
	assert.Equal(t, "AZnzlk1XvdvUeBnXmlld", VoiceID("es-MX"), "regional code maps through the bare language")
	assert.Equal(t, defaultVoiceID, VoiceID("tlh"))
	assert.Equal(t, defaultVoiceID, VoiceID(""))
}

func TestNotConfigured(t *testing.T) {
	c := New("", "")
	assert.False(t, c.Configured())
	assert.False(t, c.CheckAPIKey(context.Background()))

	_, err := c.GenerateSpeech(context.Background(), "hi", "es")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCheckAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		if r.Header.Get("xi-api-key") != "valid" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.True(t, New("valid", srv.URL).CheckAPIKey(context.Background()))
	assert.False(t, New("wrong", srv.URL).CheckAPIKey(context.Background()))
}

func TestGenerateSpeech(t *testing.T) {
	audio := []byte("mp3-audio-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text-to-speech/"+VoiceID("es"), r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hola mundo", body["text"])
		assert.Equal(t, "eleven_multilingual_v2", body["model_id"])

		_, _ = w.Write(audio)
	}))
	defer srv.Close()

	c := New("key", srv.URL)
	got, err := c.GenerateSpeech(context.Background(), "hola mundo", "es")
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestGenerateSpeechProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice limit reached", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("key", srv.URL)
	_, err := c.GenerateSpeech(context.Background(), "hola", "es")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "voice limit reached")
}

func TestGenerateSpeechEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New("key", srv.URL)
	_, err := c.GenerateSpeech(context.Background(), "hola", "es")
	assert.Error(t, err)
}
