package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("elevenlabs api key not configured")

// voiceByLanguage maps target languages to multilingual voice ids.
// Unmapped languages use the default voice; the multilingual model
// handles pronunciation.
var voiceByLanguage = map[string]string{
	"en": "21m00Tcm4TlvDq8ikWAM",
	"es": "AZnzlk1XvdvUeBnXmlld",
	"fr": "EXAVITQu4vr4xnSDxMaL",
	"de": "ErXwobaYiN019PkySvjV",
	"it": "VR6AewLTigWG4xSOukaG",
	"pt": "pNInz6obpgDQGcFmaJgB",
	"pl": "Yko7PKHZNXotIFUBG7I9",
	"ru": "GBv7mTt0atIp3Br8iCZE",
	"ja": "MF3mGyEYCl7XYWbV9V6O",
	"ko": "jsCqWAovK2LkecY7zXl4",
	"zh": "XB0fDUnXU5powFXDhCwa",
	"ar": "ODq5zmih8GrVes37Dizd",
	"hi": "TX3LPaxmHKxFdv7VOQHJ",
	"tr": "g5CIjZEefAph4nQFvHAz",
	"nl": "pFZP5JQG7iQjIQuC4Bku",
	"sv": "N2lVS1w4EtoT3dr4eOWO",
}

const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

func VoiceID(languageCode string) string {
	code := strings.ToLower(strings.SplitN(languageCode, "-", 2)[0])
	if id, ok := voiceByLanguage[code]; ok {
		return id
	}
	return defaultVoiceID
}

// Client talks to the ElevenLabs text-to-speech API, the premium
// cloned-voice synthesis provider.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, http: &http.Client{Timeout: 60 * time.Second}}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

// CheckAPIKey verifies the key against the account endpoint. Used to
// decide whether premium synthesis may be selected at all.
func (c *Client) CheckAPIKey(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return false
	}
	req.Header.Set("xi-api-key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// GenerateSpeech synthesizes text with the voice mapped to the target
// language and returns the MP3 bytes.
func (c *Client) GenerateSpeech(ctx context.Context, text, targetLanguage string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body := map[string]any{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]any{
			"stability":         0.5,
			"similarity_boost":  0.75,
			"style":             0.5,
			"use_speaker_boost": true,
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := c.baseURL + "/text-to-speech/" + VoiceID(targetLanguage)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("elevenlabs returned empty audio")
	}
	return audio, nil
}
