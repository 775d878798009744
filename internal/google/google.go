package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("google api key not configured")

type Config struct {
	APIKey            string
	TranslateEndpoint string
	SpeechEndpoint    string
	TTSEndpoint       string
}

// Client is a thin REST client over the Google translate, language
// detection, speech-to-text and text-to-speech APIs.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 60 * time.Second}}
}

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

func (c *Client) post(ctx context.Context, url string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) keyed(endpoint string) string { return endpoint + "?key=" + c.cfg.APIKey }

// Translate maps text into targetLang. sourceLang may be empty, in
// which case the provider detects it.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	body := map[string]any{
		"q":      text,
		"target": targetLang,
		"format": "text",
	}
	if sourceLang != "" {
		body["source"] = sourceLang
	}
	var out struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err := c.post(ctx, c.keyed(c.cfg.TranslateEndpoint), body, &out); err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(out.Data.Translations) == 0 || out.Data.Translations[0].TranslatedText == "" {
		return "", errors.New("no translation returned")
	}
	return out.Data.Translations[0].TranslatedText, nil
}

// DetectLanguage returns the detected language code and confidence.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, float64, error) {
	if !c.Configured() {
		return "", 0, ErrNotConfigured
	}
	var out struct {
		Data struct {
			Detections [][]struct {
				Language   string  `json:"language"`
				Confidence float64 `json:"confidence"`
			} `json:"detections"`
		} `json:"data"`
	}
	url := c.keyed(c.cfg.TranslateEndpoint + "/detect")
	if err := c.post(ctx, url, map[string]any{"q": text}, &out); err != nil {
		return "", 0, fmt.Errorf("language detection failed: %w", err)
	}
	if len(out.Data.Detections) == 0 || len(out.Data.Detections[0]) == 0 {
		return "", 0, errors.New("no language detected")
	}
	d := out.Data.Detections[0][0]
	return d.Language, d.Confidence, nil
}

// SpeechToText transcribes a single audio file. The encoding is
// derived from the file extension; sample rate is fixed to what the
// media toolchain produces.
func (c *Client) SpeechToText(ctx context.Context, audioPath, languageCode string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	body := map[string]any{
		"config": map[string]any{
			"encoding":                   audioEncoding(audioPath),
			"sampleRateHertz":            16000,
			"languageCode":               NormalizeLanguageCode(languageCode),
			"enableAutomaticPunctuation": true,
			"model":                      "default",
		},
		"audio": map[string]any{
			"content": base64.StdEncoding.EncodeToString(audio),
		},
	}
	var out struct {
		Results []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"results"`
	}
	if err := c.post(ctx, c.keyed(c.cfg.SpeechEndpoint), body, &out); err != nil {
		return "", fmt.Errorf("speech-to-text failed: %w", err)
	}
	var parts []string
	for _, r := range out.Results {
		if len(r.Alternatives) > 0 && r.Alternatives[0].Transcript != "" {
			parts = append(parts, r.Alternatives[0].Transcript)
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		return "", errors.New("no speech detected in audio")
	}
	return transcript, nil
}

// Chunker splits long audio into transcribable pieces. Implemented by
// the media toolchain.
type Chunker interface {
	SplitIntoChunks(ctx context.Context, audioPath string, chunk time.Duration) ([]string, error)
}

// SpeechToTextLong transcribes audio of arbitrary length by cutting it
// into sequential chunks and concatenating per-chunk results in order.
// Chunking problems never fail the operation: with no chunks the whole
// file goes out as a single request.
func (c *Client) SpeechToTextLong(ctx context.Context, chunker Chunker, audioPath, languageCode string, chunk time.Duration) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	chunks, err := chunker.SplitIntoChunks(ctx, audioPath, chunk)
	if err != nil || len(chunks) == 0 {
		return c.SpeechToText(ctx, audioPath, languageCode)
	}
	var full strings.Builder
	for _, p := range chunks {
		text, err := c.SpeechToText(ctx, p, languageCode)
		_ = os.Remove(p)
		if err != nil {
			continue
		}
		if full.Len() > 0 {
			full.WriteByte(' ')
		}
		full.WriteString(text)
	}
	if full.Len() == 0 {
		return "", errors.New("no speech detected in audio")
	}
	return full.String(), nil
}

// TextToSpeech synthesizes text and returns the MP3 bytes.
func (c *Client) TextToSpeech(ctx context.Context, text, languageCode string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	code := NormalizeLanguageCode(languageCode)
	body := map[string]any{
		"input": map[string]any{"text": text},
		"voice": map[string]any{
			"languageCode": code,
			"name":         VoiceName(languageCode),
			"ssmlGender":   "NEUTRAL",
		},
		"audioConfig": map[string]any{
			"audioEncoding": "MP3",
			"speakingRate":  1.0,
			"pitch":         0,
		},
	}
	var out struct {
		AudioContent string `json:"audioContent"`
	}
	if err := c.post(ctx, c.keyed(c.cfg.TTSEndpoint), body, &out); err != nil {
		return nil, fmt.Errorf("text-to-speech failed: %w", err)
	}
	if out.AudioContent == "" {
		return nil, errors.New("no audio content returned")
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	return audio, nil
}

var encodingByExt = map[string]string{
	".wav":  "LINEAR16",
	".flac": "FLAC",
	".mp3":  "MP3",
	".ogg":  "OGG_OPUS",
	".webm": "WEBM_OPUS",
	".amr":  "AMR",
}

func audioEncoding(audioPath string) string {
	if enc, ok := encodingByExt[strings.ToLower(filepath.Ext(audioPath))]; ok {
		return enc
	}
	return "LINEAR16"
}

var regionByLanguage = map[string]string{
	"en": "en-US",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-BR",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"zh": "zh-CN",
	"ar": "ar-SA",
	"hi": "hi-IN",
	"ru": "ru-RU",
	"nl": "nl-NL",
	"pl": "pl-PL",
	"tr": "tr-TR",
	"vi": "vi-VN",
	"th": "th-TH",
	"id": "id-ID",
}

// NormalizeLanguageCode widens a bare two-letter code into the
// regional form the speech APIs expect; already-regional codes pass
// through unchanged.
func NormalizeLanguageCode(code string) string {
	if strings.Contains(code, "-") {
		return code
	}
	lower := strings.ToLower(code)
	if full, ok := regionByLanguage[lower]; ok {
		return full
	}
	return lower + "-" + strings.ToUpper(lower)
}

var voiceByLanguage = map[string]string{
	"en":    "en-US-Standard-C",
	"en-US": "en-US-Standard-C",
	"en-GB": "en-GB-Standard-A",
	"es":    "es-ES-Standard-A",
	"fr":    "fr-FR-Standard-A",
	"de":    "de-DE-Standard-A",
	"it":    "it-IT-Standard-A",
	"pt":    "pt-BR-Standard-A",
	"pt-PT": "pt-PT-Standard-A",
	"ja":    "ja-JP-Standard-A",
	"ko":    "ko-KR-Standard-A",
	"zh-CN": "cmn-CN-Standard-A",
	"zh-TW": "cmn-TW-Standard-A",
	"ar":    "ar-XA-Standard-A",
	"hi":    "hi-IN-Standard-A",
	"ru":    "ru-RU-Standard-A",
	"nl":    "nl-NL-Standard-A",
	"pl":    "pl-PL-Standard-A",
	"tr":    "tr-TR-Standard-A",
	"vi":    "vi-VN-Standard-A",
	"th":    "th-TH-Standard-A",
	"id":    "id-ID-Standard-A",
	"sv":    "sv-SE-Standard-A",
	"da":    "da-DK-Standard-A",
	"fi":    "fi-FI-Standard-A",
	"uk":    "uk-UA-Standard-A",
	"el":    "el-GR-Standard-A",
	"cs":    "cs-CZ-Standard-A",
	"ro":    "ro-RO-Standard-A",
	"hu":    "hu-HU-Standard-A",
	"sk":    "sk-SK-Standard-A",
	"bg":    "bg-BG-Standard-A",
	"ca":    "ca-ES-Standard-A",
	"he":    "he-IL-Standard-A",
	"ms":    "ms-MY-Standard-A",
	"bn":    "bn-IN-Standard-A",
	"ta":    "ta-IN-Standard-A",
	"te":    "te-IN-Standard-A",
}

const defaultVoice = "en-US-Standard-C"

// VoiceName picks the synthesis voice for a language code, falling
// back through the bare language to a default for unmapped codes.
func VoiceName(languageCode string) string {
	if v, ok := voiceByLanguage[languageCode]; ok {
		return v
	}
	bare := strings.ToLower(strings.SplitN(languageCode, "-", 2)[0])
	if v, ok := voiceByLanguage[bare]; ok {
		return v
	}
	return defaultVoice
}
