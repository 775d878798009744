package captions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ErrUnavailable marks the expected degraded case: the video has no
// usable caption track. Callers fall back instead of failing the job.
var ErrUnavailable = errors.New("captions unavailable")

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	captionTracksRe = regexp.MustCompile(`"captionTracks":\s*\[([^\]]+)\]`)
	textCueRe       = regexp.MustCompile(`<text[^>]*>[^<]+</text>`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	VssID        string `json:"vssId"`
}

// Client fetches caption tracks from YouTube's watch page. Caption
// access is inherently best-effort: YouTube restricts server-side
// access and many videos simply carry no track.
type Client struct {
	http      *http.Client
	watchBase string
	minChars  int
}

func New(minChars int) *Client {
	return &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		watchBase: "https://www.youtube.com/watch",
		minChars:  minChars,
	}
}

// NewWithBase overrides the watch-page endpoint, used by tests.
func NewWithBase(base string, minChars int) *Client {
	c := New(minChars)
	c.watchBase = base
	return c
}

// Fetch returns the decoded caption text for a video, preferring a
// track matching lang and otherwise taking the first available one.
// Missing or too-short captions report ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, videoID, lang string) (string, string, error) {
	page, err := c.get(ctx, c.watchBase+"?v="+videoID, "text/html")
	if err != nil {
		return "", "", fmt.Errorf("fetch watch page: %w", err)
	}

	tracks, err := parseTracks(page)
	if err != nil {
		return "", "", err
	}
	track := pickTrack(tracks, lang)
	if track.BaseURL == "" {
		return "", "", ErrUnavailable
	}

	payload, err := c.get(ctx, cleanBaseURL(track.BaseURL), "text/xml, application/xml, */*")
	if err != nil {
		return "", "", fmt.Errorf("fetch caption track: %w", err)
	}

	text := DecodePayload(payload)
	if len(text) < c.minChars {
		return "", "", ErrUnavailable
	}
	language := track.LanguageCode
	if language == "" {
		language = lang
	}
	return text, language, nil
}

func (c *Client) get(ctx context.Context, url, accept string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseTracks(page string) ([]captionTrack, error) {
	m := captionTracksRe.FindStringSubmatch(page)
	if m == nil {
		return nil, ErrUnavailable
	}
	var tracks []captionTrack
	if err := json.Unmarshal([]byte("["+m[1]+"]"), &tracks); err != nil {
		return nil, fmt.Errorf("parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrUnavailable
	}
	return tracks, nil
}

func pickTrack(tracks []captionTrack, lang string) captionTrack {
	for _, t := range tracks {
		if t.LanguageCode == lang || (lang != "" && strings.Contains(t.VssID, lang)) {
			return t
		}
	}
	return tracks[0]
}

// cleanBaseURL undoes the entity escaping the watch page applies to
// the caption track URL. JSON decoding already resolved & forms.
func cleanBaseURL(u string) string {
	return strings.ReplaceAll(u, "&amp;", "&")
}

// DecodePayload turns a timed-text XML payload into clean plain text:
// markup tags stripped, standard and numeric character references
// resolved, whitespace collapsed.
func DecodePayload(payload string) string {
	var parts []string
	for _, m := range textCueRe.FindAllString(payload, -1) {
		t := strings.TrimSpace(tagRe.ReplaceAllString(m, ""))
		if t != "" {
			parts = append(parts, html.UnescapeString(t))
		}
	}
	text := strings.Join(parts, " ")
	if text == "" {
		// Some payloads nest cues; fall back to stripping the whole
		// document.
		text = html.UnescapeString(tagRe.ReplaceAllString(payload, " "))
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
