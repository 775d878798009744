package util

import (
	"fmt"
	"math/rand"
	"net/url"
	"path"
	"strings"
	"time"
)

var platformHosts = map[string]string{
	"youtube.com":     "youtube",
	"youtu.be":        "youtube",
	"tiktok.com":      "tiktok",
	"instagram.com":   "instagram",
	"facebook.com":    "facebook",
	"fb.watch":        "facebook",
	"twitter.com":     "twitter",
	"x.com":           "twitter",
	"vimeo.com":       "vimeo",
	"dailymotion.com": "dailymotion",
	"dai.ly":          "dailymotion",
	"twitch.tv":       "twitch",
}

// DetectPlatform maps a video URL to a known platform id, or "" when
// the host is unrecognized.
func DetectPlatform(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	for suffix, id := range platformHosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return id
		}
	}
	return ""
}

// YouTubeVideoID extracts the canonical video id from the URL shapes
// YouTube serves: watch?v=, youtu.be/, /shorts/, /embed/, /v/.
// Returns "" when no id can be derived.
func YouTubeVideoID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if strings.Contains(host, "youtube.com") {
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		p := strings.ToLower(u.Path)
		for _, prefix := range []string{"/shorts/", "/embed/", "/v/"} {
			if strings.HasPrefix(p, prefix) {
				return path.Base(u.Path)
			}
		}
		return ""
	}
	if strings.Contains(host, "youtu.be") {
		if id := strings.Trim(path.Base(u.Path), "/"); id != "." && id != "" {
			return id
		}
	}
	return ""
}

// NewID returns an identifier unique enough for job records under
// concurrent creation: prefix + unix seconds + random suffix.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().Unix(), rand.Int63())
}

// ArtifactName returns a collision-free filename for a generated
// artifact shared across concurrent jobs.
func ArtifactName(prefix, ext string) string {
	return fmt.Sprintf("%s_%d_%d.%s", prefix, time.Now().UnixNano(), rand.Intn(1_000_000), strings.TrimPrefix(ext, "."))
}
