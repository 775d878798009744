package subtitles

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Cue is one timed subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)

const (
	minCueDuration = 2 * time.Second
	charsPerSecond = 15.0
)

// Build splits text into sentence cues with estimated back-to-back
// timing starting at zero. Timing is proportional to character count,
// never below two seconds per cue; it approximates speech pace and is
// not audio-aligned. Text without sentence punctuation becomes a
// single cue.
func Build(text string) []Cue {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sentences []string
	for _, m := range sentenceRe.FindAllString(text, -1) {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		sentences = []string{text}
	}

	cues := make([]Cue, 0, len(sentences))
	var at time.Duration
	for i, s := range sentences {
		dur := time.Duration(float64(len([]rune(s))) / charsPerSecond * float64(time.Second))
		if dur < minCueDuration {
			dur = minCueDuration
		}
		cues = append(cues, Cue{Index: i + 1, Start: at, End: at + dur, Text: s})
		at += dur
	}
	return cues
}

// Generate renders both subtitle formats for the given text.
func Generate(text string) (srt, vtt string) {
	cues := Build(text)
	return RenderSRT(cues), RenderVTT(cues)
}

// RenderSRT renders cues in SubRip format (comma millisecond
// separator, blank-line separated numbered blocks).
func RenderSRT(cues []Cue) string {
	var b strings.Builder
	for _, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", c.Index, srtTimestamp(c.Start), srtTimestamp(c.End), c.Text)
	}
	return b.String()
}

// RenderVTT renders cues in WebVTT format (dot millisecond separator,
// WEBVTT header).
func RenderVTT(cues []Cue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", vttTimestamp(c.Start), vttTimestamp(c.End), c.Text)
	}
	return b.String()
}

func srtTimestamp(d time.Duration) string {
	h, m, s, ms := clock(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func vttTimestamp(d time.Duration) string {
	h, m, s, ms := clock(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func clock(d time.Duration) (h, m, s, ms int) {
	if d < 0 {
		d = 0
	}
	ms = int(d.Milliseconds())
	h = ms / 3_600_000
	ms -= h * 3_600_000
	m = ms / 60_000
	ms -= m * 60_000
	s = ms / 1000
	ms -= s * 1000
	return
}
