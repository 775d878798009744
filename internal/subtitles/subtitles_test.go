package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSplitsSentences(t *testing.T) {
	cues := Build("A. B. C.")
	require.Len(t, cues, 3)
	assert.Equal(t, "A.", cues[0].Text)
	assert.Equal(t, "B.", cues[1].Text)
	assert.Equal(t, "C.", cues[2].Text)
	for i, c := range cues {
		assert.Equal(t, i+1, c.Index)
	}
}

func TestBuildWithoutPunctuationIsSingleCue(t *testing.T) {
	cues := Build("hello world with no terminator")
	require.Len(t, cues, 1)
	assert.Equal(t, "hello world with no terminator", cues[0].Text)
}

func TestBuildEmpty(t *testing.T) {
	assert.Nil(t, Build(""))
	assert.Nil(t, Build("   \n  "))
}

func TestBuildTimingMonotonicAndNonOverlapping(t *testing.T) {
	cues := Build("First sentence here. Second one follows! Does a third appear? Yes.")
	require.Len(t, cues, 4)
	assert.Equal(t, time.Duration(0), cues[0].Start)
	for i, c := range cues {
		assert.Greater(t, c.End, c.Start, "cue %d must have positive duration", i)
		assert.GreaterOrEqual(t, c.End-c.Start, 2*time.Second, "cue %d below minimum duration", i)
		if i > 0 {
			assert.Equal(t, cues[i-1].End, c.Start, "cue %d must start where the previous ended", i)
		}
	}
}

func TestTimestampFormats(t *testing.T) {
	at := 125*time.Second + 400*time.Millisecond
	assert.Equal(t, "00:02:05,400", srtTimestamp(at))
	assert.Equal(t, "00:02:05.400", vttTimestamp(at))

	assert.Equal(t, "01:00:00,000", srtTimestamp(time.Hour))
	assert.Equal(t, "00:00:00,000", srtTimestamp(0))
}

func TestRenderSRT(t *testing.T) {
	srt := RenderSRT([]Cue{{Index: 1, Start: 0, End: 2 * time.Second, Text: "Hello."}})
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:02,000\nHello.\n\n", srt)
}

func TestRenderVTT(t *testing.T) {
	vtt := RenderVTT([]Cue{{Index: 1, Start: 0, End: 2 * time.Second, Text: "Hello."}})
	assert.True(t, strings.HasPrefix(vtt, "WEBVTT\n\n"))
	assert.Contains(t, vtt, "00:00:00.000 --> 00:00:02.000\nHello.")
}

func TestGenerateBothFormats(t *testing.T) {
	srt, vtt := Generate("One sentence. Another sentence.")
	assert.Contains(t, srt, ",")
	assert.Contains(t, srt, "1\n")
	assert.Contains(t, srt, "2\n")
	assert.True(t, strings.HasPrefix(vtt, "WEBVTT"))
	assert.NotContains(t, vtt, ",")
}
