package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOrdering(t *testing.T) {
	order := []ConversionStatus{
		StatusPending,
		StatusDownloading,
		StatusExtractingAudio,
		StatusTranscribing,
		StatusTranslating,
		StatusGeneratingVoice,
		StatusMerging,
		StatusCompleted,
	}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Rank(), order[i-1].Rank(), "%s should rank above %s", order[i], order[i-1])
		assert.True(t, order[i-1].CanAdvanceTo(order[i]), "%s -> %s should be legal", order[i-1], order[i])
		assert.False(t, order[i].CanAdvanceTo(order[i-1]), "%s -> %s should be illegal", order[i], order[i-1])
	}
}

func TestProgressFloors(t *testing.T) {
	floors := map[ConversionStatus]int{
		StatusPending:         0,
		StatusDownloading:     10,
		StatusExtractingAudio: 20,
		StatusTranscribing:    30,
		StatusTranslating:     60,
		StatusGeneratingVoice: 90,
		StatusMerging:         95,
		StatusCompleted:       100,
		StatusFailed:          0,
	}
	for status, want := range floors {
		assert.Equal(t, want, status.ProgressFloor(), "floor for %s", status)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusMerging.Terminal())

	// Terminal states never move again, not even to failed.
	assert.False(t, StatusCompleted.CanAdvanceTo(StatusFailed))
	assert.False(t, StatusFailed.CanAdvanceTo(StatusCompleted))
}

func TestFailureReachableFromAnyActiveStage(t *testing.T) {
	for _, s := range []ConversionStatus{
		StatusPending, StatusDownloading, StatusExtractingAudio,
		StatusTranscribing, StatusTranslating, StatusGeneratingVoice, StatusMerging,
	} {
		assert.True(t, s.CanAdvanceTo(StatusFailed), "failure should be reachable from %s", s)
	}
}

func TestValidRejectsUnknownStatus(t *testing.T) {
	assert.False(t, ConversionStatus("paused").Valid())
	assert.False(t, ConversionStatus("").Valid())
	assert.True(t, StatusTranscribing.Valid())
	assert.False(t, StatusPending.CanAdvanceTo(ConversionStatus("paused")))
}
