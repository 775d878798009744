package store

import (
	"context"
	"errors"
	"time"

	"dubapi/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// ConversionUpdate is a partial update: nil fields are left untouched.
// Records are always mutated in place, never replaced wholesale, so a
// poller can read intermediate states while the pipeline advances.
type ConversionUpdate struct {
	Status         *models.ConversionStatus
	Progress       *int
	SourceLanguage *string
	Transcript     *string
	TranslatedText *string
	OutputAudioURL *string
	OutputVideoURL *string
	SubtitlesSRT   *string
	SubtitlesVTT   *string
	Error          *string
}

// check rejects writes that would violate the stage ordering: terminal
// records are immutable and a status may only move forward (or to
// failed). Non-status fields ride along with a legal transition or a
// record still in flight.
func (u ConversionUpdate) check(c *models.VideoConversion) error {
	if c.Status.Terminal() {
		return ErrIllegalTransition
	}
	if u.Status != nil && !c.Status.CanAdvanceTo(*u.Status) {
		return ErrIllegalTransition
	}
	return nil
}

func (u ConversionUpdate) apply(c *models.VideoConversion) {
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.Progress != nil {
		c.Progress = *u.Progress
	}
	if u.SourceLanguage != nil {
		c.SourceLanguage = *u.SourceLanguage
	}
	if u.Transcript != nil {
		c.Transcript = *u.Transcript
	}
	if u.TranslatedText != nil {
		c.TranslatedText = *u.TranslatedText
	}
	if u.OutputAudioURL != nil {
		c.OutputAudioURL = *u.OutputAudioURL
	}
	if u.OutputVideoURL != nil {
		c.OutputVideoURL = *u.OutputVideoURL
	}
	if u.SubtitlesSRT != nil {
		c.SubtitlesSRT = *u.SubtitlesSRT
	}
	if u.SubtitlesVTT != nil {
		c.SubtitlesVTT = *u.SubtitlesVTT
	}
	if u.Error != nil {
		c.Error = *u.Error
	}
	c.UpdatedAt = time.Now().UTC()
}

type DubbingUpdate struct {
	Status         *models.ConversionStatus
	OutputAudioURL *string
	Error          *string
}

func (u DubbingUpdate) apply(d *models.VoiceDubbing) {
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.OutputAudioURL != nil {
		d.OutputAudioURL = *u.OutputAudioURL
	}
	if u.Error != nil {
		d.Error = *u.Error
	}
}

type Stats struct {
	TotalConversions int
	TodayConversions int
}

// Store owns all durable job state. The orchestrator only ever holds
// the id of the job it is advancing.
type Store interface {
	CreateConversion(ctx context.Context, c *models.VideoConversion) error
	GetConversion(ctx context.Context, id string) (*models.VideoConversion, error)
	ConversionsByUser(ctx context.Context, userID string) ([]models.VideoConversion, error)
	UpdateConversion(ctx context.Context, id string, u ConversionUpdate) (*models.VideoConversion, error)
	DeleteConversion(ctx context.Context, id string) error

	CreateDubbing(ctx context.Context, d *models.VoiceDubbing) error
	GetDubbing(ctx context.Context, id string) (*models.VoiceDubbing, error)
	UpdateDubbing(ctx context.Context, id string, u DubbingUpdate) (*models.VoiceDubbing, error)

	Stats(ctx context.Context) (Stats, error)
}
