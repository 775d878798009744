package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dubapi/internal/metrics"
	"dubapi/internal/models"
	"dubapi/internal/queue"
	"dubapi/internal/store"
	"dubapi/internal/subtitles"
	"dubapi/internal/util"
	"dubapi/internal/voice"
)

var (
	ErrMissingTargetLanguage = errors.New("target language is required")
	ErrMissingSource         = errors.New("a video url or uploaded file is required")
	ErrMissingText           = errors.New("input text is required")
	ErrTranslatorNotReady    = errors.New("translation capability not configured")
	ErrQueueFull             = errors.New("conversion queue is full")
)

// Translator maps text between languages. Implemented by the Google
// client.
type Translator interface {
	Configured() bool
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
	DetectLanguage(ctx context.Context, text string) (string, float64, error)
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageCode string) (string, error)
}

// CaptionSource fetches existing caption text for a hosted video.
type CaptionSource interface {
	Fetch(ctx context.Context, videoID, lang string) (text, language string, err error)
}

// MediaTools is the subset of the media toolchain the pipeline drives.
type MediaTools interface {
	Download(ctx context.Context, url, platform string) (string, error)
	ExtractAudio(ctx context.Context, videoPath string) (string, error)
	MergeAudioWithVideo(ctx context.Context, videoPath, audioPath string, mixOriginal bool, originalVolume float64) (string, error)
	VideoURL(path string) string
	Remove(path string)
}

type Config struct {
	Remux               bool
	MixOriginalAudio    bool
	OriginalAudioVolume float64
	FallbackTranscript  string
}

// Service orchestrates dubbing jobs: it owns stage ordering and
// progress reporting, and delegates every capability to an injected
// dependency so each can be swapped or faked.
type Service struct {
	cfg         Config
	store       store.Store
	queue       *queue.Queue
	translator  Translator
	transcriber Transcriber
	captions    CaptionSource
	media       MediaTools
	voices      *voice.Selector
}

func NewService(cfg Config, st store.Store, q *queue.Queue, tr Translator, sc Transcriber, cs CaptionSource, mt MediaTools, vs *voice.Selector) *Service {
	return &Service{
		cfg:         cfg,
		store:       st,
		queue:       q,
		translator:  tr,
		transcriber: sc,
		captions:    cs,
		media:       mt,
		voices:      vs,
	}
}

// StartConversion validates the request, persists a pending record and
// enqueues it. Premium-voice jobs get queue priority. A full queue
// rolls the record back so no orphaned pending jobs accumulate.
func (s *Service) StartConversion(ctx context.Context, req models.ConvertRequest, userID string) (*models.VideoConversion, error) {
	if strings.TrimSpace(req.TargetLanguage) == "" {
		return nil, ErrMissingTargetLanguage
	}
	if strings.TrimSpace(req.OriginalURL) == "" && strings.TrimSpace(req.OriginalFileName) == "" {
		return nil, ErrMissingSource
	}
	if !s.translator.Configured() {
		return nil, ErrTranslatorNotReady
	}
	vt := req.VoiceType
	if vt != models.VoiceElevenLabs {
		vt = models.VoiceGoogle
	}

	now := time.Now().UTC()
	conv := &models.VideoConversion{
		ID:               util.NewID("conv"),
		UserID:           userID,
		OriginalURL:      strings.TrimSpace(req.OriginalURL),
		OriginalFileName: strings.TrimSpace(req.OriginalFileName),
		SourceLanguage:   strings.TrimSpace(req.SourceLanguage),
		TargetLanguage:   strings.TrimSpace(req.TargetLanguage),
		Status:           models.StatusPending,
		Progress:         0,
		VoiceType:        vt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateConversion(ctx, conv); err != nil {
		return nil, err
	}

	priority := 0
	if vt == models.VoiceElevenLabs {
		priority = 1
	}
	ok := s.queue.Enqueue(queue.Job{
		ID:           util.NewID("job"),
		ConversionID: conv.ID,
		EnqueuedAt:   now,
		Priority:     priority,
	})
	if !ok {
		_ = s.store.DeleteConversion(ctx, conv.ID)
		return nil, ErrQueueFull
	}
	return conv, nil
}

// Process runs one queued conversion to a terminal state. It is the
// worker pool handler; every stage entry is written to the store before
// the stage runs so pollers observe monotonic status and progress.
func (s *Service) Process(job queue.Job) {
	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()
	started := time.Now()

	ctx := context.Background()
	conv, err := s.store.GetConversion(ctx, job.ConversionID)
	if err != nil {
		log.Printf("job %s: conversion %s not loadable: %v", job.ID, job.ConversionID, err)
		return
	}
	if conv.Status.Terminal() {
		return
	}

	status := s.run(ctx, conv)
	metrics.ConversionsTotal.WithLabelValues(string(status)).Inc()
	metrics.ConversionDuration.WithLabelValues(string(status)).Observe(time.Since(started).Seconds())
}

func (s *Service) run(ctx context.Context, conv *models.VideoConversion) models.ConversionStatus {
	id := conv.ID

	// Download. A local file is only needed for physical remuxing or
	// speech recognition; URL sources are fetched when remuxing is on.
	// Download trouble degrades the job, it does not fail it: captions
	// or the fallback transcript still carry it, and the output falls
	// back to referencing the original video.
	s.advance(ctx, id, models.StatusDownloading)
	videoPath := conv.OriginalFileName
	if videoPath == "" && s.cfg.Remux {
		platform := util.DetectPlatform(conv.OriginalURL)
		path, err := s.media.Download(ctx, conv.OriginalURL, platform)
		if err != nil {
			log.Printf("conversion %s: download failed, continuing without local video: %v", id, err)
		} else {
			videoPath = path
			defer s.media.Remove(path)
		}
	}

	// Extract audio when a local video exists. Also non-fatal.
	s.advance(ctx, id, models.StatusExtractingAudio)
	audioPath := ""
	if videoPath != "" {
		path, err := s.media.ExtractAudio(ctx, videoPath)
		if err != nil {
			log.Printf("conversion %s: audio extraction failed, continuing without audio: %v", id, err)
		} else {
			audioPath = path
			defer s.media.Remove(path)
		}
	}

	// Transcribe.
	s.advance(ctx, id, models.StatusTranscribing)
	transcript, sourceLang := s.acquireTranscript(ctx, conv, audioPath)
	if _, err := s.store.UpdateConversion(ctx, id, store.ConversionUpdate{
		Transcript:     &transcript,
		SourceLanguage: &sourceLang,
	}); err != nil {
		log.Printf("conversion %s: persist transcript: %v", id, err)
	}

	// Translate.
	s.advance(ctx, id, models.StatusTranslating)
	translated, err := s.translator.Translate(ctx, transcript, conv.TargetLanguage, sourceLang)
	if err != nil {
		return s.fail(ctx, id, fmt.Errorf("translate: %w", err))
	}
	if _, err := s.store.UpdateConversion(ctx, id, store.ConversionUpdate{
		TranslatedText: &translated,
	}); err != nil {
		log.Printf("conversion %s: persist translation: %v", id, err)
	}

	// Synthesize.
	s.advance(ctx, id, models.StatusGeneratingVoice)
	synth := s.voices.For(ctx, conv.VoiceType)
	asset, err := synth.Synthesize(ctx, translated, conv.TargetLanguage)
	if err != nil {
		return s.fail(ctx, id, fmt.Errorf("voice synthesis (%s): %w", synth.Name(), err))
	}
	if _, err := s.store.UpdateConversion(ctx, id, store.ConversionUpdate{
		OutputAudioURL: &asset.URL,
	}); err != nil {
		log.Printf("conversion %s: persist audio url: %v", id, err)
	}

	// Package: subtitles plus the final video reference. Remux failure
	// degrades to the original video URL rather than failing a job
	// whose dubbed audio already exists.
	s.advance(ctx, id, models.StatusMerging)
	srt, vtt := subtitles.Generate(translated)
	if _, err := s.store.UpdateConversion(ctx, id, store.ConversionUpdate{
		SubtitlesSRT: &srt,
		SubtitlesVTT: &vtt,
	}); err != nil {
		log.Printf("conversion %s: persist subtitles: %v", id, err)
	}
	videoURL := conv.OriginalURL
	if s.cfg.Remux && videoPath != "" {
		merged, err := s.media.MergeAudioWithVideo(ctx, videoPath, asset.Path, s.cfg.MixOriginalAudio, s.cfg.OriginalAudioVolume)
		if err != nil {
			log.Printf("conversion %s: merge failed, falling back to original video: %v", id, err)
		} else {
			videoURL = s.media.VideoURL(merged)
		}
	}

	done := models.StatusCompleted
	doneProgress := done.ProgressFloor()
	if _, err := s.store.UpdateConversion(ctx, id, store.ConversionUpdate{
		Status:         &done,
		Progress:       &doneProgress,
		OutputVideoURL: &videoURL,
	}); err != nil {
		log.Printf("conversion %s: persist completion: %v", id, err)
	}
	return done
}

// acquireTranscript produces transcript text for the job, trying
// cheapest first: existing captions, then speech recognition on the
// extracted audio, then the configured fallback text. It never fails;
// a job with no recoverable speech still completes with the fallback.
func (s *Service) acquireTranscript(ctx context.Context, conv *models.VideoConversion, audioPath string) (string, string) {
	sourceLang := conv.SourceLanguage

	if videoID := util.YouTubeVideoID(conv.OriginalURL); videoID != "" {
		text, lang, err := s.captions.Fetch(ctx, videoID, sourceLang)
		if err == nil {
			if lang != "" {
				sourceLang = lang
			}
			return text, sourceLang
		}
		log.Printf("conversion %s: captions unavailable: %v", conv.ID, err)
	}

	if audioPath != "" {
		lang := sourceLang
		if lang == "" {
			lang = "en"
		}
		text, err := s.transcriber.Transcribe(ctx, audioPath, lang)
		if err == nil {
			if sourceLang == "" {
				sourceLang = s.detectLanguage(ctx, text, "")
			}
			return text, sourceLang
		}
		log.Printf("conversion %s: speech recognition failed: %v", conv.ID, err)
	}

	return s.cfg.FallbackTranscript, sourceLang
}

// detectLanguage is best-effort; def is returned when detection is
// unavailable or fails.
func (s *Service) detectLanguage(ctx context.Context, text, def string) string {
	if !s.translator.Configured() {
		return def
	}
	lang, _, err := s.translator.DetectLanguage(ctx, text)
	if err != nil || lang == "" {
		return def
	}
	return lang
}

// advance moves a conversion into the given stage, reporting the
// stage's minimum progress. Store errors are logged, not fatal: the
// stage itself decides success.
func (s *Service) advance(ctx context.Context, id string, status models.ConversionStatus) {
	progress := status.ProgressFloor()
	if _, err := s.store.UpdateConversion(ctx, id, store.ConversionUpdate{
		Status:   &status,
		Progress: &progress,
	}); err != nil {
		log.Printf("conversion %s: advance to %s: %v", id, status, err)
	}
}

// fail marks a conversion failed, resetting progress to zero.
func (s *Service) fail(ctx context.Context, id string, cause error) models.ConversionStatus {
	log.Printf("conversion %s failed: %v", id, cause)
	failed := models.StatusFailed
	zero := 0
	msg := cause.Error()
	if _, err := s.store.UpdateConversion(ctx, id, store.ConversionUpdate{
		Status:   &failed,
		Progress: &zero,
		Error:    &msg,
	}); err != nil {
		log.Printf("conversion %s: persist failure: %v", id, err)
	}
	return failed
}

// GenerateDubbing runs the studio flow synchronously: optional
// translation of the input text, then synthesis with the selected
// voice. The record is persisted before work starts so a failure is
// observable with its error.
func (s *Service) GenerateDubbing(ctx context.Context, req models.DubbingRequest, userID string) (*models.VoiceDubbing, error) {
	if strings.TrimSpace(req.InputText) == "" {
		return nil, ErrMissingText
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		return nil, ErrMissingTargetLanguage
	}
	vt := req.VoiceType
	if vt != models.VoiceElevenLabs {
		vt = models.VoiceGoogle
	}

	dub := &models.VoiceDubbing{
		ID:             util.NewID("dub"),
		UserID:         userID,
		InputText:      strings.TrimSpace(req.InputText),
		SourceLanguage: strings.TrimSpace(req.SourceLanguage),
		TargetLanguage: strings.TrimSpace(req.TargetLanguage),
		VoiceType:      vt,
		Status:         models.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateDubbing(ctx, dub); err != nil {
		return nil, err
	}

	text := dub.InputText
	if dub.SourceLanguage != dub.TargetLanguage && s.translator.Configured() {
		translated, err := s.translator.Translate(ctx, text, dub.TargetLanguage, dub.SourceLanguage)
		if err != nil {
			return s.failDubbing(ctx, dub.ID, fmt.Errorf("translate: %w", err))
		}
		text = translated
	}

	synth := s.voices.For(ctx, vt)
	asset, err := synth.Synthesize(ctx, text, dub.TargetLanguage)
	if err != nil {
		return s.failDubbing(ctx, dub.ID, fmt.Errorf("voice synthesis (%s): %w", synth.Name(), err))
	}

	completed := models.StatusCompleted
	updated, err := s.store.UpdateDubbing(ctx, dub.ID, store.DubbingUpdate{
		Status:         &completed,
		OutputAudioURL: &asset.URL,
	})
	if err != nil {
		return nil, err
	}
	metrics.DubbingsTotal.WithLabelValues(string(completed)).Inc()
	return updated, nil
}

func (s *Service) failDubbing(ctx context.Context, id string, cause error) (*models.VoiceDubbing, error) {
	failed := models.StatusFailed
	msg := cause.Error()
	updated, err := s.store.UpdateDubbing(ctx, id, store.DubbingUpdate{
		Status: &failed,
		Error:  &msg,
	})
	if err != nil {
		return nil, err
	}
	metrics.DubbingsTotal.WithLabelValues(string(failed)).Inc()
	return updated, nil
}
