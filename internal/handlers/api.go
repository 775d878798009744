package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"dubapi/internal/captions"
	"dubapi/internal/config"
	"dubapi/internal/elevenlabs"
	"dubapi/internal/google"
	"dubapi/internal/media"
	"dubapi/internal/metrics"
	"dubapi/internal/middleware"
	"dubapi/internal/models"
	"dubapi/internal/pipeline"
	"dubapi/internal/queue"
	"dubapi/internal/store"
	"dubapi/internal/voice"
)

type API struct {
	cfg      *config.Config
	store    store.Store
	media    *media.Toolchain
	google   *google.Client
	eleven   *elevenlabs.Client
	pipeline *pipeline.Service
	jobs     *queue.Queue
	pool     *queue.WorkerPool

	janitorDone chan struct{}
	stopOnce    sync.Once
}

func NewAPI(cfg *config.Config) (*API, error) {
	var st store.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(context.Background()).Err(); err == nil {
			st = store.NewRedisStore(rdb)
		}
	}
	if st == nil {
		st = store.NewMemoryStore()
	}

	tools := media.New(media.Config{
		PublicDir:       cfg.PublicDir,
		FFmpegTimeout:   cfg.FFmpegTimeout,
		DownloadTimeout: cfg.DownloadTimeout,
	}, cfg.MaxConcurrentSubprocesses)

	gc := google.New(google.Config{
		APIKey:            cfg.GoogleAPIKey,
		TranslateEndpoint: cfg.GoogleTranslateEndpoint,
		SpeechEndpoint:    cfg.GoogleSpeechEndpoint,
		TTSEndpoint:       cfg.GoogleTTSEndpoint,
	})
	el := elevenlabs.New(cfg.ElevenLabsAPIKey, cfg.ElevenLabsEndpoint)

	voices := &voice.Selector{
		Premium:      &voice.ElevenLabsSynthesizer{Client: el, Files: tools},
		Generic:      &voice.GoogleSynthesizer{Client: gc, Files: tools},
		PremiumReady: el.CheckAPIKey,
	}

	jobs := queue.NewQueue(cfg.JobQueueCapacity)
	svc := pipeline.NewService(pipeline.Config{
		Remux:               cfg.RemuxOutput,
		MixOriginalAudio:    cfg.MixOriginalAudio,
		OriginalAudioVolume: cfg.OriginalAudioVolume,
		FallbackTranscript:  cfg.FallbackTranscript,
	}, st, jobs, gc, &chunkedTranscriber{client: gc, chunker: tools, chunk: cfg.ChunkDuration},
		captions.New(cfg.MinCaptionChars), tools, voices)

	pool := queue.NewWorkerPool(cfg.WorkerPoolSize, jobs, svc.Process)
	pool.Start()

	api := &API{cfg: cfg, store: st, media: tools, google: gc, eleven: el, pipeline: svc, jobs: jobs, pool: pool}
	api.startJanitor()
	return api, nil
}

// chunkedTranscriber adapts the speech client's chunked recognition to
// the pipeline's single-call transcriber port.
type chunkedTranscriber struct {
	client  *google.Client
	chunker google.Chunker
	chunk   time.Duration
}

func (t *chunkedTranscriber) Transcribe(ctx context.Context, audioPath, languageCode string) (string, error) {
	return t.client.SpeechToTextLong(ctx, t.chunker, audioPath, languageCode, t.chunk)
}

func (a *API) startJanitor() {
	a.janitorDone = make(chan struct{})
	go func() {
		ticker := time.NewTicker(a.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.media.SweepTemp(a.cfg.TempFileTTL)
			case <-a.janitorDone:
				return
			}
		}
	}()
}

// Shutdown stops the janitor and drains the worker pool; in-flight
// conversions finish first. Safe to call more than once.
func (a *API) Shutdown() {
	a.stopOnce.Do(func() {
		close(a.janitorDone)
		a.pool.Stop()
	})
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	corsMw := cors.New(cors.Options{AllowedOrigins: a.cfg.AllowedOrigins, AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"}, AllowedHeaders: []string{"*"}, ExposedHeaders: []string{"Content-Length", "Content-Range"}, AllowCredentials: false})
	r.Use(corsMw.Handler)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.GlobalRateLimiter(a.cfg.RequestsPerSecond, a.cfg.BurstSize))
	r.Use(middleware.PerIPRateLimiter(a.cfg.PerIPRPS, a.cfg.PerIPBurst))
	keys := map[string]struct{}{}
	for _, k := range a.cfg.APIKeys {
		keys[k] = struct{}{}
	}
	r.Use(middleware.APIKey(a.cfg.RequireAPIKey, keys))

	r.Post("/api/convert/video", a.handleConvertVideo)
	r.Get("/api/convert/videos", a.handleUserConversions)
	r.Get("/api/convert/video/{id}", a.handleGetConversion)
	r.Get("/api/convert/video/{id}/status", a.handleConversionStatus)
	r.Get("/api/convert/video/{id}/subtitles.srt", a.handleSubtitlesSRT)
	r.Get("/api/convert/video/{id}/subtitles.vtt", a.handleSubtitlesVTT)
	r.Delete("/api/convert/video/{id}", a.handleDeleteConversion)

	r.Post("/api/voice/generate", a.handleGenerateDubbing)
	r.Get("/api/voice/status", a.handleVoiceStatus)
	r.Get("/api/voice/{id}", a.handleGetDubbing)

	r.Get("/api/languages", a.handleLanguages)
	r.Get("/api/platforms", a.handlePlatforms)
	r.Get("/api/config", a.handleConfig)
	r.Get("/api/stats", a.handleStats)
	r.Get("/api/health", a.handleHealth)

	r.Handle("/metrics", metrics.Handler())

	r.Handle("/audio/*", http.StripPrefix("/audio/", http.FileServer(http.Dir(a.media.AudioDir()))))
	r.Handle("/videos/*", http.StripPrefix("/videos/", http.FileServer(http.Dir(a.media.VideoDir()))))

	return r
}

func (a *API) handleConvertVideo(w http.ResponseWriter, r *http.Request) {
	var req models.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	conv, err := a.pipeline.StartConversion(r.Context(), req, userID(r))
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrMissingTargetLanguage), errors.Is(err, pipeline.ErrMissingSource):
			writeErr(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, pipeline.ErrTranslatorNotReady), errors.Is(err, pipeline.ErrQueueFull):
			writeErr(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "failed to create conversion")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, models.ConvertResponse{
		ID:      conv.ID,
		Status:  string(conv.Status),
		Message: "Conversion queued. Poll the status endpoint for progress.",
	})
}

func (a *API) handleUserConversions(w http.ResponseWriter, r *http.Request) {
	convs, err := a.store.ConversionsByUser(r.Context(), userID(r))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to list conversions")
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (a *API) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	conv, err := a.store.GetConversion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "conversion not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (a *API) handleConversionStatus(w http.ResponseWriter, r *http.Request) {
	conv, err := a.store.GetConversion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "conversion not found")
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{
		ID:       conv.ID,
		Status:   string(conv.Status),
		Progress: conv.Progress,
		Error:    conv.Error,
	})
}

func (a *API) handleSubtitlesSRT(w http.ResponseWriter, r *http.Request) {
	a.serveSubtitles(w, r, "srt")
}

func (a *API) handleSubtitlesVTT(w http.ResponseWriter, r *http.Request) {
	a.serveSubtitles(w, r, "vtt")
}

func (a *API) serveSubtitles(w http.ResponseWriter, r *http.Request, format string) {
	id := chi.URLParam(r, "id")
	conv, err := a.store.GetConversion(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, "conversion not found")
		return
	}
	body := conv.SubtitlesSRT
	contentType := "application/x-subrip"
	if format == "vtt" {
		body = conv.SubtitlesVTT
		contentType = "text/vtt"
	}
	if body == "" {
		writeErr(w, http.StatusNotFound, "subtitles not ready")
		return
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+id+"."+format+"\"")
	_, _ = w.Write([]byte(body))
}

func (a *API) handleDeleteConversion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.DeleteConversion(r.Context(), id); err != nil {
		writeErr(w, http.StatusNotFound, "conversion not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleGenerateDubbing(w http.ResponseWriter, r *http.Request) {
	var req models.DubbingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dub, err := a.pipeline.GenerateDubbing(r.Context(), req, userID(r))
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrMissingText), errors.Is(err, pipeline.ErrMissingTargetLanguage):
			writeErr(w, http.StatusBadRequest, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "failed to generate dubbing")
		}
		return
	}
	writeJSON(w, http.StatusOK, dub)
}

func (a *API) handleGetDubbing(w http.ResponseWriter, r *http.Request) {
	dub, err := a.store.GetDubbing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "dubbing not found")
		return
	}
	writeJSON(w, http.StatusOK, dub)
}

func (a *API) handleVoiceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"google":     a.google.Configured(),
		"elevenlabs": a.eleven.CheckAPIKey(r.Context()),
	})
}

func (a *API) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": models.SupportedLanguages})
}

func (a *API) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"platforms": models.SupportedPlatforms})
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"voice_types":        []models.VoiceType{models.VoiceGoogle, models.VoiceElevenLabs},
		"remux_output":       a.cfg.RemuxOutput,
		"mix_original_audio": a.cfg.MixOriginalAudio,
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.store.Stats(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, models.StatsResponse{
		TotalConversions:   st.TotalConversions,
		TodayConversions:   st.TodayConversions,
		LanguagesSupported: len(models.SupportedLanguages),
		PlatformsSupported: len(models.SupportedPlatforms),
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"queued_jobs": a.jobs.Len(),
		"workers":     a.cfg.WorkerPoolSize,
	})
}

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("user_id")
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
