package models

import "time"

type VoiceType string

const (
	VoiceGoogle     VoiceType = "google"
	VoiceElevenLabs VoiceType = "elevenlabs"
)

type ConversionStatus string

const (
	StatusPending         ConversionStatus = "pending"
	StatusDownloading     ConversionStatus = "downloading"
	StatusExtractingAudio ConversionStatus = "extracting_audio"
	StatusTranscribing    ConversionStatus = "transcribing"
	StatusTranslating     ConversionStatus = "translating"
	StatusGeneratingVoice ConversionStatus = "generating_voice"
	StatusMerging         ConversionStatus = "merging"
	StatusCompleted       ConversionStatus = "completed"
	StatusFailed          ConversionStatus = "failed"
)

// statusRank defines the only legal forward order of pipeline stages.
// failed is reachable from any non-terminal stage.
var statusRank = map[ConversionStatus]int{
	StatusPending:         0,
	StatusDownloading:     1,
	StatusExtractingAudio: 2,
	StatusTranscribing:    3,
	StatusTranslating:     4,
	StatusGeneratingVoice: 5,
	StatusMerging:         6,
	StatusCompleted:       7,
	StatusFailed:          7,
}

// progressFloor is the minimum progress a record in the given status
// may report. A failed job always resets to 0.
var progressFloor = map[ConversionStatus]int{
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

func (s ConversionStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s ConversionStatus) Rank() int { return statusRank[s] }

func (s ConversionStatus) ProgressFloor() int { return progressFloor[s] }

func (s ConversionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanAdvanceTo reports whether a record in status s may transition to
// next. Terminal states never transition; failure is always reachable.
func (s ConversionStatus) CanAdvanceTo(next ConversionStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return next.Rank() > s.Rank()
}

// VideoConversion is one dubbing job advancing through the pipeline.
type VideoConversion struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id,omitempty"`
	OriginalURL      string           `json:"original_url,omitempty"`
	OriginalFileName string           `json:"original_file_name,omitempty"`
	SourceLanguage   string           `json:"source_language,omitempty"`
	TargetLanguage   string           `json:"target_language"`
	Status           ConversionStatus `json:"status"`
	Progress         int              `json:"progress"`
	Transcript       string           `json:"transcript,omitempty"`
	TranslatedText   string           `json:"translated_text,omitempty"`
	OutputAudioURL   string           `json:"output_audio_url,omitempty"`
	OutputVideoURL   string           `json:"output_video_url,omitempty"`
	SubtitlesSRT     string           `json:"subtitles_srt,omitempty"`
	SubtitlesVTT     string           `json:"subtitles_vtt,omitempty"`
	VoiceType        VoiceType        `json:"voice_type"`
	Error            string           `json:"error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// VoiceDubbing is one standalone text-to-speech job from the studio
// flow: pending, then completed with an audio URL or failed.
type VoiceDubbing struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id,omitempty"`
	InputText      string           `json:"input_text"`
	SourceLanguage string           `json:"source_language,omitempty"`
	TargetLanguage string           `json:"target_language"`
	VoiceType      VoiceType        `json:"voice_type"`
	Status         ConversionStatus `json:"status"`
	OutputAudioURL string           `json:"output_audio_url,omitempty"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

type ConvertRequest struct {
	OriginalURL      string    `json:"original_url"`
	OriginalFileName string    `json:"original_file_name"`
	SourceLanguage   string    `json:"source_language"`
	TargetLanguage   string    `json:"target_language"`
	VoiceType        VoiceType `json:"voice_type"`
}

type ConvertResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type StatusResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

type DubbingRequest struct {
	InputText      string    `json:"input_text"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	VoiceType      VoiceType `json:"voice_type"`
}

type StatsResponse struct {
	TotalConversions   int `json:"total_conversions"`
	TodayConversions   int `json:"today_conversions"`
	LanguagesSupported int `json:"languages_supported"`
	PlatformsSupported int `json:"platforms_supported"`
}
