package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"dubapi/internal/models"
	"dubapi/internal/store"
	"dubapi/internal/voice"
)

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockTranslator) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	args := m.Called(ctx, text, targetLang, sourceLang)
	return args.String(0), args.Error(1)
}

func (m *MockTranslator) DetectLanguage(ctx context.Context, text string) (string, float64, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Get(1).(float64), args.Error(2)
}

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath, languageCode string) (string, error) {
	args := m.Called(ctx, audioPath, languageCode)
	return args.String(0), args.Error(1)
}

type MockCaptionSource struct {
	mock.Mock
}

func (m *MockCaptionSource) Fetch(ctx context.Context, videoID, lang string) (string, string, error) {
	args := m.Called(ctx, videoID, lang)
	return args.String(0), args.String(1), args.Error(2)
}

type MockMediaTools struct {
	mock.Mock
}

func (m *MockMediaTools) Download(ctx context.Context, url, platform string) (string, error) {
	args := m.Called(ctx, url, platform)
	return args.String(0), args.Error(1)
}

func (m *MockMediaTools) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	args := m.Called(ctx, videoPath)
	return args.String(0), args.Error(1)
}

func (m *MockMediaTools) MergeAudioWithVideo(ctx context.Context, videoPath, audioPath string, mixOriginal bool, originalVolume float64) (string, error) {
	args := m.Called(ctx, videoPath, audioPath, mixOriginal, originalVolume)
	return args.String(0), args.Error(1)
}

func (m *MockMediaTools) VideoURL(path string) string {
	return m.Called(path).String(0)
}

func (m *MockMediaTools) Remove(path string) {
	m.Called(path)
}

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Name() string {
	return m.Called().String(0)
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, targetLanguage string) (voice.Asset, error) {
	args := m.Called(ctx, text, targetLanguage)
	return args.Get(0).(voice.Asset), args.Error(1)
}

// recordingStore wraps a store and records every status transition with
// the progress written alongside it, in order.
type recordingStore struct {
	store.Store
	mu  sync.Mutex
	log []statusProgress
}

type statusProgress struct {
	status   models.ConversionStatus
	progress int
}

func (r *recordingStore) UpdateConversion(ctx context.Context, id string, u store.ConversionUpdate) (*models.VideoConversion, error) {
	c, err := r.Store.UpdateConversion(ctx, id, u)
	if err == nil && u.Status != nil {
		r.mu.Lock()
		r.log = append(r.log, statusProgress{status: *u.Status, progress: c.Progress})
		r.mu.Unlock()
	}
	return c, err
}

func (r *recordingStore) transitions() []statusProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]statusProgress, len(r.log))
	copy(out, r.log)
	return out
}
