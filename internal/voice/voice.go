package voice

import (
	"context"

	"dubapi/internal/elevenlabs"
	"dubapi/internal/google"
	"dubapi/internal/models"
)

// Asset is a synthesized audio artifact: where it lives on disk and
// the URL it is served under.
type Asset struct {
	Path string
	URL  string
}

// Synthesizer is one speech synthesis strategy. Adding a provider
// means adding an implementation, not touching call sites.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, targetLanguage string) (Asset, error)
}

// AudioSaver persists raw audio bytes under a servable path.
// Implemented by the media toolchain.
type AudioSaver interface {
	SaveAudio(data []byte, ext string) (path, url string, err error)
}

// GoogleSynthesizer is the generic TTS strategy.
type GoogleSynthesizer struct {
	Client *google.Client
	Files  AudioSaver
}

func (s *GoogleSynthesizer) Name() string { return string(models.VoiceGoogle) }

func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text, targetLanguage string) (Asset, error) {
	audio, err := s.Client.TextToSpeech(ctx, text, targetLanguage)
	if err != nil {
		return Asset{}, err
	}
	path, url, err := s.Files.SaveAudio(audio, "mp3")
	if err != nil {
		return Asset{}, err
	}
	return Asset{Path: path, URL: url}, nil
}

// ElevenLabsSynthesizer is the premium cloned-voice strategy.
type ElevenLabsSynthesizer struct {
	Client *elevenlabs.Client
	Files  AudioSaver
}

func (s *ElevenLabsSynthesizer) Name() string { return string(models.VoiceElevenLabs) }

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text, targetLanguage string) (Asset, error) {
	audio, err := s.Client.GenerateSpeech(ctx, text, targetLanguage)
	if err != nil {
		return Asset{}, err
	}
	path, url, err := s.Files.SaveAudio(audio, "mp3")
	if err != nil {
		return Asset{}, err
	}
	return Asset{Path: path, URL: url}, nil
}

// Selector picks the synthesizer for a request: premium only when it
// was asked for and its credentials check out, generic otherwise.
type Selector struct {
	Premium      Synthesizer
	Generic      Synthesizer
	PremiumReady func(ctx context.Context) bool
}

func (s *Selector) For(ctx context.Context, vt models.VoiceType) Synthesizer {
	if vt == models.VoiceElevenLabs && s.Premium != nil && s.PremiumReady != nil && s.PremiumReady(ctx) {
		return s.Premium
	}
	return s.Generic
}
