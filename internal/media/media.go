package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dubapi/internal/util"
)

// ErrUnsupportedPlatform is returned by Download for platforms that
// have no working download path, distinct from a failed download.
var ErrUnsupportedPlatform = errors.New("platform download not supported")

type Config struct {
	PublicDir       string
	FFmpegTimeout   time.Duration
	DownloadTimeout time.Duration
}

// Toolchain wraps the external media tools (ffmpeg, ffprobe, yt-dlp).
// Every operation spawns a subprocess with an enforced timeout and
// resolves success from the exit code plus a non-empty output file.
type Toolchain struct {
	cfg Config
	sem chan struct{}
}

func New(cfg Config, maxConcurrent int) *Toolchain {
	t := &Toolchain{cfg: cfg, sem: make(chan struct{}, maxConcurrent)}
	for _, dir := range []string{t.TempDir(), t.AudioDir(), t.VideoDir()} {
		_ = os.MkdirAll(dir, 0o755)
	}
	return t
}

func (t *Toolchain) TempDir() string  { return filepath.Join(t.cfg.PublicDir, "temp") }
func (t *Toolchain) AudioDir() string { return filepath.Join(t.cfg.PublicDir, "audio") }
func (t *Toolchain) VideoDir() string { return filepath.Join(t.cfg.PublicDir, "videos") }

// AudioURL maps a file in the audio dir to its servable path.
func (t *Toolchain) AudioURL(path string) string { return "/audio/" + filepath.Base(path) }

// VideoURL maps a file in the video dir to its servable path.
func (t *Toolchain) VideoURL(path string) string { return "/videos/" + filepath.Base(path) }

func (t *Toolchain) withPermit(fn func() error) error {
	t.sem <- struct{}{}
	defer func() { <-t.sem }()
	return fn()
}

// run executes a tool and verifies it produced a non-empty output
// file; zero-byte or partial outputs are removed so later stages never
// see corrupt artifacts.
func (t *Toolchain) run(ctx context.Context, timeout time.Duration, outputPath, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		removeIfUseless(outputPath)
		return fmt.Errorf("%s failed: %w: %s", name, err, lastLine(out))
	}
	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		removeIfUseless(outputPath)
		return fmt.Errorf("%s produced no output at %s", name, outputPath)
	}
	return nil
}

// ExtractAudio demuxes a video into mono 16kHz WAV suitable for
// speech recognition.
func (t *Toolchain) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	out := filepath.Join(t.AudioDir(), util.ArtifactName("extracted", "wav"))
	err := t.withPermit(func() error {
		return t.run(ctx, t.cfg.FFmpegTimeout, out, "ffmpeg",
			"-i", videoPath,
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", "16000",
			"-ac", "1",
			"-y",
			out)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// MergeAudioWithVideo replaces the video's audio track with the dubbed
// one, or mixes both with the original attenuated to originalVolume.
// Output duration follows the shorter input.
func (t *Toolchain) MergeAudioWithVideo(ctx context.Context, videoPath, audioPath string, mixOriginal bool, originalVolume float64) (string, error) {
	out := filepath.Join(t.VideoDir(), util.ArtifactName("dubbed", "mp4"))
	var args []string
	if mixOriginal {
		filter := fmt.Sprintf("[0:a]volume=%g[a0];[1:a]volume=1.0[a1];[a0][a1]amix=inputs=2:duration=longest[aout]", originalVolume)
		args = []string{
			"-i", videoPath,
			"-i", audioPath,
			"-filter_complex", filter,
			"-map", "0:v",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
			"-shortest",
			"-y",
			out,
		}
	} else {
		args = []string{
			"-i", videoPath,
			"-i", audioPath,
			"-map", "0:v",
			"-map", "1:a",
			"-c:v", "copy",
			"-c:a", "aac",
			"-shortest",
			"-y",
			out,
		}
	}
	err := t.withPermit(func() error {
		return t.run(ctx, t.cfg.FFmpegTimeout, out, "ffmpeg", args...)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// ConvertAudioFormat resamples audio into the given container/format.
func (t *Toolchain) ConvertAudioFormat(ctx context.Context, inputPath, format string, sampleRate int) (string, error) {
	out := filepath.Join(t.TempDir(), util.ArtifactName("converted", format))
	err := t.withPermit(func() error {
		return t.run(ctx, t.cfg.FFmpegTimeout, out, "ffmpeg",
			"-i", inputPath,
			"-ar", strconv.Itoa(sampleRate),
			"-ac", "1",
			"-y",
			out)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// ProbeDuration returns the media duration in seconds.
func (t *Toolchain) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.FFmpegTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return 0, errors.New("ffprobe returned empty duration")
	}
	dur, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	return dur, nil
}

// Download fetches a remote video to local disk. YouTube uses yt-dlp
// with a secondary invocation forcing the android player client when
// the default extraction fails; other platforms are rejected with
// ErrUnsupportedPlatform.
func (t *Toolchain) Download(ctx context.Context, url, platform string) (string, error) {
	if platform != "youtube" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
	out := filepath.Join(t.TempDir(), util.ArtifactName("source", "mp4"))
	err := t.withPermit(func() error {
		primary := t.run(ctx, t.cfg.DownloadTimeout, out, "yt-dlp",
			"-f", "best[ext=mp4]/best",
			"-o", out,
			"--no-playlist",
			"--no-warnings",
			url)
		if primary == nil {
			return nil
		}
		log.Printf("primary download failed for %s, retrying with android client: %v", url, primary)
		return t.run(ctx, t.cfg.DownloadTimeout, out, "yt-dlp",
			"-f", "mp4/best",
			"-o", out,
			"--no-playlist",
			"--no-warnings",
			"--extractor-args", "youtube:player_client=android",
			url)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// SplitIntoChunks cuts audio into sequential fixed-length pieces for
// chunked transcription. An unprobeable duration or one shorter than
// a single chunk yields no pieces, signalling the caller to send the
// whole file in one request.
func (t *Toolchain) SplitIntoChunks(ctx context.Context, audioPath string, chunk time.Duration) ([]string, error) {
	total, err := t.ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, nil
	}
	chunkSec := chunk.Seconds()
	if total <= chunkSec {
		return nil, nil
	}
	var paths []string
	for start := 0.0; start < total; start += chunkSec {
		out := filepath.Join(t.TempDir(), util.ArtifactName("chunk", "wav"))
		err := t.withPermit(func() error {
			return t.run(ctx, t.cfg.FFmpegTimeout, out, "ffmpeg",
				"-i", audioPath,
				"-ss", fmt.Sprintf("%g", start),
				"-t", fmt.Sprintf("%g", chunkSec),
				"-ar", "16000",
				"-ac", "1",
				"-y",
				out)
		})
		if err != nil {
			// Keep what was produced so far; a short tail chunk that
			// fails should not discard the transcribable head.
			log.Printf("chunk at %gs failed: %v", start, err)
			continue
		}
		paths = append(paths, out)
	}
	return paths, nil
}

// SaveAudio writes provider-generated audio bytes under the servable
// audio dir and returns the local path and public URL.
func (t *Toolchain) SaveAudio(data []byte, ext string) (string, string, error) {
	path := filepath.Join(t.AudioDir(), util.ArtifactName("generated", ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", err
	}
	return path, t.AudioURL(path), nil
}

// Remove deletes an intermediate artifact, ignoring errors.
func (t *Toolchain) Remove(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

// SweepTemp removes temp files older than maxAge. Best-effort janitor,
// independent of any job's lifecycle.
func (t *Toolchain) SweepTemp(maxAge time.Duration) {
	entries, err := os.ReadDir(t.TempDir())
	if err != nil {
		return
	}
	now := time.Now()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(t.TempDir(), e.Name())
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			_ = os.Remove(p)
		}
	}
}

// removeIfUseless discards whatever a failed tool invocation left
// behind, including zero-byte placeholders.
func removeIfUseless(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
