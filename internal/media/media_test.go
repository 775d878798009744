package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolchain(t *testing.T) *Toolchain {
	t.Helper()
	return New(Config{PublicDir: t.TempDir(), FFmpegTimeout: time.Minute, DownloadTimeout: time.Minute}, 2)
}

func TestNewCreatesServableDirs(t *testing.T) {
	tc := newToolchain(t)
	for _, dir := range []string{tc.TempDir(), tc.AudioDir(), tc.VideoDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSaveAudio(t *testing.T) {
	tc := newToolchain(t)
	path, url, err := tc.SaveAudio([]byte("audio-bytes"), "mp3")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)
	assert.Equal(t, "/audio/"+filepath.Base(path), url)
}

func TestPublicURLs(t *testing.T) {
	tc := newToolchain(t)
	assert.Equal(t, "/audio/generated_1.mp3", tc.AudioURL("/some/dir/generated_1.mp3"))
	assert.Equal(t, "/videos/dubbed_1.mp4", tc.VideoURL("/some/dir/dubbed_1.mp4"))
}

func TestRemoveToleratesMissingFiles(t *testing.T) {
	tc := newToolchain(t)
	tc.Remove("")
	tc.Remove("/does/not/exist")
}

func TestSweepTempRemovesOnlyStaleFiles(t *testing.T) {
	tc := newToolchain(t)

	stale := filepath.Join(tc.TempDir(), "stale.mp4")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(tc.TempDir(), "fresh.mp4")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	tc.SweepTemp(time.Hour)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale file should be swept")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh file should survive")
}

func TestDownloadRejectsUnsupportedPlatform(t *testing.T) {
	tc := newToolchain(t)
	_, err := tc.Download(context.Background(), "https://vimeo.com/123", "vimeo")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "final error", lastLine([]byte("line one\nline two\nfinal error\n")))
	assert.Equal(t, "", lastLine(nil))
}
