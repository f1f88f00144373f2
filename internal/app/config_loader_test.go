package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-audio-extract/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultOutputDirectory, config.Extraction.OutputDir)
	assert.Equal(t, domain.DefaultConcurrency, config.Extraction.Concurrency)
	assert.Equal(t, "mp3", config.Extraction.AudioFormat)
	assert.Equal(t, filepath.Join(home, ".yt-audio", "history.db"), config.History.DatabasePath)
	assert.Equal(t, filepath.Join(home, ".yt-audio", "logs"), config.Logging.LogsDir)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfigFile(t, `
extraction:
  output_dir: /tmp/music
  audio_quality: "320"
  concurrency: 5
  requests_per_second: 0.5
ytdlp:
  binary: /usr/local/bin/yt-dlp
history:
  enabled: false
server:
  port: 9000
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/music", config.Extraction.OutputDir)
	assert.Equal(t, "320", config.Extraction.AudioQuality)
	assert.Equal(t, "mp3", config.Extraction.AudioFormat)
	assert.Equal(t, 5, config.Extraction.Concurrency)
	assert.Equal(t, 0.5, config.Extraction.RequestsPerSecond)
	assert.Equal(t, "/usr/local/bin/yt-dlp", config.YTDLP.Binary)
	assert.False(t, config.History.Enabled)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("YTAUDIO_EXTRACTION_CONCURRENCY", "7")
	path := writeConfigFile(t, "extraction:\n  concurrency: 2\n")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, config.Extraction.Concurrency)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "zero concurrency", content: "extraction:\n  concurrency: 0\n", errMsg: "concurrency must be at least 1"},
		{name: "negative rate", content: "extraction:\n  requests_per_second: -1\n", errMsg: "requests per second cannot be negative"},
		{name: "empty format", content: "extraction:\n  audio_format: \"\"\n", errMsg: "audio format not configured"},
		{name: "bad port", content: "server:\n  port: 70000\n", errMsg: "invalid server port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config := domain.DefaultConfig()
	config.Extraction.OutputDir = "/srv/audio"
	config.Extraction.Concurrency = 4
	config.Notification.Enabled = true
	config.Notification.Method = "osascript"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/audio", loaded.Extraction.OutputDir)
	assert.Equal(t, 4, loaded.Extraction.Concurrency)
	assert.True(t, loaded.Notification.Enabled)
	assert.Equal(t, "osascript", loaded.Notification.Method)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("YTAUDIO_TEST_DIR", "/data")

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, filepath.Join(home, "music"), expandPath("~/music"))
	assert.Equal(t, "/data/music", expandPath("$YTAUDIO_TEST_DIR/music"))
	assert.Equal(t, "relative/dir", expandPath("relative/dir"))
}
