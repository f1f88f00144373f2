package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "youtube_audio", config.Extraction.OutputDir)
	assert.Equal(t, "mp3", config.Extraction.AudioFormat)
	assert.Equal(t, "192", config.Extraction.AudioQuality)
	assert.Equal(t, "%(title)s.%(ext)s", config.Extraction.OutputTemplate)
	assert.Equal(t, 3, config.Extraction.Concurrency)
	assert.Zero(t, config.Extraction.RequestsPerSecond)
	assert.Equal(t, "yt-dlp", config.YTDLP.Binary)
	assert.True(t, config.History.Enabled)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "stderr", config.Logging.OutputPath)
}

func TestExtractionConfig_Options(t *testing.T) {
	opts := DefaultConfig().Extraction.Options()

	assert.Equal(t, DefaultExtractionOptions(), opts)
}
