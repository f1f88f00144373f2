package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-audio-extract/internal/app"
	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPrintSummary(t *testing.T) {
	outcomes := []domain.Outcome{
		domain.NewSucceededOutcome("https://youtu.be/a", "youtube_audio/A.mp3"),
		domain.NewFailedOutcome("https://youtu.be/b", "Video unavailable"),
	}
	report := &app.BatchReport{
		BatchID:  "batch-1",
		Outcomes: outcomes,
		Summary:  domain.Summarize(outcomes),
	}

	var out bytes.Buffer
	printSummary(&out, report)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "URL")
	assert.Contains(t, lines[1], "https://youtu.be/a")
	assert.Contains(t, lines[1], "succeeded")
	assert.Contains(t, lines[1], "youtube_audio/A.mp3")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[2], "Video unavailable")
	assert.Equal(t, "1 succeeded, 1 failed (batch batch-1)", lines[4])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestConfigInitAndStats(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err = execute(t, "stats", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Batches:   0")
}

func TestLogsRejectsUnknownCategory(t *testing.T) {
	_, err := execute(t, "logs", "queue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid category")
}

func TestRootRequiresURLs(t *testing.T) {
	_, err := execute(t)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogsPrintsDownloadLogVerbatim(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	config := domain.DefaultConfig()
	config.Logging.LogsDir = filepath.Join(dir, "logs")
	config.History.DatabasePath = filepath.Join(dir, "history.db")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, app.SaveConfig(config, path))

	logPath := logger.CategoryLogPath(config.Logging.LogsDir, logger.CategoryDownload, time.Now())
	require.NoError(t, os.MkdirAll(filepath.Dir(logPath), 0755))
	require.NoError(t, os.WriteFile(logPath, []byte("[ExtractAudio] Destination: out/song.mp3\n"), 0644))

	out, err := execute(t, "logs", "download", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "[ExtractAudio] Destination: out/song.mp3\n", out)
}
