package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

// YTDLPBackend implements domain.Backend on top of yt-dlp, which runs ffmpeg to transcode
type YTDLPBackend struct {
	config      *domain.YTDLPConfig
	logsDir     string
	eventLogger *logger.MultiLogger // For structured events only (LogAppError)
	logMu       sync.Mutex
}

// NewYTDLPBackend creates a new yt-dlp backend. Raw yt-dlp output of every run is
// appended to download-YYYYMMDD.log in logsDir; an empty logsDir disables it.
func NewYTDLPBackend(config *domain.YTDLPConfig, logsDir string, eventLogger *logger.MultiLogger) *YTDLPBackend {
	return &YTDLPBackend{
		config:      config,
		logsDir:     logsDir,
		eventLogger: eventLogger,
	}
}

// InstallTools downloads yt-dlp and ffmpeg into the go-ytdlp cache when they are not on PATH
func InstallTools(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	if _, err := ytdlp.InstallFFmpeg(ctx, nil); err != nil {
		return fmt.Errorf("failed to install ffmpeg: %w", err)
	}
	return nil
}

// FetchTitle reads the video metadata without downloading anything
func (b *YTDLPBackend) FetchTitle(ctx context.Context, url string) (string, error) {
	cmd := b.newCommand().
		SkipDownload().
		PrintJSON()

	result, err := cmd.Run(ctx, url)
	b.writeRunLog(url, "fetch title", result, err)
	if err != nil {
		return "", domain.NewBackendError(url, "fetch title", err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return "", domain.NewBackendError(url, "fetch title", fmt.Errorf("failed to parse metadata: %w", err))
	}

	for _, info := range infos {
		if info != nil && info.Title != nil && *info.Title != "" {
			return *info.Title, nil
		}
	}
	return "", domain.NewBackendError(url, "fetch title", errors.New("no title in video metadata"))
}

// DownloadAndTranscode downloads the best audio stream and converts it as described by opts
func (b *YTDLPBackend) DownloadAndTranscode(ctx context.Context, url string, opts domain.ExtractionOptions) error {
	cmd := b.newCommand().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(opts.AudioFormat).
		AudioQuality(opts.AudioQuality).
		Output(opts.OutputTemplatePath())

	result, err := cmd.Run(ctx, url)
	b.writeRunLog(url, "download", result, err)
	if err != nil {
		if b.eventLogger != nil {
			b.eventLogger.LogAppError("yt-dlp download failed",
				zap.String("url", url),
				zap.Error(err))
		}
		return domain.NewBackendError(url, "download", err)
	}
	return nil
}

// newCommand builds the options shared by every yt-dlp invocation
func (b *YTDLPBackend) newCommand() *ytdlp.Command {
	cmd := ytdlp.New().NoPlaylist()

	if b.config.Binary != "" {
		cmd = cmd.SetExecutable(b.config.Binary)
	}
	if b.config.FFmpegLocation != "" {
		cmd = cmd.FFmpegLocation(b.config.FFmpegLocation)
	}
	if b.config.CookieFile != "" && fileExists(b.config.CookieFile) {
		cmd = cmd.Cookies(b.config.CookieFile)
	}
	if b.config.NoWarnings {
		cmd = cmd.NoWarnings()
	}
	return cmd
}

// writeRunLog appends the command line, its output and a status footer to the daily download log
func (b *YTDLPBackend) writeRunLog(url, op string, result *ytdlp.Result, runErr error) {
	if b.logsDir == "" {
		return
	}

	b.logMu.Lock()
	defer b.logMu.Unlock()

	file, err := b.openLogFile()
	if err != nil {
		if b.eventLogger != nil {
			b.eventLogger.LogAppError("Failed to open download log", zap.Error(err))
		}
		return
	}
	defer file.Close()

	cmdLine := b.config.Binary
	if result != nil {
		cmdLine = ShellEscapeCommand(result.Executable, result.Args...)
	}
	writeLogHeader(file, op+" "+url, cmdLine)

	if result != nil {
		if out := strings.TrimSpace(result.Stdout); out != "" && op != "fetch title" {
			fmt.Fprintln(file, out)
		}
		if errOut := strings.TrimSpace(result.Stderr); errOut != "" {
			fmt.Fprintln(file, errOut)
		}
	}

	if runErr != nil {
		writeLogFooter(file, false, runErr.Error())
		return
	}
	writeLogFooter(file, true, op+" finished")
}

// openLogFile opens the download log file for today
func (b *YTDLPBackend) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(b.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	return os.OpenFile(DownloadLogPath(b.logsDir, time.Now()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// DownloadLogPath returns the raw yt-dlp output log of date inside logsDir
func DownloadLogPath(logsDir string, date time.Time) string {
	return logger.CategoryLogPath(logsDir, logger.CategoryDownload, date)
}

func writeLogHeader(file *os.File, title, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] %s ===\n", timestamp, title)
	fmt.Fprintf(file, "$ %s\n", cmdLine)
}

func writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(file, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(file, "=== END ===\n\n")
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
