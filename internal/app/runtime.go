package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/internal/infrastructure"
	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

// Runtime holds the wired components shared by the CLI and the server
type Runtime struct {
	Config  *domain.Config
	Logger  *zap.Logger
	Events  *logger.MultiLogger                     // nil when no logs directory is configured
	Repo    *infrastructure.SQLiteOutcomeRepository // nil when history is disabled or unavailable
	Service *ExtractionService
}

// NewRuntime builds loggers, history store, backend and extraction service from config.
// installTools forces yt-dlp and ffmpeg installation regardless of ytdlp.auto_install.
func NewRuntime(ctx context.Context, config *domain.Config, installTools bool) (*Runtime, error) {
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &Runtime{Config: config, Logger: log}

	if config.Logging.LogsDir != "" {
		events, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Logging.LogsDir,
		})
		if err != nil {
			log.Warn("Event logs disabled", zap.Error(err))
		} else {
			rt.Events = events
		}
	}

	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteOutcomeRepository(config.History.DatabasePath)
		if err != nil {
			log.Warn("History disabled, outcomes will not be recorded",
				zap.String("database_path", config.History.DatabasePath),
				zap.Error(err))
		} else {
			rt.Repo = repo
		}
	}

	if installTools || config.YTDLP.AutoInstall {
		log.Info("Installing yt-dlp and ffmpeg")
		if err := infrastructure.InstallTools(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}

	backend := infrastructure.NewYTDLPBackend(&config.YTDLP, config.Logging.LogsDir, rt.Events)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	rt.Service = NewExtractionService(backend, &config.Extraction, rt.History(), notifier, rt.Events, log)

	return rt, nil
}

// History returns the outcome repository, or nil when history is disabled
func (r *Runtime) History() domain.OutcomeRepository {
	if r.Repo == nil {
		return nil
	}
	return r.Repo
}

// Close releases the history store and flushes every logger
func (r *Runtime) Close() {
	if r.Repo != nil {
		if err := r.Repo.Close(); err != nil {
			r.Logger.Warn("Failed to close history", zap.Error(err))
		}
	}
	if r.Events != nil {
		r.Events.Close()
	}
	r.Logger.Sync()
}
