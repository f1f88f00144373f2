package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/internal/infrastructure"
	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

// BatchReport is the result of one batch run
type BatchReport struct {
	BatchID  string           `json:"batch_id"`
	Outcomes []domain.Outcome `json:"outcomes"`
	Summary  domain.Summary   `json:"summary"`
}

// ExtractionService runs batches and takes care of history and notifications around them
type ExtractionService struct {
	backend  domain.Backend
	config   *domain.ExtractionConfig
	repo     domain.OutcomeRepository
	notifier *infrastructure.NotificationService
	events   *logger.MultiLogger
	logger   *zap.Logger
}

// NewExtractionService creates a new extraction service.
// repo, notifier and events are optional and may be nil.
func NewExtractionService(
	backend domain.Backend,
	config *domain.ExtractionConfig,
	repo domain.OutcomeRepository,
	notifier *infrastructure.NotificationService,
	events *logger.MultiLogger,
	log *zap.Logger,
) *ExtractionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExtractionService{
		backend:  backend,
		config:   config,
		repo:     repo,
		notifier: notifier,
		events:   events,
		logger:   log,
	}
}

// Run extracts audio for urls. concurrency <= 0 selects the configured default.
// The report is returned even when the batch aborts, together with the error.
func (s *ExtractionService) Run(ctx context.Context, urls []string, concurrency int) (*BatchReport, error) {
	requests, err := domain.CollectRequests(urls)
	if err != nil {
		return nil, err
	}

	if concurrency <= 0 {
		concurrency = s.config.Concurrency
	}
	if concurrency <= 0 {
		concurrency = domain.DefaultConcurrency
	}

	batchID := uuid.New().String()
	opts := []BatchOption{
		WithBatchID(batchID),
		WithRequestsPerSecond(s.config.RequestsPerSecond),
	}
	if s.events != nil {
		opts = append(opts, WithEventLogger(s.events))
	}

	extractor := NewBatchExtractor(s.config.Options(), requests, s.backend, s.logger, opts...)
	outcomes, batchErr := extractor.ExtractBatch(ctx, concurrency)

	report := &BatchReport{
		BatchID:  batchID,
		Outcomes: outcomes,
		Summary:  domain.Summarize(outcomes),
	}

	s.recordHistory(report)
	s.notify(report, batchErr)

	return report, batchErr
}

// recordHistory stores the outcomes; a failing store never fails the batch
func (s *ExtractionService) recordHistory(report *BatchReport) {
	if s.repo == nil || len(report.Outcomes) == 0 {
		return
	}

	records := domain.NewBatchRecords(report.BatchID, report.Outcomes, time.Now())

	if err := s.repo.SaveBatch(records); err != nil {
		s.logger.Warn("Failed to record batch history",
			zap.String("batch_id", report.BatchID),
			zap.Error(err))
	}
}

func (s *ExtractionService) notify(report *BatchReport, batchErr error) {
	if s.notifier == nil {
		return
	}
	if batchErr != nil {
		s.notifier.NotifyBatchAborted(batchErr)
		return
	}
	s.notifier.NotifyBatchCompleted(report.Summary)
}
