package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

// BatchExtractor extracts audio for an ordered list of requests
type BatchExtractor struct {
	options  domain.ExtractionOptions
	requests []domain.Request
	backend  domain.Backend
	logger   *zap.Logger
	events   *logger.MultiLogger
	limiter  *rate.Limiter
	batchID  string

	mu     sync.Mutex
	states []domain.RequestState
}

// BatchOption configures optional BatchExtractor behavior
type BatchOption func(*BatchExtractor)

// WithEventLogger records batch lifecycle events in the categorized log files
func WithEventLogger(events *logger.MultiLogger) BatchOption {
	return func(b *BatchExtractor) {
		b.events = events
	}
}

// WithRequestsPerSecond spaces out backend calls; values <= 0 leave them unpaced
func WithRequestsPerSecond(rps float64) BatchOption {
	return func(b *BatchExtractor) {
		if rps > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithBatchID tags every event and log line of the batch
func WithBatchID(id string) BatchOption {
	return func(b *BatchExtractor) {
		b.batchID = id
	}
}

// NewBatchExtractor creates a batch extractor for requests.
// The request slice is copied so callers may reuse theirs.
func NewBatchExtractor(
	options domain.ExtractionOptions,
	requests []domain.Request,
	backend domain.Backend,
	log *zap.Logger,
	opts ...BatchOption,
) *BatchExtractor {
	if log == nil {
		log = zap.NewNop()
	}

	b := &BatchExtractor{
		options:  options,
		requests: append([]domain.Request(nil), requests...),
		backend:  backend,
		logger:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.batchID != "" {
		b.logger = b.logger.With(zap.String("batch_id", b.batchID))
	}
	return b
}

// ExtractOne extracts audio for a single request.
// Every failure, including a panic inside the backend, is turned into a failed outcome.
func (b *BatchExtractor) ExtractOne(ctx context.Context, request domain.Request) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = b.fail(request, fmt.Errorf("backend panic: %v", r))
		}
	}()

	if err := ensureOutputDirectory(b.options.OutputDirectory); err != nil {
		return b.fail(request, err)
	}

	title, err := b.backend.FetchTitle(ctx, request.URL)
	if err != nil {
		return b.fail(request, err)
	}

	b.logger.Info("Extracting audio",
		zap.String("url", request.URL),
		zap.String("title", title))

	if err := b.backend.DownloadAndTranscode(ctx, request.URL, b.options); err != nil {
		return b.fail(request, err)
	}

	outcome = domain.NewSucceededOutcome(request.URL, b.options.OutputPathFor(title))
	b.logEvent("extraction_succeeded",
		zap.String("url", request.URL),
		zap.String("file_path", outcome.FilePath))
	return outcome
}

// ExtractBatch extracts audio for every held request with at most maxConcurrency
// extractions in flight. Outcomes are returned in request order. A failure of one
// request never stops the others; only an unusable output directory aborts the
// batch, in which case every request is reported failed alongside the error.
func (b *BatchExtractor) ExtractBatch(ctx context.Context, maxConcurrency int) ([]domain.Outcome, error) {
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidConcurrency, maxConcurrency)
	}

	outcomes := make([]domain.Outcome, len(b.requests))
	b.resetStates()

	b.logEvent("batch_started",
		zap.Int("requests", len(b.requests)),
		zap.Int("max_concurrency", maxConcurrency),
		zap.String("output_dir", b.options.OutputDirectory))

	if err := ensureOutputDirectory(b.options.OutputDirectory); err != nil {
		envErr := &domain.EnvironmentError{Path: b.options.OutputDirectory, Err: err}
		b.logger.Error("Batch aborted", zap.Error(envErr))
		if b.events != nil {
			b.events.LogAppError("Batch aborted", zap.String("batch_id", b.batchID), zap.Error(envErr))
		}
		for i, request := range b.requests {
			outcomes[i] = domain.NewFailedOutcome(request.URL, envErr.Error())
			b.setState(i, request, domain.StateFailed)
		}
		return outcomes, envErr
	}

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, request := range b.requests {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, request domain.Request) {
			defer wg.Done()
			defer func() { <-sem }()

			b.setState(i, request, domain.StateRunning)
			b.logEvent("extraction_started",
				zap.Int("position", i),
				zap.String("url", request.URL))

			outcomes[i] = b.run(ctx, request)
			if outcomes[i].Succeeded {
				b.setState(i, request, domain.StateSucceeded)
			} else {
				b.setState(i, request, domain.StateFailed)
			}
		}(i, request)
	}
	wg.Wait()

	if unfinished := b.unfinished(); unfinished > 0 {
		b.logger.Warn("Requests left without a final state", zap.Int("count", unfinished))
	}

	summary := domain.Summarize(outcomes)
	b.logEvent("batch_completed",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))

	return outcomes, nil
}

// run paces the request when a limiter is configured, then extracts it
func (b *BatchExtractor) run(ctx context.Context, request domain.Request) domain.Outcome {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return b.fail(request, err)
		}
	}
	return b.ExtractOne(ctx, request)
}

func (b *BatchExtractor) resetStates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states = make([]domain.RequestState, len(b.requests))
	for i := range b.states {
		b.states[i] = domain.StatePending
	}
}

// setState moves the request at position i to next and records the change.
// Terminal states are final; invalid moves are logged and ignored.
func (b *BatchExtractor) setState(i int, request domain.Request, next domain.RequestState) {
	b.mu.Lock()
	current := b.states[i]
	ok := !current.IsTerminal() && current.CanTransition(next)
	if ok {
		b.states[i] = next
	}
	b.mu.Unlock()

	if !ok {
		b.logger.Warn("Ignoring invalid request state change",
			zap.Int("position", i),
			zap.String("from", string(current)),
			zap.String("to", string(next)))
		return
	}
	b.logEvent("request_state",
		zap.Int("position", i),
		zap.String("url", request.URL),
		zap.String("from", string(current)),
		zap.String("to", string(next)))
}

func (b *BatchExtractor) unfinished() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, state := range b.states {
		if !state.IsTerminal() {
			n++
		}
	}
	return n
}

func (b *BatchExtractor) fail(request domain.Request, err error) domain.Outcome {
	message := err.Error()
	b.logger.Error(fmt.Sprintf("Failed to extract audio from %s: %s", request.URL, message),
		zap.String("url", request.URL))

	if b.events != nil {
		b.events.LogBatchEvent("extraction_failed",
			zap.String("batch_id", b.batchID),
			zap.String("url", request.URL),
			zap.String("error", message))
		b.events.LogAppError("Failed to extract audio",
			zap.String("batch_id", b.batchID),
			zap.String("url", request.URL),
			zap.String("error", message))
	}
	return domain.NewFailedOutcome(request.URL, message)
}

func (b *BatchExtractor) logEvent(event string, fields ...zap.Field) {
	if b.events == nil {
		return
	}
	b.events.LogBatchEvent(event, append(fields, zap.String("batch_id", b.batchID))...)
}

// ensureOutputDirectory creates dir and its parents; an existing directory is fine
func ensureOutputDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
