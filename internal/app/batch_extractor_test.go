package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

// stubBackend implements domain.Backend for testing
type stubBackend struct {
	titles    map[string]string
	fetchErrs map[string]error
	dlErrs    map[string]error
	panicOn   string
	delay     func(url string) time.Duration

	mu        sync.Mutex
	downloads []string

	active    int32
	maxActive int32
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		titles:    make(map[string]string),
		fetchErrs: make(map[string]error),
		dlErrs:    make(map[string]error),
	}
}

func (s *stubBackend) enter() {
	n := atomic.AddInt32(&s.active, 1)
	for {
		peak := atomic.LoadInt32(&s.maxActive)
		if n <= peak || atomic.CompareAndSwapInt32(&s.maxActive, peak, n) {
			return
		}
	}
}

func (s *stubBackend) leave() {
	atomic.AddInt32(&s.active, -1)
}

func (s *stubBackend) sleep(url string) {
	if s.delay != nil {
		time.Sleep(s.delay(url))
	}
}

func (s *stubBackend) FetchTitle(ctx context.Context, url string) (string, error) {
	s.enter()
	defer s.leave()
	s.sleep(url)

	if url == s.panicOn {
		panic("extractor crashed")
	}
	if err, ok := s.fetchErrs[url]; ok {
		return "", err
	}
	if title, ok := s.titles[url]; ok {
		return title, nil
	}
	return "title-" + filepath.Base(url), nil
}

func (s *stubBackend) DownloadAndTranscode(ctx context.Context, url string, opts domain.ExtractionOptions) error {
	s.enter()
	defer s.leave()
	s.sleep(url)

	s.mu.Lock()
	s.downloads = append(s.downloads, url)
	s.mu.Unlock()

	if err, ok := s.dlErrs[url]; ok {
		return err
	}
	return nil
}

func (s *stubBackend) downloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.downloads)
}

func testOptions(t *testing.T) domain.ExtractionOptions {
	t.Helper()
	opts := domain.DefaultExtractionOptions()
	opts.OutputDirectory = filepath.Join(t.TempDir(), "youtube_audio")
	return opts
}

func requestsFor(t *testing.T, urls ...string) []domain.Request {
	t.Helper()
	requests, err := domain.CollectRequests(urls)
	require.NoError(t, err)
	return requests
}

func urlList(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://www.youtube.com/watch?v=%03d", i)
	}
	return urls
}

func TestExtractBatch_AllSucceed(t *testing.T) {
	opts := testOptions(t)
	backend := newStubBackend()
	backend.titles["urlA"] = "A"
	backend.titles["urlB"] = "B"

	extractor := NewBatchExtractor(opts, requestsFor(t, "urlA", "urlB"), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, []domain.Outcome{
		{URL: "urlA", Succeeded: true, FilePath: filepath.Join(opts.OutputDirectory, "A.mp3")},
		{URL: "urlB", Succeeded: true, FilePath: filepath.Join(opts.OutputDirectory, "B.mp3")},
	}, outcomes)
	assert.DirExists(t, opts.OutputDirectory)
}

func TestExtractBatch_BackendFailure(t *testing.T) {
	backend := newStubBackend()
	backend.fetchErrs["urlBad"] = domain.NewBackendError("urlBad", "fetch title", errors.New("network down"))

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, "urlBad"), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, []domain.Outcome{
		{URL: "urlBad", Succeeded: false, ErrorMessage: "network down"},
	}, outcomes)
	assert.Zero(t, backend.downloadCount(), "download must not run after a failed title fetch")
}

func TestExtractBatch_LengthMatchesInput(t *testing.T) {
	for _, n := range []int{1, 2, 7, 20} {
		t.Run(fmt.Sprintf("%d urls", n), func(t *testing.T) {
			backend := newStubBackend()
			extractor := NewBatchExtractor(testOptions(t), requestsFor(t, urlList(n)...), backend, nil)

			outcomes, err := extractor.ExtractBatch(context.Background(), 3)

			require.NoError(t, err)
			assert.Len(t, outcomes, n)
		})
	}
}

func TestExtractBatch_PreservesInputOrder(t *testing.T) {
	urls := urlList(12)
	rng := rand.New(rand.NewSource(42))
	delays := make(map[string]time.Duration, len(urls))
	for _, u := range urls {
		delays[u] = time.Duration(rng.Intn(15)) * time.Millisecond
	}

	backend := newStubBackend()
	backend.delay = func(url string) time.Duration { return delays[url] }
	// make some later URLs fail so order is checked on both kinds of outcome
	backend.dlErrs[urls[3]] = errors.New("transcode failed")
	backend.dlErrs[urls[10]] = errors.New("transcode failed")

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, urls...), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, outcomes, len(urls))
	for i, u := range urls {
		assert.Equal(t, u, outcomes[i].URL, "outcome %d out of order", i)
	}
	assert.False(t, outcomes[3].Succeeded)
	assert.False(t, outcomes[10].Succeeded)
}

func TestExtractBatch_OutcomeInvariant(t *testing.T) {
	urls := urlList(6)
	backend := newStubBackend()
	backend.fetchErrs[urls[1]] = errors.New("video unavailable")
	backend.dlErrs[urls[4]] = errors.New("ffmpeg not found")

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, urls...), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 2)

	require.NoError(t, err)
	for _, o := range outcomes {
		assert.True(t, o.Valid(), "invalid outcome %+v", o)
		if o.Succeeded {
			assert.NotEmpty(t, o.FilePath)
			assert.Empty(t, o.ErrorMessage)
		} else {
			assert.Empty(t, o.FilePath)
			assert.NotEmpty(t, o.ErrorMessage)
		}
	}
}

func TestExtractBatch_FailureIsIsolated(t *testing.T) {
	backend := newStubBackend()
	backend.dlErrs["url2"] = domain.NewBackendError("url2", "download", errors.New("HTTP Error 403"))

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, "url1", "url2", "url3"), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Succeeded)
	assert.False(t, outcomes[1].Succeeded)
	assert.Equal(t, "HTTP Error 403", outcomes[1].ErrorMessage)
	assert.True(t, outcomes[2].Succeeded)
}

func TestExtractBatch_RespectsConcurrencyBound(t *testing.T) {
	backend := newStubBackend()
	backend.delay = func(string) time.Duration { return 20 * time.Millisecond }

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, urlList(5)...), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 2)

	require.NoError(t, err)
	assert.Len(t, outcomes, 5)
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.maxActive))
}

func TestExtractBatch_SequentialWithOneWorker(t *testing.T) {
	backend := newStubBackend()
	backend.delay = func(string) time.Duration { return 2 * time.Millisecond }

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, urlList(4)...), backend, nil)
	_, err := extractor.ExtractBatch(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.maxActive))
}

func TestExtractBatch_RejectsNonPositiveConcurrency(t *testing.T) {
	backend := newStubBackend()
	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, "urlA"), backend, nil)

	for _, n := range []int{0, -1} {
		outcomes, err := extractor.ExtractBatch(context.Background(), n)
		assert.ErrorIs(t, err, domain.ErrInvalidConcurrency)
		assert.Nil(t, outcomes)
	}
	assert.Zero(t, backend.downloadCount())
}

func TestExtractBatch_OutputDirectoryIsIdempotent(t *testing.T) {
	opts := testOptions(t)
	backend := newStubBackend()
	extractor := NewBatchExtractor(opts, requestsFor(t, "urlA", "urlB"), backend, nil)

	_, err := extractor.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)

	outcomes, err := extractor.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.True(t, o.Succeeded)
	}
}

func TestExtractBatch_EnvironmentErrorAbortsBatch(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	opts := domain.DefaultExtractionOptions()
	opts.OutputDirectory = filepath.Join(blocker, "youtube_audio")

	backend := newStubBackend()
	extractor := NewBatchExtractor(opts, requestsFor(t, "urlA", "urlB"), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 2)

	var envErr *domain.EnvironmentError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, opts.OutputDirectory, envErr.Path)

	require.Len(t, outcomes, 2)
	for i, o := range outcomes {
		assert.Equal(t, []string{"urlA", "urlB"}[i], o.URL)
		assert.False(t, o.Succeeded)
		assert.Equal(t, envErr.Error(), o.ErrorMessage)
	}
	assert.Zero(t, backend.downloadCount())
}

func TestExtractOne_RecoversBackendPanic(t *testing.T) {
	backend := newStubBackend()
	backend.panicOn = "urlBoom"

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, "urlOK", "urlBoom"), backend, nil)
	outcomes, err := extractor.ExtractBatch(context.Background(), 2)

	require.NoError(t, err)
	assert.True(t, outcomes[0].Succeeded)
	assert.False(t, outcomes[1].Succeeded)
	assert.Contains(t, outcomes[1].ErrorMessage, "extractor crashed")
}

func TestExtractOne_LogsSingleErrorLine(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	backend := newStubBackend()
	backend.fetchErrs["urlBad"] = errors.New("network down")

	extractor := NewBatchExtractor(testOptions(t), nil, backend, zap.New(core))
	outcome := extractor.ExtractOne(context.Background(), domain.Request{URL: "urlBad"})

	assert.False(t, outcome.Succeeded)
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "urlBad")
	assert.Contains(t, entries[0].Message, "network down")
}

func TestExtractOne_SuccessPath(t *testing.T) {
	opts := testOptions(t)
	backend := newStubBackend()
	backend.titles["urlA"] = "Song A"

	extractor := NewBatchExtractor(opts, nil, backend, nil)
	outcome := extractor.ExtractOne(context.Background(), domain.Request{URL: "urlA"})

	assert.Equal(t, domain.NewSucceededOutcome("urlA", filepath.Join(opts.OutputDirectory, "Song A.mp3")), outcome)
	assert.Equal(t, []string{"urlA"}, backend.downloads)
}

func TestNewBatchExtractor_CopiesRequests(t *testing.T) {
	requests := requestsFor(t, "urlA")
	extractor := NewBatchExtractor(testOptions(t), requests, newStubBackend(), nil)

	requests[0].URL = "mutated"

	outcomes, err := extractor.ExtractBatch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "urlA", outcomes[0].URL)
}

func TestExtractBatch_WithRequestsPerSecond(t *testing.T) {
	backend := newStubBackend()
	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, urlList(3)...), backend, nil,
		WithRequestsPerSecond(500))

	outcomes, err := extractor.ExtractBatch(context.Background(), 3)

	require.NoError(t, err)
	for _, o := range outcomes {
		assert.True(t, o.Succeeded)
	}
}

func TestExtractBatch_WritesBatchEvents(t *testing.T) {
	logsDir := t.TempDir()
	events, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: logsDir})
	require.NoError(t, err)

	backend := newStubBackend()
	backend.dlErrs["urlB"] = errors.New("network down")

	extractor := NewBatchExtractor(testOptions(t), requestsFor(t, "urlA", "urlB"), backend, nil,
		WithEventLogger(events), WithBatchID("batch-1"))
	_, err = extractor.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, events.Close())

	reader := logger.NewLogReader(logsDir)
	entries, err := reader.ReadLogs(logger.CategoryBatch, time.Now(), 0)
	require.NoError(t, err)

	var messages []string
	finalStates := make(map[string]interface{})
	for _, e := range entries {
		messages = append(messages, e.Message)
		assert.Equal(t, "batch-1", e.Fields["batch_id"])
		if e.Message == "request_state" {
			url, _ := e.Fields["url"].(string)
			finalStates[url] = e.Fields["to"]
		}
	}
	assert.Equal(t, "succeeded", finalStates["urlA"])
	assert.Equal(t, "failed", finalStates["urlB"])
	assert.Equal(t, "batch_started", messages[0])
	assert.Equal(t, "batch_completed", messages[len(messages)-1])
	assert.Contains(t, messages, "extraction_succeeded")
	assert.Contains(t, messages, "extraction_failed")

	errs, err := reader.SearchLogs(logger.CategoryError, time.Now(), "urlB", 0)
	require.NoError(t, err)
	assert.Len(t, errs, 1)
}
