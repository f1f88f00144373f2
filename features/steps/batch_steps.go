//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"

	"github.com/yourusername/yt-audio-extract/internal/app"
	"github.com/yourusername/yt-audio-extract/internal/domain"
)

// featureBackend is a scripted domain.Backend that tracks how many calls overlap
type featureBackend struct {
	mu        sync.Mutex
	titles    map[string]string
	fetchErrs map[string]string
	delays    map[string]time.Duration
	delay     time.Duration

	active int32
	peak   int32
}

func newFeatureBackend() *featureBackend {
	return &featureBackend{
		titles:    make(map[string]string),
		fetchErrs: make(map[string]string),
		delays:    make(map[string]time.Duration),
	}
}

func (b *featureBackend) begin(url string) func() {
	n := atomic.AddInt32(&b.active, 1)
	for {
		p := atomic.LoadInt32(&b.peak)
		if n <= p || atomic.CompareAndSwapInt32(&b.peak, p, n) {
			break
		}
	}

	b.mu.Lock()
	d := b.delay
	if extra, ok := b.delays[url]; ok {
		d = extra
	}
	b.mu.Unlock()
	time.Sleep(d)

	return func() { atomic.AddInt32(&b.active, -1) }
}

func (b *featureBackend) FetchTitle(ctx context.Context, url string) (string, error) {
	defer b.begin(url)()

	b.mu.Lock()
	defer b.mu.Unlock()
	if msg, ok := b.fetchErrs[url]; ok {
		return "", errors.New(msg)
	}
	if title, ok := b.titles[url]; ok {
		return title, nil
	}
	return "", fmt.Errorf("unsupported URL: %s", url)
}

func (b *featureBackend) DownloadAndTranscode(ctx context.Context, url string, opts domain.ExtractionOptions) error {
	defer b.begin(url)()
	return nil
}

type batchContext struct {
	tempDir  string
	options  domain.ExtractionOptions
	backend  *featureBackend
	outcomes []domain.Outcome
	err      error
}

// SharedBatchContext is reset before every scenario
var SharedBatchContext = &batchContext{}

func InitializeBatchScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "batch-feature-*")
		if err != nil {
			return c, err
		}

		testCtx := &batchContext{
			tempDir: tempDir,
			options: domain.DefaultExtractionOptions(),
			backend: newFeatureBackend(),
		}
		testCtx.options.OutputDirectory = filepath.Join(tempDir, domain.DefaultOutputDirectory)
		SharedBatchContext = testCtx
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedBatchContext.tempDir != "" {
			os.RemoveAll(SharedBatchContext.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a video backend with titles:$`, aVideoBackendWithTitles)
	ctx.Step(`^fetching "([^"]*)" fails with "([^"]*)"$`, fetchingFailsWith)
	ctx.Step(`^fetching "([^"]*)" takes (\d+) milliseconds$`, fetchingTakes)
	ctx.Step(`^every backend call takes (\d+) milliseconds$`, everyBackendCallTakes)
	ctx.Step(`^the output directory cannot be created$`, theOutputDirectoryCannotBeCreated)

	ctx.Step(`^I extract audio from "([^"]*)" with concurrency (-?\d+)$`, iExtractAudioFrom)

	ctx.Step(`^there should be (\d+) outcomes$`, thereShouldBeOutcomes)
	ctx.Step(`^outcome (\d+) should have succeeded with file "([^"]*)"$`, outcomeShouldHaveSucceeded)
	ctx.Step(`^outcome (\d+) should have failed with "([^"]*)"$`, outcomeShouldHaveFailed)
	ctx.Step(`^the outcome URLs should be "([^"]*)"$`, theOutcomeURLsShouldBe)
	ctx.Step(`^at most (\d+) backend calls should have run at once$`, atMostBackendCallsAtOnce)
	ctx.Step(`^the batch should fail with an environment error$`, theBatchShouldFailWithEnvironmentError)
	ctx.Step(`^the batch should fail with invalid input$`, theBatchShouldFailWithInvalidInput)
	ctx.Step(`^every outcome should have failed$`, everyOutcomeShouldHaveFailed)
}

// splitURLs parses a comma separated list; an empty string is an empty list
func splitURLs(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		urls = append(urls, strings.TrimSpace(p))
	}
	return urls
}

func aVideoBackendWithTitles(table *godog.Table) error {
	b := SharedBatchContext.backend
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		if len(row.Cells) != 2 {
			return fmt.Errorf("expected url and title columns, got %d cells", len(row.Cells))
		}
		b.titles[row.Cells[0].Value] = row.Cells[1].Value
	}
	return nil
}

func fetchingFailsWith(url, message string) error {
	SharedBatchContext.backend.fetchErrs[url] = message
	return nil
}

func fetchingTakes(url string, ms int) error {
	SharedBatchContext.backend.delays[url] = time.Duration(ms) * time.Millisecond
	return nil
}

func everyBackendCallTakes(ms int) error {
	SharedBatchContext.backend.delay = time.Duration(ms) * time.Millisecond
	return nil
}

func theOutputDirectoryCannotBeCreated() error {
	blocker := filepath.Join(SharedBatchContext.tempDir, "not-a-directory")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		return err
	}
	SharedBatchContext.options.OutputDirectory = filepath.Join(blocker, "audio")
	return nil
}

func iExtractAudioFrom(list string, concurrency int) error {
	c := SharedBatchContext
	requests, err := domain.CollectRequests(splitURLs(list))
	if err != nil {
		c.err = err
		return nil
	}

	extractor := app.NewBatchExtractor(c.options, requests, c.backend, nil)
	c.outcomes, c.err = extractor.ExtractBatch(context.Background(), concurrency)
	return nil
}

func thereShouldBeOutcomes(n int) error {
	c := SharedBatchContext
	if c.err != nil {
		return fmt.Errorf("unexpected batch error: %v", c.err)
	}
	if len(c.outcomes) != n {
		return fmt.Errorf("expected %d outcomes, got %d", n, len(c.outcomes))
	}
	return nil
}

func outcomeAt(pos int) (domain.Outcome, error) {
	c := SharedBatchContext
	if pos < 1 || pos > len(c.outcomes) {
		return domain.Outcome{}, fmt.Errorf("no outcome %d (have %d)", pos, len(c.outcomes))
	}
	return c.outcomes[pos-1], nil
}

func outcomeShouldHaveSucceeded(pos int, file string) error {
	o, err := outcomeAt(pos)
	if err != nil {
		return err
	}
	if !o.Succeeded {
		return fmt.Errorf("outcome %d failed: %s", pos, o.ErrorMessage)
	}
	expected := filepath.Join(SharedBatchContext.options.OutputDirectory, file)
	if o.FilePath != expected {
		return fmt.Errorf("expected file %q, got %q", expected, o.FilePath)
	}
	return nil
}

func outcomeShouldHaveFailed(pos int, message string) error {
	o, err := outcomeAt(pos)
	if err != nil {
		return err
	}
	if o.Succeeded {
		return fmt.Errorf("outcome %d succeeded with %s", pos, o.FilePath)
	}
	if o.ErrorMessage != message {
		return fmt.Errorf("expected error %q, got %q", message, o.ErrorMessage)
	}
	return nil
}

func theOutcomeURLsShouldBe(list string) error {
	expected := splitURLs(list)
	c := SharedBatchContext
	if len(c.outcomes) != len(expected) {
		return fmt.Errorf("expected %d outcomes, got %d", len(expected), len(c.outcomes))
	}
	for i, url := range expected {
		if c.outcomes[i].URL != url {
			return fmt.Errorf("outcome %d: expected %s, got %s", i+1, url, c.outcomes[i].URL)
		}
	}
	return nil
}

func atMostBackendCallsAtOnce(n int) error {
	peak := atomic.LoadInt32(&SharedBatchContext.backend.peak)
	if int(peak) > n {
		return fmt.Errorf("%d backend calls overlapped, limit was %d", peak, n)
	}
	return nil
}

func theBatchShouldFailWithEnvironmentError() error {
	var envErr *domain.EnvironmentError
	if !errors.As(SharedBatchContext.err, &envErr) {
		return fmt.Errorf("expected an environment error, got %v", SharedBatchContext.err)
	}
	return nil
}

func theBatchShouldFailWithInvalidInput() error {
	if !errors.Is(SharedBatchContext.err, domain.ErrInvalidInput) {
		return fmt.Errorf("expected invalid input, got %v", SharedBatchContext.err)
	}
	return nil
}

func everyOutcomeShouldHaveFailed() error {
	c := SharedBatchContext
	if len(c.outcomes) == 0 {
		return fmt.Errorf("no outcomes reported")
	}
	for i, o := range c.outcomes {
		if o.Succeeded {
			return fmt.Errorf("outcome %d succeeded", i+1)
		}
	}
	return nil
}
