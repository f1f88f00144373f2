//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/yourusername/yt-audio-extract/internal/app"
	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/internal/infrastructure"
)

// rejectingRepo is an OutcomeRepository whose writes always fail
type rejectingRepo struct{}

func (rejectingRepo) SaveBatch(records []*domain.OutcomeRecord) error {
	return errors.New("database is locked")
}

func (rejectingRepo) FindByBatch(batchID string) ([]*domain.OutcomeRecord, error) {
	return nil, nil
}

func (rejectingRepo) FindRecent(filter domain.HistoryFilter) ([]*domain.OutcomeRecord, error) {
	return nil, nil
}

func (rejectingRepo) GetStats() (*domain.HistoryStats, error) {
	return &domain.HistoryStats{}, nil
}

type historyContext struct {
	tempDir string
	sqlite  *infrastructure.SQLiteOutcomeRepository
	repo    domain.OutcomeRepository
	report  *app.BatchReport
	err     error
}

// SharedHistoryContext is reset before every scenario
var SharedHistoryContext = &historyContext{}

func InitializeHistoryScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedHistoryContext = &historyContext{}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		h := SharedHistoryContext
		if h.sqlite != nil {
			h.sqlite.Close()
		}
		if h.tempDir != "" {
			os.RemoveAll(h.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a history database$`, aHistoryDatabase)
	ctx.Step(`^a history database that rejects writes$`, aHistoryDatabaseThatRejectsWrites)
	ctx.Step(`^I run a recorded batch for "([^"]*)"$`, iRunARecordedBatchFor)
	ctx.Step(`^the history should contain (\d+) outcomes for the batch$`, theHistoryShouldContainOutcomes)
	ctx.Step(`^history stats should show (\d+) succeeded and (\d+) failed$`, historyStatsShouldShow)
	ctx.Step(`^the recorded batch should have (\d+) succeeded outcome$`, theRecordedBatchShouldHaveSucceeded)
}

func aHistoryDatabase() error {
	tempDir, err := os.MkdirTemp("", "history-feature-*")
	if err != nil {
		return err
	}
	SharedHistoryContext.tempDir = tempDir

	repo, err := infrastructure.NewSQLiteOutcomeRepository(filepath.Join(tempDir, "history.db"))
	if err != nil {
		return err
	}
	SharedHistoryContext.sqlite = repo
	SharedHistoryContext.repo = repo
	return nil
}

func aHistoryDatabaseThatRejectsWrites() error {
	SharedHistoryContext.repo = rejectingRepo{}
	return nil
}

func iRunARecordedBatchFor(list string) error {
	h := SharedHistoryContext
	config := domain.DefaultConfig().Extraction
	config.OutputDir = SharedBatchContext.options.OutputDirectory

	service := app.NewExtractionService(SharedBatchContext.backend, &config, h.repo, nil, nil, nil)
	h.report, h.err = service.Run(context.Background(), splitURLs(list), 2)
	return nil
}

func theHistoryShouldContainOutcomes(n int) error {
	h := SharedHistoryContext
	if h.err != nil {
		return fmt.Errorf("unexpected batch error: %v", h.err)
	}

	records, err := h.repo.FindByBatch(h.report.BatchID)
	if err != nil {
		return err
	}
	if len(records) != n {
		return fmt.Errorf("expected %d records, got %d", n, len(records))
	}
	for i, r := range records {
		if r.Outcome() != h.report.Outcomes[i] {
			return fmt.Errorf("record %d does not match outcome %d", i, i)
		}
	}
	return nil
}

func historyStatsShouldShow(succeeded, failed int) error {
	stats, err := SharedHistoryContext.repo.GetStats()
	if err != nil {
		return err
	}
	if stats.Succeeded != int64(succeeded) || stats.Failed != int64(failed) {
		return fmt.Errorf("expected %d/%d, got %d/%d", succeeded, failed, stats.Succeeded, stats.Failed)
	}
	return nil
}

func theRecordedBatchShouldHaveSucceeded(n int) error {
	h := SharedHistoryContext
	if h.err != nil {
		return fmt.Errorf("unexpected batch error: %v", h.err)
	}
	if h.report.Summary.Succeeded != n {
		return fmt.Errorf("expected %d succeeded, got %d", n, h.report.Summary.Succeeded)
	}
	return nil
}
