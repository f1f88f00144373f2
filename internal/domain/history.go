package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeRecord is a persisted outcome of a past batch
type OutcomeRecord struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	BatchID      string    `json:"batch_id" gorm:"not null;index"`
	Position     int       `json:"position"`
	URL          string    `json:"url" gorm:"not null;index"`
	Succeeded    bool      `json:"succeeded" gorm:"index"`
	FilePath     string    `json:"file_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for GORM
func (OutcomeRecord) TableName() string {
	return "outcomes"
}

// NewOutcomeRecord creates a record of the outcome at position within batchID
func NewOutcomeRecord(batchID string, position int, outcome Outcome) *OutcomeRecord {
	return &OutcomeRecord{
		ID:           uuid.New().String(),
		BatchID:      batchID,
		Position:     position,
		URL:          outcome.URL,
		Succeeded:    outcome.Succeeded,
		FilePath:     outcome.FilePath,
		ErrorMessage: outcome.ErrorMessage,
		CreatedAt:    time.Now(),
	}
}

// NewBatchRecords creates the records of one batch in input order.
// Every record shares createdAt so newest-first listings keep the batch in position order.
func NewBatchRecords(batchID string, outcomes []Outcome, createdAt time.Time) []*OutcomeRecord {
	records := make([]*OutcomeRecord, 0, len(outcomes))
	for i, outcome := range outcomes {
		record := NewOutcomeRecord(batchID, i, outcome)
		record.CreatedAt = createdAt
		records = append(records, record)
	}
	return records
}

// Outcome converts the record back to an outcome
func (r *OutcomeRecord) Outcome() Outcome {
	if r.Succeeded {
		return NewSucceededOutcome(r.URL, r.FilePath)
	}
	return NewFailedOutcome(r.URL, r.ErrorMessage)
}

// HistoryFilter narrows history queries
type HistoryFilter struct {
	BatchID string
	State   RequestState // StateSucceeded, StateFailed or empty for both
	Limit   int
}

// OutcomeRepository defines the interface for outcome history persistence
type OutcomeRepository interface {
	// SaveBatch stores all records of one batch
	SaveBatch(records []*OutcomeRecord) error

	// FindByBatch returns the records of a batch in input order
	FindByBatch(batchID string) ([]*OutcomeRecord, error)

	// FindRecent returns records newest first
	FindRecent(filter HistoryFilter) ([]*OutcomeRecord, error)

	// GetStats returns history statistics
	GetStats() (*HistoryStats, error)
}

// HistoryStats represents history statistics
type HistoryStats struct {
	Batches   int64 `json:"batches"`
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
