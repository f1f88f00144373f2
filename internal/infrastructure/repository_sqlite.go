package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/yt-audio-extract/internal/domain"
)

// SQLiteOutcomeRepository implements OutcomeRepository using SQLite
type SQLiteOutcomeRepository struct {
	db *gorm.DB
}

// NewSQLiteOutcomeRepository opens (creating if needed) the history database at dbPath
func NewSQLiteOutcomeRepository(dbPath string) (*SQLiteOutcomeRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.OutcomeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteOutcomeRepository{db: db}, nil
}

// SaveBatch stores the records of one batch in a single transaction
func (r *SQLiteOutcomeRepository) SaveBatch(records []*domain.OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
}

// FindByBatch returns the records of a batch in input order
func (r *SQLiteOutcomeRepository) FindByBatch(batchID string) ([]*domain.OutcomeRecord, error) {
	var records []*domain.OutcomeRecord
	err := r.db.Where("batch_id = ?", batchID).
		Order("position ASC").
		Find(&records).Error
	return records, err
}

// FindRecent returns records newest first, narrowed by filter
func (r *SQLiteOutcomeRepository) FindRecent(filter domain.HistoryFilter) ([]*domain.OutcomeRecord, error) {
	var records []*domain.OutcomeRecord
	query := r.db.Model(&domain.OutcomeRecord{})

	if filter.BatchID != "" {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	switch filter.State {
	case domain.StateSucceeded:
		query = query.Where("succeeded = ?", true)
	case domain.StateFailed:
		query = query.Where("succeeded = ?", false)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	err := query.Order("created_at DESC, position ASC").Find(&records).Error
	return records, err
}

// GetStats returns history statistics
func (r *SQLiteOutcomeRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.OutcomeRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&domain.OutcomeRecord{}).
		Where("succeeded = ?", true).
		Count(&stats.Succeeded).Error; err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Succeeded

	if err := r.db.Model(&domain.OutcomeRecord{}).
		Distinct("batch_id").
		Count(&stats.Batches).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteOutcomeRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
