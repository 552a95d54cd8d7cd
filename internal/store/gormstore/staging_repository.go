package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// UpsertRawRow implements store.RawStagingStore, deduplicating by
// (batch_id, file_type, row_hash) per spec.md 4.3's content-hash
// idempotence contract.
func (s *Store) UpsertRawRow(ctx context.Context, batchID, fileType, rowHash string, row map[string]string) (bool, error) {
	model := rawRowModel{
		BatchID:  batchID,
		FileType: fileType,
		RowHash:  rowHash,
		Row:      jsonColumn[map[string]string]{Value: row},
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "batch_id"}, {Name: "file_type"}, {Name: "row_hash"}},
		DoNothing: true,
	}).Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// InsertIngestionError implements store.RawStagingStore.
func (s *Store) InsertIngestionError(ctx context.Context, batchID, fileType string, rowNum int, code, message string) error {
	return s.db.WithContext(ctx).Create(&ingestionErrorModel{
		BatchID:  batchID,
		FileType: fileType,
		RowNum:   rowNum,
		Code:     code,
		Message:  message,
	}).Error
}

// StartBatch implements store.RawStagingStore.
func (s *Store) StartBatch(ctx context.Context, batch schema.IngestionBatch) error {
	model := toIngestionBatchModel(batch)
	return s.db.WithContext(ctx).Create(&model).Error
}

// FinishBatch implements store.RawStagingStore.
func (s *Store) FinishBatch(ctx context.Context, batchID string, rowCount, errorCount int, finishedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&ingestionBatchModel{}).
		Where("batch_id = ?", batchID).
		Updates(map[string]interface{}{
			"row_count":   rowCount,
			"error_count": errorCount,
			"finished_at": finishedAt,
		}).Error
}
