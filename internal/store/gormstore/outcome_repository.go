package gormstore

import (
	"context"
	"time"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// RecordOutcome implements store.OutcomeStore.
func (s *Store) RecordOutcome(ctx context.Context, o schema.OutcomeEvent) error {
	model := toOutcomeEventModel(o)
	return s.db.WithContext(ctx).Create(&model).Error
}

// RecordFeedback implements store.OutcomeStore.
func (s *Store) RecordFeedback(ctx context.Context, f schema.FeedbackRecord) error {
	model := toFeedbackRecordModel(f)
	return s.db.WithContext(ctx).Create(&model).Error
}

// OutcomesSince implements store.OutcomeStore.
func (s *Store) OutcomesSince(ctx context.Context, since time.Time) ([]schema.OutcomeEvent, error) {
	var models []outcomeEventModel
	if err := s.db.WithContext(ctx).Where("recorded_at >= ?", since).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.OutcomeEvent, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// FeedbackSince implements store.OutcomeStore.
func (s *Store) FeedbackSince(ctx context.Context, since time.Time) ([]schema.FeedbackRecord, error) {
	var models []feedbackRecordModel
	if err := s.db.WithContext(ctx).Where("recorded_at >= ?", since).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.FeedbackRecord, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// SaveABTestResult implements store.OutcomeStore.
func (s *Store) SaveABTestResult(ctx context.Context, r schema.ABTestResult) error {
	model := toABTestResultModel(r)
	return s.db.WithContext(ctx).Save(&model).Error
}
