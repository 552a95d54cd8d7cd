package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// PersistRun implements store.RecoRunStore, writing the run and its items
// inside one transaction, per order_repository.go's Create/Begin-Commit-
// Rollback pattern and spec.md 4.9 step 7's atomic-commit requirement.
func (s *Store) PersistRun(ctx context.Context, run schema.RecoRun, items []schema.RecoItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runModel := toRecoRunModel(run)
		if err := tx.Create(&runModel).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		itemModels := make([]recoItemModel, len(items))
		for i, item := range items {
			itemModels[i] = toRecoItemModel(item)
		}
		return tx.Create(&itemModels).Error
	})
}

// GetRun implements store.RecoRunStore.
func (s *Store) GetRun(ctx context.Context, runID string) (schema.RecoRun, bool, error) {
	var m recoRunModel
	err := s.db.WithContext(ctx).First(&m, "run_id = ?", runID).Error
	if err != nil {
		if isNotFound(err) {
			return schema.RecoRun{}, false, nil
		}
		return schema.RecoRun{}, false, err
	}
	return m.toSchema(), true, nil
}

// ListItemsByRun implements store.RecoRunStore.
func (s *Store) ListItemsByRun(ctx context.Context, runID string) ([]schema.RecoItem, error) {
	var models []recoItemModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("rank").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.RecoItem, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// LatestRunForCustomer implements store.RecoRunStore: the most recent run
// that produced at least one item for the given customer.
func (s *Store) LatestRunForCustomer(ctx context.Context, customerCode string) (schema.RecoRun, bool, error) {
	var m recoItemModel
	err := s.db.WithContext(ctx).
		Where("customer_code = ?", customerCode).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return schema.RecoRun{}, false, nil
		}
		return schema.RecoRun{}, false, err
	}
	return s.GetRun(ctx, m.RunID)
}
