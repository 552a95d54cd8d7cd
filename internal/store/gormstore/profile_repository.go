package gormstore

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// UpsertMasterProfile implements store.MasterProfileStore.
func (s *Store) UpsertMasterProfile(ctx context.Context, mp schema.MasterProfile) error {
	model := toMasterProfileModel(mp)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_code"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// GetMasterProfile implements store.MasterProfileStore.
func (s *Store) GetMasterProfile(ctx context.Context, customerCode string) (schema.MasterProfile, bool, error) {
	var m masterProfileModel
	err := s.db.WithContext(ctx).First(&m, "customer_code = ?", customerCode).Error
	if err != nil {
		if isNotFound(err) {
			return schema.MasterProfile{}, false, nil
		}
		return schema.MasterProfile{}, false, err
	}
	return m.toSchema(), true, nil
}
