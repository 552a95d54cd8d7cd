package gormstore

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// UpsertCustomer implements store.CustomerStore.
func (s *Store) UpsertCustomer(ctx context.Context, c schema.Customer) error {
	model := toCustomerModel(c)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_code"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// GetCustomerByCode implements store.CustomerStore.
func (s *Store) GetCustomerByCode(ctx context.Context, code string) (schema.Customer, bool, error) {
	var m customerModel
	err := s.db.WithContext(ctx).First(&m, "customer_code = ?", code).Error
	if err != nil {
		if isNotFound(err) {
			return schema.Customer{}, false, nil
		}
		return schema.Customer{}, false, err
	}
	return m.toSchema(), true, nil
}

// ListCustomerCodes implements store.CustomerStore.
func (s *Store) ListCustomerCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.db.WithContext(ctx).Model(&customerModel{}).Pluck("customer_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// CustomerExists implements store.CustomerStore.
func (s *Store) CustomerExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&customerModel{}).Where("customer_code = ?", code).Count(&count).Error
	return count > 0, err
}
