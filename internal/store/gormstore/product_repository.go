package gormstore

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// UpsertProduct implements store.ProductStore, grounded on
// order_repository.go's Create/Update transaction shape simplified to a
// single upsert-by-primary-key clause (gorm's OnConflict with UpdateAll).
func (s *Store) UpsertProduct(ctx context.Context, p schema.Product) error {
	model := toProductModel(p)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_code"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// GetProductByCode implements store.ProductStore.
func (s *Store) GetProductByCode(ctx context.Context, code string) (schema.Product, bool, error) {
	var m productModel
	err := s.db.WithContext(ctx).First(&m, "product_code = ?", code).Error
	if err != nil {
		if isNotFound(err) {
			return schema.Product{}, false, nil
		}
		return schema.Product{}, false, err
	}
	return m.toSchema(), true, nil
}

// ListProducts implements store.ProductStore.
func (s *Store) ListProducts(ctx context.Context) ([]schema.Product, error) {
	var models []productModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.Product, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// RegisterAlias implements store.ProductStore.
func (s *Store) RegisterAlias(ctx context.Context, alias schema.ProductAlias) error {
	model := toProductAliasModel(alias)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "raw_label"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// ResolveAlias implements store.ProductStore.
func (s *Store) ResolveAlias(ctx context.Context, labelNorm string) (string, bool, error) {
	var m productAliasModel
	err := s.db.WithContext(ctx).First(&m, "raw_label = ?", labelNorm).Error
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.ProductCode, true, nil
}

// ListAliases implements store.ProductStore.
func (s *Store) ListAliases(ctx context.Context) ([]schema.ProductAlias, error) {
	var models []productAliasModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.ProductAlias, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}
