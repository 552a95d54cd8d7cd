package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// InsertOrderLine implements store.OrderLineStore, deduplicating by the
// natural key (doc_ref, customer_code, product_code, order_date) per
// spec.md's OrderLine documentation. DoNothing on conflict makes
// re-ingestion of the same source file idempotent.
func (s *Store) InsertOrderLine(ctx context.Context, ol schema.OrderLine) (bool, error) {
	if ol.ID == "" {
		ol.ID = uuid.NewString()
	}
	model := toOrderLineModel(ol)
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_code"}, {Name: "product_code"}, {Name: "order_date"}, {Name: "doc_ref"}},
		DoNothing: true,
	}).Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListOrderLinesByCustomer implements store.OrderLineStore.
func (s *Store) ListOrderLinesByCustomer(ctx context.Context, customerCode string) ([]schema.OrderLine, error) {
	var models []orderLineModel
	if err := s.db.WithContext(ctx).Where("customer_code = ?", customerCode).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.OrderLine, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// ListOrderLines implements store.OrderLineStore.
func (s *Store) ListOrderLines(ctx context.Context) ([]schema.OrderLine, error) {
	var models []orderLineModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.OrderLine, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// InsertContactEvent implements store.ContactEventStore.
func (s *Store) InsertContactEvent(ctx context.Context, ce schema.ContactEvent) error {
	if ce.ID == "" {
		ce.ID = uuid.NewString()
	}
	model := toContactEventModel(ce)
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListContactEventsByCustomer implements store.ContactEventStore.
func (s *Store) ListContactEventsByCustomer(ctx context.Context, customerCode string) ([]schema.ContactEvent, error) {
	var models []contactEventModel
	if err := s.db.WithContext(ctx).Where("customer_code = ?", customerCode).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.ContactEvent, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// LastContactDate implements store.ContactEventStore.
func (s *Store) LastContactDate(ctx context.Context, customerCode string) (time.Time, bool, error) {
	var m contactEventModel
	err := s.db.WithContext(ctx).
		Where("customer_code = ?", customerCode).
		Order("occurred_at DESC").
		First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return m.OccurredAt, true, nil
}
