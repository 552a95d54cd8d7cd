package gormstore

import (
	"context"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// CreateAuditLogs implements store.AuditStore.
func (s *Store) CreateAuditLogs(ctx context.Context, logs []schema.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	models := make([]auditLogModel, len(logs))
	for i, l := range logs {
		models[i] = toAuditLogModel(l)
	}
	return s.db.WithContext(ctx).Create(&models).Error
}

// GetAuditLog implements store.AuditStore.
func (s *Store) GetAuditLog(ctx context.Context, auditID string) (schema.AuditLog, bool, error) {
	var m auditLogModel
	err := s.db.WithContext(ctx).First(&m, "audit_id = ?", auditID).Error
	if err != nil {
		if isNotFound(err) {
			return schema.AuditLog{}, false, nil
		}
		return schema.AuditLog{}, false, err
	}
	return m.toSchema(), true, nil
}

// UpdateAuditLog implements store.AuditStore.
func (s *Store) UpdateAuditLog(ctx context.Context, log schema.AuditLog) error {
	model := toAuditLogModel(log)
	return s.db.WithContext(ctx).Save(&model).Error
}

// AuditHistoryForCustomer implements store.AuditStore.
func (s *Store) AuditHistoryForCustomer(ctx context.Context, customerCode string) ([]schema.AuditLog, error) {
	var models []auditLogModel
	if err := s.db.WithContext(ctx).Where("customer_code = ?", customerCode).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.AuditLog, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}

// AuditLogsByRun implements store.AuditStore.
func (s *Store) AuditLogsByRun(ctx context.Context, runID string) ([]schema.AuditLog, error) {
	var models []auditLogModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]schema.AuditLog, len(models))
	for i, m := range models {
		out[i] = m.toSchema()
	}
	return out, nil
}
