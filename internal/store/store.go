// Package store defines the narrow, per-entity capability interfaces every
// component depends on, per spec.md Design Notes 9 and SPEC_FULL.md section
// 8. Composing small interfaces instead of one monolithic database object
// lets each component's unit tests stand up only the fakes they need.
package store

import (
	"context"
	"time"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// ProductStore owns Product and ProductAlias rows.
type ProductStore interface {
	UpsertProduct(ctx context.Context, p schema.Product) error
	GetProductByCode(ctx context.Context, code string) (schema.Product, bool, error)
	ListProducts(ctx context.Context) ([]schema.Product, error)
	RegisterAlias(ctx context.Context, alias schema.ProductAlias) error
	ResolveAlias(ctx context.Context, labelNorm string) (string, bool, error)
	ListAliases(ctx context.Context) ([]schema.ProductAlias, error)
}

// CustomerStore owns Customer rows.
type CustomerStore interface {
	UpsertCustomer(ctx context.Context, c schema.Customer) error
	GetCustomerByCode(ctx context.Context, code string) (schema.Customer, bool, error)
	ListCustomerCodes(ctx context.Context) ([]string, error)
	CustomerExists(ctx context.Context, code string) (bool, error)
}

// OrderLineStore owns OrderLine facts.
type OrderLineStore interface {
	InsertOrderLine(ctx context.Context, ol schema.OrderLine) (inserted bool, err error)
	ListOrderLinesByCustomer(ctx context.Context, customerCode string) ([]schema.OrderLine, error)
	ListOrderLines(ctx context.Context) ([]schema.OrderLine, error)
}

// ContactEventStore owns ContactEvent facts.
type ContactEventStore interface {
	InsertContactEvent(ctx context.Context, ce schema.ContactEvent) error
	ListContactEventsByCustomer(ctx context.Context, customerCode string) ([]schema.ContactEvent, error)
	LastContactDate(ctx context.Context, customerCode string) (time.Time, bool, error)
}

// MasterProfileStore owns MasterProfile rows.
type MasterProfileStore interface {
	UpsertMasterProfile(ctx context.Context, mp schema.MasterProfile) error
	GetMasterProfile(ctx context.Context, customerCode string) (schema.MasterProfile, bool, error)
}

// RecoRunStore owns RecoRun and RecoItem rows, written transactionally
// together per spec.md 4.9 step 7.
type RecoRunStore interface {
	PersistRun(ctx context.Context, run schema.RecoRun, items []schema.RecoItem) error
	GetRun(ctx context.Context, runID string) (schema.RecoRun, bool, error)
	ListItemsByRun(ctx context.Context, runID string) ([]schema.RecoItem, error)
	LatestRunForCustomer(ctx context.Context, customerCode string) (schema.RecoRun, bool, error)
}

// AuditStore owns AuditLog rows.
type AuditStore interface {
	CreateAuditLogs(ctx context.Context, logs []schema.AuditLog) error
	GetAuditLog(ctx context.Context, auditID string) (schema.AuditLog, bool, error)
	UpdateAuditLog(ctx context.Context, log schema.AuditLog) error
	AuditHistoryForCustomer(ctx context.Context, customerCode string) ([]schema.AuditLog, error)
	AuditLogsByRun(ctx context.Context, runID string) ([]schema.AuditLog, error)
}

// OutcomeStore owns OutcomeEvent, FeedbackRecord, and ABTestResult rows.
type OutcomeStore interface {
	RecordOutcome(ctx context.Context, o schema.OutcomeEvent) error
	RecordFeedback(ctx context.Context, f schema.FeedbackRecord) error
	OutcomesSince(ctx context.Context, since time.Time) ([]schema.OutcomeEvent, error)
	FeedbackSince(ctx context.Context, since time.Time) ([]schema.FeedbackRecord, error)
	SaveABTestResult(ctx context.Context, r schema.ABTestResult) error
}

// RawStagingStore owns raw_* staging rows and ingestion_batches, per
// spec.md 4.3 and SPEC_FULL.md section 7's supplemented batch tracking.
type RawStagingStore interface {
	UpsertRawRow(ctx context.Context, batchID, fileType, rowHash string, row map[string]string) (inserted bool, err error)
	InsertIngestionError(ctx context.Context, batchID, fileType string, rowNum int, code, message string) error
	StartBatch(ctx context.Context, batch schema.IngestionBatch) error
	FinishBatch(ctx context.Context, batchID string, rowCount, errorCount int, finishedAt time.Time) error
}

// Store composes every per-entity capability into the one abstract
// transactional store spec.md section 1 describes ("an abstract
// transactional store supporting SQL-like queries, upserts, and JSON
// columns"). Components depend on the narrow interface they need, not on
// Store directly.
type Store interface {
	ProductStore
	CustomerStore
	OrderLineStore
	ContactEventStore
	MasterProfileStore
	RecoRunStore
	AuditStore
	OutcomeStore
	RawStagingStore
}
