// Package connectors implements source connectors (C2): polymorphic
// extract/transform/load/sync over file exports or remote ERP/PoS systems,
// per spec.md section 4.2.
package connectors

import (
	"context"
	"time"
)

// SourceKind is the raw record category a connector extracts.
type SourceKind string

const (
	SourceCustomers     SourceKind = "customers"
	SourceProducts      SourceKind = "products"
	SourceSalesLines    SourceKind = "sales_lines"
	SourceStockLevels   SourceKind = "stock_levels"
	SourceContactHistory SourceKind = "contact_history"
)

// Status is the connector's current lifecycle state, per spec.md 4.2:
// CONFIGURING -> HEALTHY <-> SYNCING -> HEALTHY | ERROR.
type Status string

const (
	StatusConfiguring Status = "CONFIGURING"
	StatusHealthy     Status = "HEALTHY"
	StatusSyncing     Status = "SYNCING"
	StatusError       Status = "ERROR"
)

// RawRecord is a single untyped record as extracted from a source, keyed
// by raw source field names.
type RawRecord map[string]string

// CanonicalRecord is a single record after Transform, keyed by canonical
// table name fields; still untyped at this layer — typing happens in C3.
type CanonicalRecord map[string]string

// SyncResult is the outcome of one sync() call, per spec.md 4.2.
type SyncResult struct {
	Success         bool
	ConnectorKind   string
	Timestamp       time.Time
	RecordCounts    map[string]int // per canonical table name
	Errors          []string
	Warnings        []string
	NextCursor      *time.Time
	Duration        time.Duration
}

// Connector is the capability set every source connector implements, per
// spec.md 4.2: {validate_config, test_connection, extract, transform,
// load, sync, status}.
type Connector interface {
	Kind() string
	RequiredConfigKeys() []string
	ValidateConfig(cfg map[string]string) error
	TestConnection(ctx context.Context) error

	Extract(ctx context.Context, lastSync *time.Time) (map[SourceKind][]RawRecord, error)
	Transform(ctx context.Context, raw map[SourceKind][]RawRecord) (map[string][]CanonicalRecord, error)
	Load(ctx context.Context, canonical map[string][]CanonicalRecord) (map[string]int, error)

	Sync(ctx context.Context, lastSync *time.Time) (SyncResult, error)
	Status() Status
}

// statusMachine is embedded by connector implementations to share the
// CONFIGURING -> HEALTHY <-> SYNCING -> HEALTHY | ERROR transitions.
type statusMachine struct {
	status Status
}

func newStatusMachine() statusMachine {
	return statusMachine{status: StatusConfiguring}
}

func (m *statusMachine) Status() Status { return m.status }

func (m *statusMachine) markHealthy() { m.status = StatusHealthy }
func (m *statusMachine) markSyncing() { m.status = StatusSyncing }
func (m *statusMachine) markError()   { m.status = StatusError }

// runSync runs the standard extract -> transform -> load pipeline shared by
// every connector kind, per spec.md 4.2's sync contract. Connector
// implementations call this from their own Sync method after setting up
// kind-specific extraction.
func runSync(ctx context.Context, c Connector, lastSync *time.Time) SyncResult {
	start := time.Now()
	result := SyncResult{ConnectorKind: c.Kind(), Timestamp: start}

	raw, err := c.Extract(ctx, lastSync)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	canonical, err := c.Transform(ctx, raw)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	counts, err := c.Load(ctx, canonical)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.RecordCounts = counts
	result.Duration = time.Since(start)
	return result
}
