// Package memstore implements store.Store over plain Go maps guarded by a
// sync.RWMutex, standing in for Postgres in unit tests across every
// component, per SPEC_FULL.md section 8.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iaros/crm-reco-platform/internal/pipelineerr"
	"github.com/iaros/crm-reco-platform/internal/schema"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	products map[string]schema.Product
	aliases  map[string]string // label_norm -> product_code

	customers map[string]schema.Customer

	orderLines    []schema.OrderLine
	orderLineKeys map[string]bool // dedup by natural key

	contactEvents map[string][]schema.ContactEvent

	masterProfiles map[string]schema.MasterProfile

	runs      map[string]schema.RecoRun
	itemsByRun map[string][]schema.RecoItem

	auditLogs map[string]schema.AuditLog

	outcomes  []schema.OutcomeEvent
	feedback  []schema.FeedbackRecord
	abTests   map[string]schema.ABTestResult

	rawRows        map[string]map[string]string // (batch_id|row_hash) -> row
	ingestionErrs  []ingestionError
	batches        map[string]schema.IngestionBatch
}

type ingestionError struct {
	BatchID string
	FileType string
	RowNum  int
	Code    string
	Message string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		products:       make(map[string]schema.Product),
		aliases:        make(map[string]string),
		customers:      make(map[string]schema.Customer),
		orderLineKeys:  make(map[string]bool),
		contactEvents:  make(map[string][]schema.ContactEvent),
		masterProfiles: make(map[string]schema.MasterProfile),
		runs:           make(map[string]schema.RecoRun),
		itemsByRun:     make(map[string][]schema.RecoItem),
		auditLogs:      make(map[string]schema.AuditLog),
		abTests:        make(map[string]schema.ABTestResult),
		rawRows:        make(map[string]map[string]string),
		batches:        make(map[string]schema.IngestionBatch),
	}
}

// --- ProductStore ---

func (s *Store) UpsertProduct(_ context.Context, p schema.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.products[p.ProductCode]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	s.products[p.ProductCode] = p
	return nil
}

func (s *Store) GetProductByCode(_ context.Context, code string) (schema.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[code]
	return p, ok, nil
}

func (s *Store) ListProducts(_ context.Context) ([]schema.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out, nil
}

func (s *Store) RegisterAlias(_ context.Context, alias schema.ProductAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[alias.RawLabel] = alias.ProductCode
	return nil
}

func (s *Store) ResolveAlias(_ context.Context, labelNorm string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.aliases[labelNorm]
	return code, ok, nil
}

func (s *Store) ListAliases(_ context.Context) ([]schema.ProductAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.ProductAlias, 0, len(s.aliases))
	for label, code := range s.aliases {
		out = append(out, schema.ProductAlias{RawLabel: label, ProductCode: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RawLabel < out[j].RawLabel })
	return out, nil
}

// --- CustomerStore ---

func (s *Store) UpsertCustomer(_ context.Context, c schema.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.customers[c.CustomerCode]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()
	s.customers[c.CustomerCode] = c
	return nil
}

func (s *Store) GetCustomerByCode(_ context.Context, code string) (schema.Customer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[code]
	return c, ok, nil
}

func (s *Store) ListCustomerCodes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.customers))
	for code := range s.customers {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CustomerExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.customers[code]
	return ok, nil
}

// --- OrderLineStore ---

func orderLineKey(ol schema.OrderLine) string {
	return ol.DocRef + "|" + ol.CustomerCode + "|" + ol.ProductCode + "|" + ol.OrderDate.Format("2006-01-02")
}

func (s *Store) InsertOrderLine(_ context.Context, ol schema.OrderLine) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := orderLineKey(ol)
	if s.orderLineKeys[key] {
		return false, nil
	}
	s.orderLineKeys[key] = true
	s.orderLines = append(s.orderLines, ol)
	return true, nil
}

func (s *Store) ListOrderLinesByCustomer(_ context.Context, customerCode string) ([]schema.OrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.OrderLine
	for _, ol := range s.orderLines {
		if ol.CustomerCode == customerCode {
			out = append(out, ol)
		}
	}
	return out, nil
}

func (s *Store) ListOrderLines(_ context.Context) ([]schema.OrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.OrderLine, len(s.orderLines))
	copy(out, s.orderLines)
	return out, nil
}

// --- ContactEventStore ---

func (s *Store) InsertContactEvent(_ context.Context, ce schema.ContactEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contactEvents[ce.CustomerCode] = append(s.contactEvents[ce.CustomerCode], ce)
	return nil
}

func (s *Store) ListContactEventsByCustomer(_ context.Context, customerCode string) ([]schema.ContactEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.ContactEvent, len(s.contactEvents[customerCode]))
	copy(out, s.contactEvents[customerCode])
	return out, nil
}

func (s *Store) LastContactDate(_ context.Context, customerCode string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.contactEvents[customerCode]
	if len(events) == 0 {
		return time.Time{}, false, nil
	}
	latest := events[0].OccurredAt
	for _, e := range events[1:] {
		if e.OccurredAt.After(latest) {
			latest = e.OccurredAt
		}
	}
	return latest, true, nil
}

// --- MasterProfileStore ---

func (s *Store) UpsertMasterProfile(_ context.Context, mp schema.MasterProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp.BuiltAt = time.Now()
	s.masterProfiles[mp.CustomerCode] = mp
	return nil
}

func (s *Store) GetMasterProfile(_ context.Context, customerCode string) (schema.MasterProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mp, ok := s.masterProfiles[customerCode]
	return mp, ok, nil
}

// --- RecoRunStore ---

func (s *Store) PersistRun(_ context.Context, run schema.RecoRun, items []schema.RecoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = run
	cp := make([]schema.RecoItem, len(items))
	copy(cp, items)
	s.itemsByRun[run.RunID] = cp
	return nil
}

func (s *Store) GetRun(_ context.Context, runID string) (schema.RecoRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[runID]
	return r, ok, nil
}

func (s *Store) ListItemsByRun(_ context.Context, runID string) ([]schema.RecoItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.RecoItem, len(s.itemsByRun[runID]))
	copy(out, s.itemsByRun[runID])
	return out, nil
}

func (s *Store) LatestRunForCustomer(_ context.Context, customerCode string) (schema.RecoRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best schema.RecoRun
	found := false
	for runID, items := range s.itemsByRun {
		for _, it := range items {
			if it.CustomerCode != customerCode {
				continue
			}
			run := s.runs[runID]
			if !found || run.StartedAt.After(best.StartedAt) ||
				(run.StartedAt.Equal(best.StartedAt) && run.RunID > best.RunID) {
				best = run
				found = true
			}
			break
		}
	}
	return best, found, nil
}

// --- AuditStore ---

func (s *Store) CreateAuditLogs(_ context.Context, logs []schema.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range logs {
		s.auditLogs[l.AuditID] = l
	}
	return nil
}

func (s *Store) GetAuditLog(_ context.Context, auditID string) (schema.AuditLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.auditLogs[auditID]
	return l, ok, nil
}

func (s *Store) UpdateAuditLog(_ context.Context, log schema.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auditLogs[log.AuditID]; !ok {
		return pipelineerr.New(pipelineerr.KindInternal, "UpdateAuditLog", "audit log not found")
	}
	s.auditLogs[log.AuditID] = log
	return nil
}

func (s *Store) AuditHistoryForCustomer(_ context.Context, customerCode string) ([]schema.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.AuditLog
	for _, l := range s.auditLogs {
		if l.CustomerCode == customerCode {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AuditLogsByRun(_ context.Context, runID string) ([]schema.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.AuditLog
	for _, l := range s.auditLogs {
		if l.RunID == runID {
			out = append(out, l)
		}
	}
	return out, nil
}

// --- OutcomeStore ---

func (s *Store) RecordOutcome(_ context.Context, o schema.OutcomeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
	return nil
}

func (s *Store) RecordFeedback(_ context.Context, f schema.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, f)
	return nil
}

func (s *Store) OutcomesSince(_ context.Context, since time.Time) ([]schema.OutcomeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.OutcomeEvent
	for _, o := range s.outcomes {
		if !o.RecordedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) FeedbackSince(_ context.Context, since time.Time) ([]schema.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.FeedbackRecord
	for _, f := range s.feedback {
		if !f.RecordedAt.Before(since) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) SaveABTestResult(_ context.Context, r schema.ABTestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abTests[r.TestID] = r
	return nil
}

// --- RawStagingStore ---

func (s *Store) UpsertRawRow(_ context.Context, batchID, fileType, rowHash string, row map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := batchID + "|" + rowHash
	_, existed := s.rawRows[key]
	cp := make(map[string]string, len(row))
	for k, v := range row {
		cp[k] = v
	}
	s.rawRows[key] = cp
	_ = fileType
	return !existed, nil
}

func (s *Store) InsertIngestionError(_ context.Context, batchID, fileType string, rowNum int, code, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingestionErrs = append(s.ingestionErrs, ingestionError{
		BatchID: batchID, FileType: fileType, RowNum: rowNum, Code: code, Message: message,
	})
	return nil
}

func (s *Store) StartBatch(_ context.Context, batch schema.IngestionBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.BatchID] = batch
	return nil
}

func (s *Store) FinishBatch(_ context.Context, batchID string, rowCount, errorCount int, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	if !ok {
		return pipelineerr.New(pipelineerr.KindInternal, "FinishBatch", "batch not found")
	}
	b.RowCount = rowCount
	b.ErrorCount = errorCount
	b.FinishedAt = &finishedAt
	s.batches[batchID] = b
	return nil
}
