package transform

import (
	"context"
	"time"

	"github.com/iaros/crm-reco-platform/internal/cache"
	"github.com/iaros/crm-reco-platform/internal/logging"
	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// StageError is one stage-level failure appended to
// TransformPipelineStatus, per spec.md 4.4.
type StageError struct {
	Stage   string
	Message string
}

// TransformPipelineStatus accumulates per-stage counters and errors for
// one transform run, per spec.md 4.4.
type TransformPipelineStatus struct {
	BatchID             string
	CustomersDeduped    int
	CustomersLoaded     int
	OrderLinesLoaded    int
	OrderLinesSkipped   int
	ContactEventsLoaded int
	ProfilesBuilt       int
	Errors              []StageError
	Duration            time.Duration
}

// Success reports whether no stage-level error was appended, per spec.md
// 4.4's "pipeline returns (status, success) where success iff no
// stage-level error was appended."
func (s TransformPipelineStatus) Success() bool {
	return len(s.Errors) == 0
}

// Input bundles everything one Transform run needs: the raw rows produced
// by ingestion for this batch, plus the store and alias cache.
type Input struct {
	BatchID       string
	RawCustomers  []RawCustomerRow
	RawSalesLines []map[string]string
	RawContacts   []map[string]string
	SkipMasterProfiles bool
}

// Transform runs Stages A-E for one ingestion batch, per spec.md 4.4.
func Transform(ctx context.Context, st store.Store, aliasCache cache.Store, input Input, logger *logging.Logger) (TransformPipelineStatus, bool) {
	start := time.Now()
	status := TransformPipelineStatus{BatchID: input.BatchID}

	deduped := DeduplicateCustomers(input.RawCustomers)
	status.CustomersDeduped = len(deduped)

	for _, dc := range deduped {
		customer := customerFromFields(dc)
		if err := st.UpsertCustomer(ctx, customer); err != nil {
			status.Errors = append(status.Errors, StageError{Stage: "load_customers", Message: err.Error()})
			continue
		}
		status.CustomersLoaded++
	}

	loadAliasCache(ctx, st, aliasCache)

	for _, row := range input.RawSalesLines {
		ol, ok, err := orderLineFromRow(ctx, row, input.BatchID, aliasCache)
		if err != nil {
			status.Errors = append(status.Errors, StageError{Stage: "load_order_lines", Message: err.Error()})
			continue
		}
		if !ok {
			status.OrderLinesSkipped++
			continue
		}
		inserted, err := st.InsertOrderLine(ctx, ol)
		if err != nil {
			status.Errors = append(status.Errors, StageError{Stage: "load_order_lines", Message: err.Error()})
			continue
		}
		if inserted {
			status.OrderLinesLoaded++
		}
	}

	for _, row := range input.RawContacts {
		ce := contactEventFromRow(row)
		if err := st.InsertContactEvent(ctx, ce); err != nil {
			status.Errors = append(status.Errors, StageError{Stage: "load_contact_events", Message: err.Error()})
			continue
		}
		status.ContactEventsLoaded++
	}

	if !input.SkipMasterProfiles {
		built, errs := BuildMasterProfiles(ctx, st)
		status.ProfilesBuilt = built
		for _, e := range errs {
			status.Errors = append(status.Errors, StageError{Stage: "build_master_profiles", Message: e})
		}
	}

	status.Duration = time.Since(start)
	if logger != nil {
		logger.StageTiming("transform:"+input.BatchID, status.Duration, status.CustomersLoaded+status.OrderLinesLoaded)
	}
	return status, status.Success()
}

func customerFromFields(dc DedupedCustomer) schema.Customer {
	f := dc.Fields
	return schema.Customer{
		CustomerCode:   dc.CustomerCode,
		Email:          f["email"],
		Phone:          f["phone"],
		FirstName:      f["first_name"],
		LastName:       f["last_name"],
		Address:        f["address"],
		PostalCode:     f["postal_code"],
		City:           f["city"],
		Country:        f["country"],
		Bounced:        false,
		OptedOut:       false,
		MergedFromCodes: dc.MergedCodes,
		DuplicateCount: dc.DuplicateCount,
	}
}

func contactEventFromRow(row map[string]string) schema.ContactEvent {
	occurred, _ := time.Parse("2006-01-02", row["contact_date"])
	return schema.ContactEvent{
		CustomerCode: row["customer_code"],
		OccurredAt:   occurred,
		Channel:      row["channel"],
		Outcome:      row["status"],
	}
}
