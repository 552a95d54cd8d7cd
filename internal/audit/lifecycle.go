// Package audit implements the gating/compliance lifecycle, quality
// metrics, and gating policy registry (C10), per spec.md section 4.10.
package audit

import (
	"context"
	"time"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// Approve transitions an audit item PENDING -> APPROVED, per spec.md
// 4.10. A repeated request on an item that is already APPROVED returns
// true without changing it; a missing audit_id or any other non-PENDING
// state returns false without mutating state.
func Approve(ctx context.Context, st store.AuditStore, auditID, actor, reason string, now time.Time) (bool, error) {
	log, found, err := st.GetAuditLog(ctx, auditID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if log.Status == schema.ApprovalApproved {
		return true, nil
	}
	if log.Status != schema.ApprovalPending {
		return false, nil
	}

	log.Status = schema.ApprovalApproved
	log.Actor = actor
	log.Reason = reason
	log.DecidedAt = &now
	return true, st.UpdateAuditLog(ctx, log)
}

// Reject transitions an audit item PENDING -> REJECTED; reason is
// mandatory per spec.md 4.10.
func Reject(ctx context.Context, st store.AuditStore, auditID, actor, reason string, now time.Time) (bool, error) {
	if reason == "" {
		return false, nil
	}
	log, found, err := st.GetAuditLog(ctx, auditID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if log.Status == schema.ApprovalRejected {
		return true, nil
	}
	if log.Status != schema.ApprovalPending {
		return false, nil
	}

	log.Status = schema.ApprovalRejected
	log.Actor = actor
	log.Reason = reason
	log.DecidedAt = &now
	return true, st.UpdateAuditLog(ctx, log)
}

// Flag transitions any status -> FLAGGED, appending reason to flags[],
// per spec.md 4.10. Idempotent on repeated identical requests: re-flagging
// with the same actor and reason while already FLAGGED with that reason as
// the most recent entry does not append a duplicate.
func Flag(ctx context.Context, st store.AuditStore, auditID, actor, reason string, now time.Time) (bool, error) {
	log, found, err := st.GetAuditLog(ctx, auditID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if log.Status == schema.ApprovalFlagged && log.Actor == actor &&
		len(log.Flags) > 0 && log.Flags[len(log.Flags)-1] == reason {
		return true, nil
	}

	log.Status = schema.ApprovalFlagged
	log.Actor = actor
	log.Flags = append(log.Flags, reason)
	log.DecidedAt = &now
	return true, st.UpdateAuditLog(ctx, log)
}

// GetHistory returns the append-visible audit history for a customer, per
// spec.md 4.10's get_audit_history.
func GetHistory(ctx context.Context, st store.AuditStore, customerCode string) ([]schema.AuditLog, error) {
	return st.AuditHistoryForCustomer(ctx, customerCode)
}

// CreatePending creates one PENDING AuditLog per RecoItem of a run, per
// spec.md 4.10 ("created PENDING").
func CreatePending(ctx context.Context, st store.AuditStore, items []schema.RecoItem, now time.Time, idFn func() string) error {
	logs := make([]schema.AuditLog, 0, len(items))
	for _, item := range items {
		logs = append(logs, schema.AuditLog{
			AuditID:      idFn(),
			RunID:        item.RunID,
			CustomerCode: item.CustomerCode,
			ProductCode:  item.ProductCode,
			Status:       schema.ApprovalPending,
			CreatedAt:    now,
		})
	}
	return st.CreateAuditLogs(ctx, logs)
}
