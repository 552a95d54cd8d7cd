package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store/memstore"
)

func TestApproveUnknownAuditIDReturnsFalse(t *testing.T) {
	st := memstore.New()
	ok, err := Approve(context.Background(), st, "missing", "actor", "reason", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApproveIsIdempotent(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, CreatePending(ctx, st, []schema.RecoItem{{RunID: "r1", CustomerCode: "C1", ProductCode: "P1"}}, now, func() string { return "A1" }))

	ok, err := Approve(ctx, st, "A1", "actor", "looks good", now)
	require.NoError(t, err)
	assert.True(t, ok)

	// second identical approve is a no-op success, not a failure.
	ok, err = Approve(ctx, st, "A1", "actor", "looks good", now)
	require.NoError(t, err)
	assert.True(t, ok)

	log, found, err := st.GetAuditLog(ctx, "A1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.ApprovalApproved, log.Status)
}

func TestRejectRequiresReason(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, CreatePending(ctx, st, []schema.RecoItem{{RunID: "r1", CustomerCode: "C1", ProductCode: "P1"}}, now, func() string { return "A1" }))

	ok, err := Reject(ctx, st, "A1", "actor", "", now)
	require.NoError(t, err)
	assert.False(t, ok)

	log, _, _ := st.GetAuditLog(ctx, "A1")
	assert.Equal(t, schema.ApprovalPending, log.Status)
}

func TestRejectTransitionsAndBlocksFurtherApprove(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, CreatePending(ctx, st, []schema.RecoItem{{RunID: "r1", CustomerCode: "C1", ProductCode: "P1"}}, now, func() string { return "A1" }))

	ok, err := Reject(ctx, st, "A1", "actor", "not compliant", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Approve(ctx, st, "A1", "actor", "", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlagFromAnyStatus(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, CreatePending(ctx, st, []schema.RecoItem{{RunID: "r1", CustomerCode: "C1", ProductCode: "P1"}}, now, func() string { return "A1" }))

	_, err := Approve(ctx, st, "A1", "actor", "", now)
	require.NoError(t, err)

	ok, err := Flag(ctx, st, "A1", "actor", "suspicious pattern", now)
	require.NoError(t, err)
	assert.True(t, ok)

	log, _, _ := st.GetAuditLog(ctx, "A1")
	assert.Equal(t, schema.ApprovalFlagged, log.Status)
	assert.Contains(t, log.Flags, "suspicious pattern")
}

func TestFlagIsIdempotentOnRepeatedIdenticalRequest(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, CreatePending(ctx, st, []schema.RecoItem{{RunID: "r1", CustomerCode: "C1", ProductCode: "P1"}}, now, func() string { return "A1" }))

	ok, err := Flag(ctx, st, "A1", "actor", "suspicious pattern", now)
	require.NoError(t, err)
	assert.True(t, ok)

	// identical repeat (same actor, same reason) must not append a duplicate.
	ok, err = Flag(ctx, st, "A1", "actor", "suspicious pattern", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	log, _, _ := st.GetAuditLog(ctx, "A1")
	assert.Equal(t, []string{"suspicious pattern"}, log.Flags)

	// a genuinely new reason still appends.
	ok, err = Flag(ctx, st, "A1", "actor", "second distinct reason", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	log, _, _ = st.GetAuditLog(ctx, "A1")
	assert.Equal(t, []string{"suspicious pattern", "second distinct reason"}, log.Flags)
}

func TestGetHistoryIsAppendVisible(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, CreatePending(ctx, st, []schema.RecoItem{
		{RunID: "r1", CustomerCode: "C1", ProductCode: "P1"},
		{RunID: "r2", CustomerCode: "C1", ProductCode: "P2"},
	}, now, idGenerator()))

	history, err := GetHistory(ctx, st, "C1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func idGenerator() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("A%d", n)
	}
}
