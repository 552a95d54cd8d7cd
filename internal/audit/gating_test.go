package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

func TestDefaultPoliciesThresholds(t *testing.T) {
	policies := DefaultPolicies()
	require.Len(t, policies, 3)

	strict := policies["strict"]
	assert.Equal(t, 80.0, strict.MinScore)
	assert.Equal(t, 0.7, strict.MinCoverage)
	assert.True(t, strict.RequireApproval)

	standard := policies["standard"]
	assert.Equal(t, 60.0, standard.MinScore)
	assert.Equal(t, 0.5, standard.MinCoverage)
	assert.False(t, standard.RequireApproval)

	permissive := policies["permissive"]
	assert.Equal(t, 40.0, permissive.MinScore)
	assert.Equal(t, 0.3, permissive.MinCoverage)
	assert.False(t, permissive.RequireApproval)
}

func TestLoadPolicyOverridesMissingFileReturnsDefaults(t *testing.T) {
	policies, err := LoadPolicyOverrides(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicies(), policies)
}

func TestLoadPolicyOverridesMergesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.yaml")
	yamlContent := "strict:\n  min_score: 90\n  min_coverage: 0.8\n  require_approval: true\ncustom:\n  min_score: 50\n  min_coverage: 0.4\n  require_approval: false\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	policies, err := LoadPolicyOverrides(path)
	require.NoError(t, err)

	assert.Equal(t, 90.0, policies["strict"].MinScore)
	assert.Equal(t, 0.8, policies["strict"].MinCoverage)
	require.Contains(t, policies, "custom")
	assert.Equal(t, 50.0, policies["custom"].MinScore)
	// untouched defaults survive the merge.
	assert.Equal(t, 60.0, policies["standard"].MinScore)
}

func TestEvaluatePassing(t *testing.T) {
	policy := DefaultPolicies()["standard"]
	item := schema.RecoItem{FinalScore: 75}
	ok, issues := Evaluate(policy, item, 0.6, map[string]bool{"customer_contactable": true})
	assert.True(t, ok)
	assert.Empty(t, issues)
}

func TestEvaluateFailsOnScoreCoverageAndCompliance(t *testing.T) {
	policy := DefaultPolicies()["strict"]
	item := schema.RecoItem{FinalScore: 50}
	ok, issues := Evaluate(policy, item, 0.2, map[string]bool{"customer_contactable": false})
	assert.False(t, ok)
	assert.Len(t, issues, 3)
}

func TestEvaluateBatchPassRate(t *testing.T) {
	policy := DefaultPolicies()["standard"]
	items := []schema.RecoItem{
		{ProductCode: "P1", FinalScore: 90},
		{ProductCode: "P2", FinalScore: 10},
	}
	result := EvaluateBatch(policy, items, 0.9, nil)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.InDelta(t, 0.5, result.PassRate, 1e-9)
	assert.Contains(t, result.Issues, "P2")
	assert.NotContains(t, result.Issues, "P1")
}

func TestRunComplianceChecks(t *testing.T) {
	item := schema.RecoItem{FinalScore: 85}
	product := schema.Product{Family: schema.CategoryRed}
	customer := schema.Customer{}

	checks := RunComplianceChecks(item, product, customer, 60, map[schema.ProductCategory]bool{schema.CategoryWhite: true})
	assert.True(t, checks["min_score"])
	assert.False(t, checks["approved_product_family"])
	assert.True(t, checks["customer_contactable"])
}

func TestRunComplianceChecksNoFamilyRestriction(t *testing.T) {
	item := schema.RecoItem{FinalScore: 10}
	product := schema.Product{Family: schema.CategoryRed}
	customer := schema.Customer{}

	checks := RunComplianceChecks(item, product, customer, 60, nil)
	assert.False(t, checks["min_score"])
	assert.NotContains(t, checks, "approved_product_family")
}
