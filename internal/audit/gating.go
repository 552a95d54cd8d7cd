package audit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// Policy is one named gating policy, per spec.md 4.10.
type Policy struct {
	Name             string  `yaml:"name"`
	MinScore         float64 `yaml:"min_score"`
	MinCoverage      float64 `yaml:"min_coverage"`
	RequireApproval  bool    `yaml:"require_approval"`
}

// DefaultPolicies is the built-in registry of spec.md 4.10's three named
// policies.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		"strict":     {Name: "strict", MinScore: 80, MinCoverage: 0.7, RequireApproval: true},
		"standard":   {Name: "standard", MinScore: 60, MinCoverage: 0.5, RequireApproval: false},
		"permissive": {Name: "permissive", MinScore: 40, MinCoverage: 0.3, RequireApproval: false},
	}
}

// LoadPolicyOverrides reads a YAML file of policy overrides and merges it
// into the default registry. A missing file is not an error: the
// defaults stand alone.
func LoadPolicyOverrides(path string) (map[string]Policy, error) {
	policies := DefaultPolicies()
	if path == "" {
		return policies, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return policies, nil
		}
		return nil, err
	}

	var overrides map[string]Policy
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, err
	}
	for name, p := range overrides {
		p.Name = name
		policies[name] = p
	}
	return policies, nil
}

// Evaluate applies a policy to one RecoItem against the run's coverage,
// returning (passed, issues), per spec.md 4.10. complianceChecks carries
// the custom compliance rule results from RunComplianceChecks.
func Evaluate(policy Policy, item schema.RecoItem, runCoverage float64, complianceChecks map[string]bool) (bool, []string) {
	var issues []string

	if item.FinalScore < policy.MinScore {
		issues = append(issues, fmt.Sprintf("Score %.1f below minimum %.1f", item.FinalScore, policy.MinScore))
	}
	if runCoverage < policy.MinCoverage {
		issues = append(issues, fmt.Sprintf("Coverage %.2f below minimum %.2f", runCoverage, policy.MinCoverage))
	}
	for rule, passed := range complianceChecks {
		if !passed {
			issues = append(issues, rule)
		}
	}

	return len(issues) == 0, issues
}

// BatchResult summarizes a gating pass over a set of items, per spec.md
// 4.10's batch-mode totals and pass_rate.
type BatchResult struct {
	Total    int
	Passed   int
	PassRate float64
	Issues   map[string][]string // product_code -> issues
}

// EvaluateBatch runs Evaluate across every item of a run.
func EvaluateBatch(policy Policy, items []schema.RecoItem, runCoverage float64, complianceChecksByItem map[string]map[string]bool) BatchResult {
	result := BatchResult{Total: len(items), Issues: map[string][]string{}}
	for _, item := range items {
		checks := complianceChecksByItem[item.ProductCode]
		passed, issues := Evaluate(policy, item, runCoverage, checks)
		if passed {
			result.Passed++
		} else {
			result.Issues[item.ProductCode] = issues
		}
	}
	if result.Total > 0 {
		result.PassRate = float64(result.Passed) / float64(result.Total)
	}
	return result
}

// RunComplianceChecks evaluates the custom compliance rules of
// SPEC_FULL.md section 7 (min_score, approved_product_family,
// customer_contactable) for one RecoItem, returning the rule->passed map
// Evaluate consumes via complianceChecks.
func RunComplianceChecks(item schema.RecoItem, product schema.Product, customer schema.Customer, minScore float64, approvedFamilies map[schema.ProductCategory]bool) map[string]bool {
	checks := map[string]bool{
		"min_score": item.FinalScore >= minScore,
	}
	if len(approvedFamilies) > 0 {
		checks["approved_product_family"] = approvedFamilies[product.Family]
	}
	checks["customer_contactable"] = customer.Contactable()
	return checks
}
