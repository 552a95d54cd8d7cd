// Package transform implements source->canonical normalization, product
// alias resolution, customer deduplication, and master-profile
// materialization (C4), per spec.md section 4.4.
package transform

import "strings"

// RawCustomerRow is one validated, normalized raw-customer record as
// produced by ingestion (C3), keyed by CSV column name.
type RawCustomerRow map[string]string

// DedupedCustomer is the output of Stage A: either a passthrough singleton
// or a merged group of duplicate source rows.
type DedupedCustomer struct {
	CustomerCode   string // comma-joined source codes when merged
	Fields         map[string]string
	MergedCodes    bool
	DuplicateCount int
}

// DeduplicateCustomers implements Stage A, per spec.md 4.4: partition by
// non-null email, then by non-null phone; groups of size > 1 collapse,
// taking the first non-null value per field in insertion order and
// comma-joining source codes. Rows with neither email nor phone pass
// through as singletons.
func DeduplicateCustomers(rows []RawCustomerRow) []DedupedCustomer {
	var emailGroups []string
	byEmail := map[string][]int{}
	var phoneGroups []string
	byPhone := map[string][]int{}
	assigned := make([]bool, len(rows))

	for i, row := range rows {
		email := strings.TrimSpace(row["email"])
		if email != "" {
			if _, ok := byEmail[email]; !ok {
				emailGroups = append(emailGroups, email)
			}
			byEmail[email] = append(byEmail[email], i)
		}
	}

	var out []DedupedCustomer

	for _, email := range emailGroups {
		idxs := byEmail[email]
		if len(idxs) == 0 {
			continue
		}
		for _, i := range idxs {
			assigned[i] = true
		}
		out = append(out, mergeGroup(rows, idxs))
	}

	for i, row := range rows {
		if assigned[i] {
			continue
		}
		phone := strings.TrimSpace(row["phone"])
		if phone != "" {
			if _, ok := byPhone[phone]; !ok {
				phoneGroups = append(phoneGroups, phone)
			}
			byPhone[phone] = append(byPhone[phone], i)
		}
	}

	for _, phone := range phoneGroups {
		idxs := byPhone[phone]
		var unassigned []int
		for _, i := range idxs {
			if !assigned[i] {
				unassigned = append(unassigned, i)
			}
		}
		if len(unassigned) == 0 {
			continue
		}
		for _, i := range unassigned {
			assigned[i] = true
		}
		out = append(out, mergeGroup(rows, unassigned))
	}

	for i, row := range rows {
		if assigned[i] {
			continue
		}
		out = append(out, DedupedCustomer{
			CustomerCode:   row["customer_code"],
			Fields:         row,
			MergedCodes:    false,
			DuplicateCount: 1,
		})
	}

	return out
}

func mergeGroup(rows []RawCustomerRow, idxs []int) DedupedCustomer {
	merged := map[string]string{}
	var codes []string
	for _, i := range idxs {
		row := rows[i]
		codes = append(codes, row["customer_code"])
		for field, value := range row {
			if field == "customer_code" {
				continue
			}
			if _, set := merged[field]; !set && strings.TrimSpace(value) != "" {
				merged[field] = value
			}
		}
	}
	merged["customer_code"] = strings.Join(codes, ",")
	return DedupedCustomer{
		CustomerCode:   strings.Join(codes, ","),
		Fields:         merged,
		MergedCodes:    len(idxs) > 1,
		DuplicateCount: len(idxs),
	}
}
