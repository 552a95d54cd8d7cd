package ingestion

import "strings"

// validateCustomerRow applies spec.md 4.3 item 3's customer rules,
// normalizing fields in place. seen tracks customer_code within the batch
// for the duplicate check (first occurrence kept).
func validateCustomerRow(row map[string]string, rowNum int, seen map[string]bool) *RowError {
	code := normalizeText(row["customer_code"])
	row["customer_code"] = code
	if code == "" {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "customer_code is required", Row: row}
	}
	if seen[code] {
		return &RowError{RowNum: rowNum, Code: ErrDuplicateCustomer, Message: "duplicate customer_code in batch: " + code, Row: row}
	}
	seen[code] = true

	if email, ok := row["email"]; ok && strings.TrimSpace(email) != "" {
		normalized := normalizeEmail(email)
		row["email"] = normalized
		if !validEmail(normalized) {
			return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "invalid email: " + email, Row: row}
		}
	}

	if postal, ok := row["postal_code"]; ok && strings.TrimSpace(postal) != "" {
		postal = normalizeText(postal)
		row["postal_code"] = postal
		if !validPostalCode(postal) {
			return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "invalid postal_code: " + postal, Row: row}
		}
	}

	if phone, ok := row["phone"]; ok {
		row["phone"] = normalizePhone(phone)
	}
	for _, field := range []string{"last_name", "first_name", "address", "city", "country"} {
		if v, ok := row[field]; ok {
			row[field] = normalizeText(v)
		}
	}

	return nil
}

// validateSalesLineRow applies spec.md 4.3 item 3's sales_lines rules and
// item 4's cross-batch checks when refs is non-nil.
func validateSalesLineRow(row map[string]string, rowNum int, refs *ReferenceSets) *RowError {
	customerCode := normalizeText(row["customer_code"])
	row["customer_code"] = customerCode
	if customerCode == "" {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "customer_code is required", Row: row}
	}

	docRef := normalizeText(row["doc_ref"])
	row["doc_ref"] = docRef
	if docRef == "" {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "doc_ref is required", Row: row}
	}

	rawDate := row["order_date"]
	if strings.TrimSpace(rawDate) == "" {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "order_date is required", Row: row}
	}
	date, err := normalizeDate(rawDate)
	if err != nil {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "unparseable order_date: " + rawDate, Row: row}
	}
	row["order_date"] = date.Format("2006-01-02")

	productLabel := row["product_label"]
	labelNorm := normalizeProductLabel(productLabel)
	row["product_label_norm"] = labelNorm
	if labelNorm == "" {
		return &RowError{RowNum: rowNum, Code: ErrInvalidProductLabel, Message: "product_label could not be normalized", Row: row}
	}

	qty, err := normalizeDecimal(row["qty"])
	if err != nil || qty <= 0 {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "qty must be > 0", Row: row}
	}

	amountHT, err := normalizeDecimal(row["amount_ht"])
	if err != nil || amountHT < 0 {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "amount_ht must be >= 0", Row: row}
	}

	if raw, ok := row["amount_ttc"]; ok && strings.TrimSpace(raw) != "" {
		v, err := normalizeDecimal(raw)
		if err != nil || v < 0 {
			return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "amount_ttc must be >= 0", Row: row}
		}
	}
	if raw, ok := row["margin"]; ok && strings.TrimSpace(raw) != "" {
		v, err := normalizeDecimal(raw)
		if err != nil || v < 0 {
			return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "margin must be >= 0", Row: row}
		}
	}

	if refs != nil && refs.ValidCustomerCodes != nil && !refs.ValidCustomerCodes[customerCode] {
		return &RowError{RowNum: rowNum, Code: ErrCustomerNotFound, Message: "customer_code not found: " + customerCode, Row: row}
	}
	if refs != nil && refs.ValidAliases != nil && !refs.ValidAliases[labelNorm] {
		return &RowError{RowNum: rowNum, Code: ErrProductNotFound, Message: "product alias not found: " + labelNorm, Row: row}
	}

	return nil
}

// validateContactRow applies spec.md 4.3 item 3's contacts rules.
func validateContactRow(row map[string]string, rowNum int, refs *ReferenceSets) *RowError {
	customerCode := normalizeText(row["customer_code"])
	row["customer_code"] = customerCode
	if customerCode == "" {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "customer_code is required", Row: row}
	}

	rawDate := row["contact_date"]
	if strings.TrimSpace(rawDate) == "" {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "contact_date is required", Row: row}
	}
	date, err := normalizeDate(rawDate)
	if err != nil {
		return &RowError{RowNum: rowNum, Code: ErrValidation, Message: "unparseable contact_date: " + rawDate, Row: row}
	}
	row["contact_date"] = date.Format("2006-01-02")

	if refs != nil && refs.ValidCustomerCodes != nil && !refs.ValidCustomerCodes[customerCode] {
		return &RowError{RowNum: rowNum, Code: ErrCustomerNotFound, Message: "customer_code not found: " + customerCode, Row: row}
	}

	return nil
}
