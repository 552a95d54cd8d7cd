package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCustomerRowRequiresCode(t *testing.T) {
	row := map[string]string{"customer_code": ""}
	err := validateCustomerRow(row, 1, map[string]bool{})
	assert.NotNil(t, err)
	assert.Equal(t, ErrValidation, err.Code)
}

func TestValidateCustomerRowDetectsDuplicateWithinBatch(t *testing.T) {
	seen := map[string]bool{}
	row1 := map[string]string{"customer_code": "C1"}
	assert.Nil(t, validateCustomerRow(row1, 1, seen))

	row2 := map[string]string{"customer_code": "C1"}
	err := validateCustomerRow(row2, 2, seen)
	assert.NotNil(t, err)
	assert.Equal(t, ErrDuplicateCustomer, err.Code)
}

func TestValidateCustomerRowRejectsBadEmailAndPostalCode(t *testing.T) {
	row := map[string]string{"customer_code": "C1", "email": "not-an-email"}
	err := validateCustomerRow(row, 1, map[string]bool{})
	assert.NotNil(t, err)
	assert.Equal(t, ErrValidation, err.Code)

	row = map[string]string{"customer_code": "C1", "postal_code": "*"}
	err = validateCustomerRow(row, 1, map[string]bool{})
	assert.NotNil(t, err)
}

func TestValidateSalesLineRowRequiresCoreFields(t *testing.T) {
	row := map[string]string{"customer_code": "", "doc_ref": "", "order_date": ""}
	err := validateSalesLineRow(row, 1, nil)
	assert.NotNil(t, err)
}

func TestValidateSalesLineRowSucceedsAndNormalizes(t *testing.T) {
	row := map[string]string{
		"customer_code": "C1",
		"doc_ref":       "INV-1",
		"order_date":    "15/01/2026",
		"product_label": "Chateau Margaux",
		"qty":           "2",
		"amount_ht":     "40,00",
	}
	err := validateSalesLineRow(row, 1, nil)
	assert.Nil(t, err)
	assert.Equal(t, "2026-01-15", row["order_date"])
	assert.Equal(t, "chateau margaux", row["product_label_norm"])
}

func TestValidateSalesLineRowRejectsZeroOrNegativeQty(t *testing.T) {
	row := map[string]string{
		"customer_code": "C1", "doc_ref": "INV-1", "order_date": "2026-01-15",
		"product_label": "X", "qty": "0", "amount_ht": "10",
	}
	err := validateSalesLineRow(row, 1, nil)
	assert.NotNil(t, err)
}

func TestValidateSalesLineRowCrossBatchChecks(t *testing.T) {
	row := map[string]string{
		"customer_code": "unknown", "doc_ref": "INV-1", "order_date": "2026-01-15",
		"product_label": "X", "qty": "1", "amount_ht": "10",
	}
	refs := &ReferenceSets{ValidCustomerCodes: map[string]bool{"C1": true}}
	err := validateSalesLineRow(row, 1, refs)
	assert.NotNil(t, err)
	assert.Equal(t, ErrCustomerNotFound, err.Code)

	row["customer_code"] = "C1"
	refs.ValidAliases = map[string]bool{}
	err = validateSalesLineRow(row, 1, refs)
	assert.NotNil(t, err)
	assert.Equal(t, ErrProductNotFound, err.Code)
}

func TestValidateContactRowRequiresDate(t *testing.T) {
	row := map[string]string{"customer_code": "C1", "contact_date": ""}
	err := validateContactRow(row, 1, nil)
	assert.NotNil(t, err)
}

func TestValidateContactRowSucceeds(t *testing.T) {
	row := map[string]string{"customer_code": "C1", "contact_date": "2026-01-15"}
	err := validateContactRow(row, 1, nil)
	assert.Nil(t, err)
	assert.Equal(t, "2026-01-15", row["contact_date"])
}
