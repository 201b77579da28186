package domain_test

import (
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

func branchFieldSet() domain.CustomFieldSet {
	return domain.CustomFieldSet{
		SchemaVersion: 1,
		Fields: []domain.CustomFieldSpec{
			{Name: "branchCode", Type: domain.CustomFieldTypeString, Required: true},
			{Name: "openedOn", Type: domain.CustomFieldTypeDate},
			{Name: "riskScore", Type: domain.CustomFieldTypeNumber},
		},
	}
}

func TestCustomFieldSetValidate(t *testing.T) {
	set := branchFieldSet()

	if err := set.Validate(domain.CustomFields{
		"branchCode": "001",
		"openedOn":   "2026-08-01",
		"riskScore":  "3.5",
	}); err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}

	if err := set.Validate(domain.CustomFields{"branchCode": "001", "color": "blue"}); err == nil {
		t.Fatal("undeclared field must be rejected")
	}
	if err := set.Validate(domain.CustomFields{"openedOn": "2026-08-01"}); err == nil {
		t.Fatal("missing required field must be rejected")
	}
	if err := set.Validate(domain.CustomFields{"branchCode": "001", "openedOn": "August 1st"}); err == nil {
		t.Fatal("malformed date must be rejected")
	}
	if err := set.Validate(domain.CustomFields{"branchCode": "001", "riskScore": "high"}); err == nil {
		t.Fatal("non-numeric number field must be rejected")
	}
}

func TestCustomFieldSetValidateEmptyOptional(t *testing.T) {
	set := branchFieldSet()

	// Optional fields may be absent or blank.
	if err := set.Validate(domain.CustomFields{"branchCode": "001", "openedOn": ""}); err != nil {
		t.Fatalf("blank optional field rejected: %v", err)
	}
	if err := set.Validate(domain.CustomFields{"branchCode": "001"}); err != nil {
		t.Fatalf("absent optional field rejected: %v", err)
	}
}
