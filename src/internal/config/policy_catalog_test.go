package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "institutions.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadPolicyCatalog(t *testing.T) {
	path := writeCatalog(t, `
institutions:
  - id: BANK_A
    fxPositionAccounts:
      usd: "FX-USD"
      EUR: " FX-EUR "
    feeIncomeAccount: "FEE-INCOME"
    disputeSuspenseAccount: "SUSPENSE"
    maxTransactionAmount: "250000"
    reversalApprovalThreshold: "5000"
    fee:
      rate: "0.005"
      fixed: "1.50"
      cap: "50"
    accountCustomFields:
      schemaVersion: 2
      fields:
        - name: branchCode
          type: string
          required: true
    transactionCustomFields:
      schemaVersion: 1
      fields:
        - name: channel
          type: String
`)

	policies, err := LoadPolicyCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	policy, ok := policies["BANK_A"]
	if !ok {
		t.Fatal("BANK_A not loaded")
	}
	if policy.FXPositionAccounts["USD"] != "FX-USD" {
		t.Fatalf("currency keys not normalized: %+v", policy.FXPositionAccounts)
	}
	if policy.FXPositionAccounts["EUR"] != "FX-EUR" {
		t.Fatalf("account numbers not trimmed: %+v", policy.FXPositionAccounts)
	}
	if !policy.MaxTransactionAmount.Equal(decimal.RequireFromString("250000")) {
		t.Fatalf("maxTransactionAmount = %s", policy.MaxTransactionAmount)
	}
	if !policy.Fee.Fixed.Equal(decimal.RequireFromString("1.50")) {
		t.Fatalf("fee.fixed = %s", policy.Fee.Fixed)
	}
	if policy.AccountCustomFields.SchemaVersion != 2 {
		t.Fatalf("schema version = %d", policy.AccountCustomFields.SchemaVersion)
	}
	if policy.TransactionCustomFields.Fields[0].Type != domain.CustomFieldTypeString {
		t.Fatalf("field type not normalized: %q", policy.TransactionCustomFields.Fields[0].Type)
	}
}

func TestLoadPolicyCatalogRejectsDuplicateInstitution(t *testing.T) {
	path := writeCatalog(t, `
institutions:
  - id: BANK_A
  - id: BANK_A
`)
	if _, err := LoadPolicyCatalog(path); err == nil {
		t.Fatal("expected duplicate institution error")
	}
}

func TestLoadPolicyCatalogRejectsBadAmount(t *testing.T) {
	path := writeCatalog(t, `
institutions:
  - id: BANK_A
    maxTransactionAmount: "lots"
`)
	if _, err := LoadPolicyCatalog(path); err == nil {
		t.Fatal("expected invalid amount error")
	}
}

func TestLoadPolicyCatalogRejectsUnknownFieldType(t *testing.T) {
	path := writeCatalog(t, `
institutions:
  - id: BANK_A
    accountCustomFields:
      schemaVersion: 1
      fields:
        - name: weird
          type: blob
`)
	if _, err := LoadPolicyCatalog(path); err == nil {
		t.Fatal("expected unknown field type error")
	}
}

func TestNormalizeConnectionString(t *testing.T) {
	got := normalizeConnectionString("Host=db;Port=5432;Database=ledger;Username=app;Password=secret;Timeout=30")
	want := "host=db port=5432 dbname=ledger user=app password=secret connect_timeout=30 sslmode=disable"
	if got != want {
		t.Fatalf("normalizeConnectionString:\n got %q\nwant %q", got, want)
	}

	withSSL := normalizeConnectionString("Host=db;Database=ledger;SslMode=require")
	if withSSL != "host=db dbname=ledger sslmode=require" {
		t.Fatalf("explicit sslmode mangled: %q", withSSL)
	}
}
