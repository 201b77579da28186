package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Amounts and rates are strings in the catalog so institutions can express
// them exactly; they are parsed into decimals on load.
type policyCatalog struct {
	Institutions []institutionEntry `yaml:"institutions"`
}

type institutionEntry struct {
	ID                        string              `yaml:"id"`
	FXPositionAccounts        map[string]string   `yaml:"fxPositionAccounts"`
	FeeIncomeAccount          string              `yaml:"feeIncomeAccount"`
	DisputeSuspenseAccount    string              `yaml:"disputeSuspenseAccount"`
	MaxTransactionAmount      string              `yaml:"maxTransactionAmount"`
	ReversalApprovalThreshold string              `yaml:"reversalApprovalThreshold"`
	Fee                       feeEntry            `yaml:"fee"`
	AccountCustomFields       customFieldSetEntry `yaml:"accountCustomFields"`
	TransactionCustomFields   customFieldSetEntry `yaml:"transactionCustomFields"`
}

type feeEntry struct {
	Rate  string `yaml:"rate"`
	Fixed string `yaml:"fixed"`
	Cap   string `yaml:"cap"`
}

type customFieldSetEntry struct {
	SchemaVersion int              `yaml:"schemaVersion"`
	Fields        []customFieldDef `yaml:"fields"`
}

type customFieldDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

// LoadPolicyCatalog reads the per-institution policy file into the policies
// the ledger services consult on every operation.
func LoadPolicyCatalog(path string) (map[string]domain.InstitutionPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy catalog %q: %w", path, err)
	}

	var catalog policyCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse policy catalog %q: %w", path, err)
	}

	policies := make(map[string]domain.InstitutionPolicy, len(catalog.Institutions))
	for _, entry := range catalog.Institutions {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("policy catalog %q: institution with empty id", path)
		}
		if _, exists := policies[id]; exists {
			return nil, fmt.Errorf("policy catalog %q: duplicate institution %q", path, id)
		}

		policy, err := entry.toPolicy()
		if err != nil {
			return nil, fmt.Errorf("policy catalog %q: institution %q: %w", path, id, err)
		}
		policies[id] = policy
	}

	return policies, nil
}

func (e institutionEntry) toPolicy() (domain.InstitutionPolicy, error) {
	maxAmount, err := parseAmount(e.MaxTransactionAmount, "maxTransactionAmount")
	if err != nil {
		return domain.InstitutionPolicy{}, err
	}
	threshold, err := parseAmount(e.ReversalApprovalThreshold, "reversalApprovalThreshold")
	if err != nil {
		return domain.InstitutionPolicy{}, err
	}
	feeRate, err := parseAmount(e.Fee.Rate, "fee.rate")
	if err != nil {
		return domain.InstitutionPolicy{}, err
	}
	feeFixed, err := parseAmount(e.Fee.Fixed, "fee.fixed")
	if err != nil {
		return domain.InstitutionPolicy{}, err
	}
	feeCap, err := parseAmount(e.Fee.Cap, "fee.cap")
	if err != nil {
		return domain.InstitutionPolicy{}, err
	}

	fxAccounts := make(map[string]string, len(e.FXPositionAccounts))
	for currency, accountNumber := range e.FXPositionAccounts {
		fxAccounts[domain.NormalizeCurrency(currency)] = strings.TrimSpace(accountNumber)
	}

	accountFields, err := e.AccountCustomFields.toSet("accountCustomFields")
	if err != nil {
		return domain.InstitutionPolicy{}, err
	}
	transactionFields, err := e.TransactionCustomFields.toSet("transactionCustomFields")
	if err != nil {
		return domain.InstitutionPolicy{}, err
	}

	return domain.InstitutionPolicy{
		InstitutionID:                strings.TrimSpace(e.ID),
		FXPositionAccounts:           fxAccounts,
		FeeIncomeAccountNumber:       strings.TrimSpace(e.FeeIncomeAccount),
		DisputeSuspenseAccountNumber: strings.TrimSpace(e.DisputeSuspenseAccount),
		MaxTransactionAmount:         maxAmount,
		ReversalApprovalThreshold:    threshold,
		Fee: domain.FeePolicy{
			Rate:  feeRate,
			Fixed: feeFixed,
			Cap:   feeCap,
		},
		AccountCustomFields:     accountFields,
		TransactionCustomFields: transactionFields,
	}, nil
}

func (e customFieldSetEntry) toSet(name string) (domain.CustomFieldSet, error) {
	set := domain.CustomFieldSet{SchemaVersion: e.SchemaVersion}
	for _, field := range e.Fields {
		fieldType := domain.CustomFieldType(strings.ToLower(strings.TrimSpace(field.Type)))
		switch fieldType {
		case domain.CustomFieldTypeString, domain.CustomFieldTypeNumber, domain.CustomFieldTypeDate:
		default:
			return domain.CustomFieldSet{}, fmt.Errorf("%s: field %q has unknown type %q", name, field.Name, field.Type)
		}
		set.Fields = append(set.Fields, domain.CustomFieldSpec{
			Name:     strings.TrimSpace(field.Name),
			Type:     fieldType,
			Required: field.Required,
		})
	}
	return set, nil
}

func parseAmount(raw string, name string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q", name, raw)
	}
	return value, nil
}
