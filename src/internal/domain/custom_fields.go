package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomFields carries institution-declared extension data on accounts and
// transactions. Values are validated at the boundary against the
// institution's declared field set; undeclared keys are rejected rather
// than stored as opaque blobs.
type CustomFields map[string]string

type CustomFieldType string

const (
	CustomFieldTypeString CustomFieldType = "string"
	CustomFieldTypeNumber CustomFieldType = "number"
	CustomFieldTypeDate   CustomFieldType = "date"
)

type CustomFieldSpec struct {
	Name     string
	Type     CustomFieldType
	Required bool
}

// CustomFieldSet is a versioned declaration of the fields an institution
// accepts. Bumping SchemaVersion is how a field set evolves.
type CustomFieldSet struct {
	SchemaVersion int
	Fields        []CustomFieldSpec
}

func (set CustomFieldSet) Validate(fields CustomFields) error {
	specs := make(map[string]CustomFieldSpec, len(set.Fields))
	for _, spec := range set.Fields {
		specs[spec.Name] = spec
	}

	var errs []string

	for name, value := range fields {
		spec, ok := specs[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("field %q is not declared", name))
			continue
		}
		if err := spec.checkValue(value); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for _, spec := range set.Fields {
		if !spec.Required {
			continue
		}
		if strings.TrimSpace(fields[spec.Name]) == "" {
			errs = append(errs, fmt.Sprintf("field %q is required", spec.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("custom fields invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (spec CustomFieldSpec) checkValue(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	switch spec.Type {
	case CustomFieldTypeNumber:
		if _, err := decimal.NewFromString(trimmed); err != nil {
			return fmt.Errorf("field %q must be a number", spec.Name)
		}
	case CustomFieldTypeDate:
		if _, err := time.Parse("2006-01-02", trimmed); err != nil {
			return fmt.Errorf("field %q must be a date (YYYY-MM-DD)", spec.Name)
		}
	}
	return nil
}
