package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

func customFieldsJSON(fields domain.CustomFields) ([]byte, error) {
	if len(fields) == 0 {
		return []byte("{}"), nil
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal custom fields: %w", err)
	}
	return payload, nil
}

func scanCustomFields(raw []byte) (domain.CustomFields, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var fields domain.CustomFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal custom fields: %w", err)
	}
	return fields, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}
