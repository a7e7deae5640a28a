package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// FacetMap is a JSON column holding optional capability payloads keyed by
// facet name. It implements driver.Valuer and sql.Scanner so it works with
// both PostgreSQL JSONB and SQLite JSON columns.
type FacetMap map[string]any

// Value implements driver.Valuer interface for database writes.
func (f FacetMap) Value() (driver.Value, error) {
	if len(f) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(f))
	if err != nil {
		return nil, fmt.Errorf("invalid facet map: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner interface for database reads.
func (f *FacetMap) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal facet map: unsupported type")
	}

	var m map[string]any
	if err := json.Unmarshal(bytes, &m); err != nil {
		return fmt.Errorf("invalid facet JSON in database: %w", err)
	}
	*f = m
	return nil
}
