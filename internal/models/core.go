// Package models holds storage helpers shared by the gorm models.
package models

import (
	"database/sql/driver"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// JSON is a raw JSON document stored in a text column.
type JSON []byte

// NewJSON marshals v into a JSON column value.
func NewJSON(v any) (JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON column: %w", err)
	}
	return JSON(data), nil
}

// Scan implements sql.Scanner. SQLite hands back either []byte or string
// depending on the column affinity.
func (j *JSON) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan JSON value of type %T", value)
	}

	if !json.Valid(data) {
		return fmt.Errorf("failed to scan JSON value: invalid document")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// GormDataType tells AutoMigrate which column type to create.
func (JSON) GormDataType() string {
	return "json"
}

// MarshalJSON implements the json.Marshaler interface
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Decode unmarshals the stored document into v.
func (j JSON) Decode(v any) error {
	if len(j) == 0 {
		return fmt.Errorf("JSON column is empty")
	}
	return json.Unmarshal(j, v)
}

// PerformWrite executes a write transaction with retry logic for SQLite busy errors.
// This is a wrapper that delegates to cartridge's sqlite.PerformWrite implementation.
func PerformWrite(logger *slog.Logger, dbConn *gorm.DB, f func(tx *gorm.DB) error) error {
	return sqlite.PerformWrite(logger, dbConn, f)
}
