package schema

import (
	"encoding/json"
	"fmt"
)

// Wire format: each column is a 4-element JSON array
// [type, "YES"|"NO", default|null, extra]. The same encoding is used
// for target structure files and the backup archive's structure entry.

const (
	nullableYes = "YES"
	nullableNo  = "NO"
)

// MarshalJSON encodes the column as its wire-format array.
func (c Column) MarshalJSON() ([]byte, error) {
	nullable := nullableNo
	if c.Nullable {
		nullable = nullableYes
	}
	return json.Marshal([4]any{c.Type, nullable, c.Default, c.Extra})
}

// UnmarshalJSON decodes the wire-format array.
func (c *Column) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("column definition: %w", err)
	}
	if len(fields) != 4 {
		return fmt.Errorf("column definition: expected 4 fields, got %d", len(fields))
	}

	var typeName, nullable, extra string
	if err := json.Unmarshal(fields[0], &typeName); err != nil {
		return fmt.Errorf("column type: %w", err)
	}
	if err := json.Unmarshal(fields[1], &nullable); err != nil {
		return fmt.Errorf("column nullable flag: %w", err)
	}
	var def *string
	if err := json.Unmarshal(fields[2], &def); err != nil {
		return fmt.Errorf("column default: %w", err)
	}
	if err := json.Unmarshal(fields[3], &extra); err != nil {
		return fmt.Errorf("column extra: %w", err)
	}

	c.Type = typeName
	c.Nullable = nullable == nullableYes
	c.Default = def
	c.Extra = extra
	return nil
}

// Encode renders the schema as indented wire-format JSON.
func (s Schema) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding structure: %w", err)
	}
	return data, nil
}

// Decode parses wire-format JSON into a schema.
func Decode(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding structure: %w", err)
	}
	return s, nil
}
