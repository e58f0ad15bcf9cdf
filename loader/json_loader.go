package loader

import (
	"fmt"
	"os"

	"github.com/structsync/structsync/schema"
)

// LoadJSON reads a wire-format structure file:
// {table: {column: [type, "YES"|"NO", default|null, extra]}}.
func LoadJSON(filename string) (schema.Schema, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading structure file: %w", err)
	}
	s, err := schema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return s, nil
}
