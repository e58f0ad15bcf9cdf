// Package loader reads declared target-structure files. Two formats
// are accepted: the JSON wire format shared with backup archives, and
// a YAML document for hand-written targets. The extension picks the
// parser.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/structsync/structsync/schema"
)

// Load parses a target structure file.
func Load(filename string) (schema.Schema, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return LoadJSON(filename)
	case ".yaml", ".yml":
		return LoadYAML(filename)
	default:
		return nil, fmt.Errorf("unsupported target structure format: %s", filename)
	}
}
