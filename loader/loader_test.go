package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structsync/structsync/schema"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "target.json",
		`{"users": {"id": ["INT","NO",null,"auto_increment"], "name": ["VARCHAR(50)","YES",null,""]}}`)

	target, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, target, "users")
	assert.True(t, target["users"]["id"].Equal(schema.Column{Type: "INT", Extra: "auto_increment"}))
	assert.True(t, target["users"]["name"].Equal(schema.Column{Type: "VARCHAR(50)", Nullable: true}))
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "target.yaml", `
tables:
  - name: users
    columns:
      - name: id
        type: int
        nullable: false
        extra: auto_increment
      - name: name
        type: varchar(50)
      - name: status
        type: varchar(10)
        default: "new"
`)

	target, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, target, "users")

	assert.True(t, target["users"]["id"].Equal(schema.Column{Type: "int", Extra: "auto_increment"}))

	// Nullability defaults to true when unset.
	assert.True(t, target["users"]["name"].Nullable)

	def := "new"
	assert.True(t, target["users"]["status"].Equal(schema.Column{Type: "varchar(10)", Nullable: true, Default: &def}))
}

func TestLoadYAMLRejectsDuplicateColumns(t *testing.T) {
	path := writeFile(t, "target.yml", `
tables:
  - name: users
    columns:
      - name: id
        type: int
      - name: id
        type: bigint
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "duplicate column")
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "target.toml", "")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported target structure format")
}
