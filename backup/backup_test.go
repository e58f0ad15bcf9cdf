package backup

import (
	"archive/zip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/schema"
)

type executed struct {
	stmt string
	args []any
}

// fakeConn serves canned tables for introspection and SELECT *, and
// records every Execute call.
type fakeConn struct {
	order    []string
	columns  map[string][]database.ColumnInfo
	data     map[string]*database.ResultSet
	executed []executed
}

func (f *fakeConn) Execute(ctx context.Context, stmt string, args ...any) error {
	f.executed = append(f.executed, executed{stmt: stmt, args: args})
	return nil
}

func (f *fakeConn) Query(ctx context.Context, stmt string, args ...any) (*database.ResultSet, error) {
	table := strings.TrimSuffix(strings.TrimPrefix(stmt, "SELECT * FROM `"), "`;")
	rs, ok := f.data[table]
	if !ok {
		return nil, fmt.Errorf("unexpected query %q", stmt)
	}
	return rs, nil
}

func (f *fakeConn) ListTableNames(ctx context.Context) ([]string, error) {
	return f.order, nil
}

func (f *fakeConn) DescribeColumns(ctx context.Context, table string) ([]database.ColumnInfo, error) {
	cols, ok := f.columns[table]
	if !ok {
		return nil, database.ErrTableNotFound
	}
	return cols, nil
}

func (f *fakeConn) statements() []string {
	out := make([]string, len(f.executed))
	for i, e := range f.executed {
		out[i] = e.stmt
	}
	return out
}

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func sourceConn() *fakeConn {
	return &fakeConn{
		order: []string{"users", "audit"},
		columns: map[string][]database.ColumnInfo{
			"users": {
				{Name: "id", Type: "int", Nullable: "NO", Extra: "auto_increment"},
				{Name: "name", Type: "varchar(50)", Nullable: "YES"},
			},
			"audit": {
				{Name: "id", Type: "int", Nullable: "NO", Extra: "auto_increment"},
			},
		},
		data: map[string]*database.ResultSet{
			"users": {
				Columns: []string{"id", "name"},
				Rows: [][]sql.NullString{
					{nullStr("1"), nullStr("alice")},
					{nullStr("2"), nullStr("bob, the builder")},
				},
			},
			"audit": {Columns: []string{"id"}},
		},
	}
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	entries := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = string(body)
	}
	return entries
}

func TestBackupArchiveLayout(t *testing.T) {
	conn := sourceConn()
	path, err := Backup(context.Background(), conn, t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, filepath.Base(path), "backup_")

	entries := readArchive(t, path)
	require.Contains(t, entries, StructureEntry)
	require.Contains(t, entries, "users")
	require.Contains(t, entries, "audit")

	snap, err := schema.Decode([]byte(entries[StructureEntry]))
	require.NoError(t, err)
	assert.Len(t, snap, 2)
	assert.True(t, snap["users"]["id"].Equal(schema.Column{Type: "int", Extra: "auto_increment"}))

	lines := strings.Split(strings.TrimSpace(entries["users"]), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name", lines[0])
	assert.Equal(t, "1,alice", lines[1])
	// Embedded delimiter gets standard CSV quoting.
	assert.Equal(t, `2,"bob, the builder"`, lines[2])

	// Empty table: entry present, body empty.
	assert.Empty(t, entries["audit"])
}

func TestRestoreMissingArchive(t *testing.T) {
	err := Restore(context.Background(), &fakeConn{}, filepath.Join(t.TempDir(), "nope.zip"))
	assert.ErrorIs(t, err, ErrMissingArchive)
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestRestoreCorruptArchive(t *testing.T) {
	path := writeZip(t, map[string]string{"users": "id\n1\n"})

	conn := &fakeConn{}
	err := Restore(context.Background(), conn, path)
	assert.ErrorIs(t, err, ErrCorruptArchive)
	assert.Empty(t, conn.executed)
}

func TestRestoreMissingTableData(t *testing.T) {
	structure := `{"users": {"id": ["int","NO",null,"auto_increment"]}}`
	path := writeZip(t, map[string]string{StructureEntry: structure})

	conn := &fakeConn{}
	err := Restore(context.Background(), conn, path)

	var missing *MissingTableDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "users", missing.Table)
	// Validation failed before anything was deleted.
	assert.Empty(t, conn.executed)
}

func TestBackupRestoreRoundTripIntoEmptyDatabase(t *testing.T) {
	src := sourceConn()
	path, err := Backup(context.Background(), src, t.TempDir())
	require.NoError(t, err)

	dst := &fakeConn{columns: map[string][]database.ColumnInfo{}, data: map[string]*database.ResultSet{}}
	require.NoError(t, Restore(context.Background(), dst, path))

	stmts := dst.statements()

	// Structure converges first: both tables created before any data
	// statement runs.
	require.GreaterOrEqual(t, len(stmts), 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE `audit`"), stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE `users`"), stmts[1])
	assert.Contains(t, stmts[1], "PRIMARY KEY (`id`)")

	// Then per-table delete and reload, audit first (sorted): empty
	// dump means no inserts.
	assert.Equal(t, "DELETE FROM `audit`;", stmts[2])
	assert.Equal(t, "DELETE FROM `users`;", stmts[3])

	var inserted [][]any
	for _, e := range dst.executed {
		if strings.HasPrefix(e.stmt, "INSERT INTO `users`") {
			assert.Equal(t, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?)", e.stmt)
			inserted = append(inserted, e.args)
		}
		assert.False(t, strings.HasPrefix(e.stmt, "INSERT INTO `audit`"))
	}
	assert.ElementsMatch(t, [][]any{
		{any("1"), any("alice")},
		{any("2"), any("bob, the builder")},
	}, inserted)
}

func TestRestoreSkipsMigrationWhenStructureMatches(t *testing.T) {
	src := sourceConn()
	path, err := Backup(context.Background(), src, t.TempDir())
	require.NoError(t, err)

	// Destination already matches the archived structure.
	dst := sourceConn()
	dst.executed = nil
	require.NoError(t, Restore(context.Background(), dst, path))

	for _, stmt := range dst.statements() {
		assert.False(t, strings.HasPrefix(stmt, "CREATE TABLE"), stmt)
		assert.False(t, strings.HasPrefix(stmt, "ALTER TABLE"), stmt)
		assert.False(t, strings.HasPrefix(stmt, "DROP"), stmt)
	}
}

func TestRestoreInsertsUsingDumpHeaderOrder(t *testing.T) {
	structure := `{"users": {"id": ["int","NO",null,""], "name": ["varchar(50)","YES",null,""]}}`
	// Dump header order differs from the structure's column order.
	path := writeZip(t, map[string]string{
		StructureEntry: structure,
		"users":        "name,id\nalice,1\n",
	})

	dst := &fakeConn{
		order: []string{"users"},
		columns: map[string][]database.ColumnInfo{
			"users": {
				{Name: "id", Type: "int", Nullable: "NO"},
				{Name: "name", Type: "varchar(50)", Nullable: "YES"},
			},
		},
	}
	require.NoError(t, Restore(context.Background(), dst, path))

	var insert *executed
	for i := range dst.executed {
		if strings.HasPrefix(dst.executed[i].stmt, "INSERT") {
			insert = &dst.executed[i]
		}
	}
	require.NotNil(t, insert)
	assert.Equal(t, "INSERT INTO `users` (`name`, `id`) VALUES (?, ?)", insert.stmt)
	assert.Equal(t, []any{"alice", "1"}, insert.args)
}

func TestEmptyTableSurvivesRoundTrip(t *testing.T) {
	src := &fakeConn{
		order: []string{"empty"},
		columns: map[string][]database.ColumnInfo{
			"empty": {{Name: "id", Type: "int", Nullable: "NO", Extra: "auto_increment"}},
		},
		data: map[string]*database.ResultSet{
			"empty": {Columns: []string{"id"}},
		},
	}
	path, err := Backup(context.Background(), src, t.TempDir())
	require.NoError(t, err)

	dst := &fakeConn{}
	require.NoError(t, Restore(context.Background(), dst, path))

	stmts := dst.statements()
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE `empty`"), stmts[0])
	assert.Equal(t, "DELETE FROM `empty`;", stmts[1])
}
