package introspect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/schema"
)

type fakeConn struct {
	order   []string
	columns map[string][]database.ColumnInfo
}

func (f *fakeConn) Execute(ctx context.Context, stmt string, args ...any) error { return nil }

func (f *fakeConn) Query(ctx context.Context, stmt string, args ...any) (*database.ResultSet, error) {
	return &database.ResultSet{}, nil
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

func TestDescribeTable(t *testing.T) {
	def := "0"
	conn := &fakeConn{
		order: []string{"users"},
		columns: map[string][]database.ColumnInfo{
			"users": {
				{Name: "id", Type: "int", Nullable: "NO", Extra: "auto_increment"},
				{Name: "score", Type: "int", Nullable: "YES", Default: &def},
			},
		},
	}

	table, err := DescribeTable(context.Background(), conn, "users")
	require.NoError(t, err)
	assert.True(t, table.Equal(schema.Table{
		"id":    {Type: "int", Nullable: false, Extra: "auto_increment"},
		"score": {Type: "int", Nullable: true, Default: &def},
	}))
}

func TestDescribeTableNotFound(t *testing.T) {
	conn := &fakeConn{columns: map[string][]database.ColumnInfo{}}

	_, err := DescribeTable(context.Background(), conn, "ghost")
	assert.ErrorIs(t, err, database.ErrTableNotFound)
}

func TestSnapshot(t *testing.T) {
	conn := &fakeConn{
		order: []string{"a", "b"},
		columns: map[string][]database.ColumnInfo{
			"a": {{Name: "id", Type: "int", Nullable: "NO"}},
			"b": {},
		},
	}

	snap, err := Snapshot(context.Background(), conn)
	require.NoError(t, err)
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, "a")
	// A table with no columns still appears in the snapshot.
	assert.Contains(t, snap, "b")
}

func TestSnapshotPropagatesRace(t *testing.T) {
	// Table listed but dropped before DescribeColumns ran.
	conn := &fakeConn{
		order:   []string{"vanished"},
		columns: map[string][]database.ColumnInfo{},
	}

	_, err := Snapshot(context.Background(), conn)
	assert.ErrorIs(t, err, database.ErrTableNotFound)
}
