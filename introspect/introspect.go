package introspect

import (
	"context"
	"fmt"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/schema"
)

// ListTables returns the names of all tables in the connected
// database, in the order the server reports them.
func ListTables(ctx context.Context, conn database.Conn) ([]string, error) {
	names, err := conn.ListTableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

// DescribeTable reads the column definitions for one table. The table
// may disappear between ListTables and this call if external DDL runs
// concurrently; database.ErrTableNotFound propagates in that case.
func DescribeTable(ctx context.Context, conn database.Conn, name string) (schema.Table, error) {
	cols, err := conn.DescribeColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	table := schema.Table{}
	for _, col := range cols {
		table[col.Name] = schema.Column{
			Type:     col.Type,
			Nullable: col.Nullable == "YES",
			Default:  col.Default,
			Extra:    col.Extra,
		}
	}
	return table, nil
}

// Snapshot builds a fresh structure snapshot of the whole database.
// No locks are held: the result reflects whatever each DescribeTable
// call last observed.
func Snapshot(ctx context.Context, conn database.Conn) (schema.Schema, error) {
	names, err := ListTables(ctx, conn)
	if err != nil {
		return nil, err
	}

	snap := schema.Schema{}
	for _, name := range names {
		table, err := DescribeTable(ctx, conn, name)
		if err != nil {
			return nil, err
		}
		snap[name] = table
	}
	return snap, nil
}
