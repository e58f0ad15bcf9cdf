// Package backup packages a structure snapshot plus per-table row
// dumps into a single zip archive, and restores a database from one:
// structure convergence first, then a delete-and-reload of every
// table's rows. Statements run in autocommit mode; there is no
// multi-statement transaction boundary.
package backup

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/introspect"
)

// StructureEntry is the archive entry holding the wire-format
// structure snapshot. Every other entry is named for a table and
// holds that table's CSV dump.
const StructureEntry = "tableStructure"

// Backup snapshots the database structure and all row data into a
// zip archive under outDir, and returns the written path. The
// filename carries a second-resolution capture timestamp; uniqueness
// within a second is the caller's responsibility.
//
// One table's rows are buffered at a time. Empty tables still get an
// archive entry (with no body) so restore can tell "empty but
// expected" from "missing".
func Backup(ctx context.Context, conn database.Conn, outDir string) (string, error) {
	snap, err := introspect.Snapshot(ctx, conn)
	if err != nil {
		return "", fmt.Errorf("reading structure: %w", err)
	}

	structure, err := snap.Encode()
	if err != nil {
		return "", err
	}

	path := filepath.Join(outDir, fmt.Sprintf("backup_%s.zip", time.Now().Format("20060102_15:04:05")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	entry, err := zw.Create(StructureEntry)
	if err != nil {
		return "", fmt.Errorf("creating structure entry: %w", err)
	}
	if _, err := entry.Write(structure); err != nil {
		return "", fmt.Errorf("writing structure entry: %w", err)
	}

	tableNames := make([]string, 0, len(snap))
	for name := range snap {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	for _, tableName := range tableNames {
		if err := dumpTable(ctx, conn, zw, tableName); err != nil {
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalizing archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing archive: %w", err)
	}
	return path, nil
}

// dumpTable writes one table's rows as a CSV entry. The header row is
// the query result's column order; NULL values are written as empty
// fields (the dump is text, restore inserts captured text as-is).
func dumpTable(ctx context.Context, conn database.Conn, zw *zip.Writer, tableName string) error {
	entry, err := zw.Create(tableName)
	if err != nil {
		return fmt.Errorf("creating entry for %s: %w", tableName, err)
	}

	rs, err := conn.Query(ctx, fmt.Sprintf("SELECT * FROM %s;", database.QuoteIdent(tableName)))
	if err != nil {
		return fmt.Errorf("dumping table %s: %w", tableName, err)
	}

	// Empty table: the entry exists, the body stays empty.
	if len(rs.Rows) == 0 {
		return nil
	}

	w := csv.NewWriter(entry)
	if err := w.Write(rs.Columns); err != nil {
		return fmt.Errorf("writing header for %s: %w", tableName, err)
	}
	record := make([]string, len(rs.Columns))
	for _, row := range rs.Rows {
		for i, v := range row {
			record[i] = v.String
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row for %s: %w", tableName, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing dump for %s: %w", tableName, err)
	}
	return nil
}
