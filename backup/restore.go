package backup

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/diff"
	"github.com/structsync/structsync/introspect"
	"github.com/structsync/structsync/migrate"
	"github.com/structsync/structsync/schema"
)

var (
	// ErrMissingArchive means the archive path did not resolve.
	ErrMissingArchive = errors.New("backup archive does not exist")

	// ErrCorruptArchive means the archive is missing its structure
	// entry.
	ErrCorruptArchive = errors.New("backup archive has no structure entry")
)

// MissingTableDataError reports a table named in the archive's
// structure whose row-dump entry is absent.
type MissingTableDataError struct {
	Table string
}

func (e *MissingTableDataError) Error() string {
	return fmt.Sprintf("table %s is missing from the backup files", e.Table)
}

// Restore converges the database structure toward the archive's
// snapshot, then reloads every table's rows from its dump.
//
// All archive validation happens before any row is deleted. Structure
// migration, once started, is not rolled back if a later data stage
// fails; the caller must treat the database as possibly partial in
// that case.
func Restore(ctx context.Context, conn database.Conn, archivePath string) error {
	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingArchive, archivePath)
	}

	scratch, err := os.MkdirTemp("", "structsync-restore-*")
	if err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := extractArchive(archivePath, scratch); err != nil {
		return err
	}

	structurePath := filepath.Join(scratch, StructureEntry)
	data, err := os.ReadFile(structurePath)
	if err != nil {
		return fmt.Errorf("%w (%s)", ErrCorruptArchive, archivePath)
	}
	target, err := schema.Decode(data)
	if err != nil {
		return fmt.Errorf("parsing structure entry: %w", err)
	}

	tableNames := make([]string, 0, len(target))
	for name := range target {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	// Every table named in the structure must have a dump entry,
	// checked before anything is deleted.
	for _, tableName := range tableNames {
		if _, err := os.Stat(filepath.Join(scratch, tableName)); err != nil {
			return &MissingTableDataError{Table: tableName}
		}
	}

	// Structure convergence always precedes the data load.
	current, err := introspect.Snapshot(ctx, conn)
	if err != nil {
		return fmt.Errorf("reading current structure: %w", err)
	}
	plan := diff.Diff(current, target)
	if !plan.Empty() {
		if err := migrate.Apply(ctx, conn, plan); err != nil {
			return fmt.Errorf("converging structure: %w", err)
		}
	}

	for _, tableName := range tableNames {
		if err := reloadTable(ctx, conn, scratch, tableName); err != nil {
			return err
		}
	}
	return nil
}

// reloadTable deletes all rows and bulk-inserts the dump. DELETE, not
// TRUNCATE, so the engine's auto-increment counter semantics are
// preserved. The insert column list is exactly the dump header, which
// may differ from the live table's column order.
func reloadTable(ctx context.Context, conn database.Conn, scratch, tableName string) error {
	if err := conn.Execute(ctx, fmt.Sprintf("DELETE FROM %s;", database.QuoteIdent(tableName))); err != nil {
		return fmt.Errorf("clearing table %s: %w", tableName, err)
	}

	f, err := os.Open(filepath.Join(scratch, tableName))
	if err != nil {
		return fmt.Errorf("opening dump for %s: %w", tableName, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		// Empty table: nothing to load.
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading dump header for %s: %w", tableName, err)
	}

	quoted := make([]string, len(header))
	for i, col := range header {
		quoted[i] = database.QuoteIdent(col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		database.QuoteIdent(tableName), strings.Join(quoted, ", "), placeholders)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading dump row for %s: %w", tableName, err)
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if err := conn.Execute(ctx, insert, args...); err != nil {
			return fmt.Errorf("restoring table %s: %w", tableName, err)
		}
	}
	return nil
}

// extractArchive unpacks the zip into dir. Entry names are table
// names plus the structure entry; anything that would escape dir is
// rejected.
func extractArchive(archivePath, dir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		name := entry.Name
		if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("archive entry %q: invalid name", name)
		}
		src, err := entry.Open()
		if err != nil {
			return fmt.Errorf("opening archive entry %s: %w", name, err)
		}
		dst, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			src.Close()
			return fmt.Errorf("extracting entry %s: %w", name, err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			dst.Close()
			return fmt.Errorf("extracting entry %s: %w", name, err)
		}
		src.Close()
		if err := dst.Close(); err != nil {
			return fmt.Errorf("extracting entry %s: %w", name, err)
		}
	}
	return nil
}
