package migrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/diff"
	"github.com/structsync/structsync/introspect"
	"github.com/structsync/structsync/schema"
)

// autoIncrementMarker in a column's Extra field drives primary-key
// inference for newly created tables.
const autoIncrementMarker = "auto_increment"

const tableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci"

// UnsupportedSchemaError reports a target table definition the
// migrator refuses to render, e.g. more than one auto_increment
// column in a single table. Detected before any DDL is issued.
type UnsupportedSchemaError struct {
	Table   string
	Columns []string
	Reason  string
}

func (e *UnsupportedSchemaError) Error() string {
	return fmt.Sprintf("unsupported schema for table %s: %s (columns: %s)",
		e.Table, e.Reason, strings.Join(e.Columns, ", "))
}

// Statements renders the plan into ordered DDL. The current structure
// decides whether an entry under Add is a whole-table creation or
// column additions to a pre-existing table. Statement order is fixed:
// removals, then column edits, then table creations, then column
// additions. Map iteration is sorted so output is deterministic.
func Statements(plan *diff.Plan, current schema.Schema) ([]string, error) {
	if err := validate(plan, current); err != nil {
		return nil, err
	}

	var stmts []string

	editTables := sortedKeys(plan.Edit)

	// Removals first: table drops and column drops.
	for _, tableName := range editTables {
		edit := plan.Edit[tableName]
		if edit.DropTable {
			stmts = append(stmts, fmt.Sprintf("DROP TABLE %s;", database.QuoteIdent(tableName)))
			continue
		}
		for _, colName := range sortedKeys(edit.Columns) {
			if edit.Columns[colName].Drop {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;",
					database.QuoteIdent(tableName), database.QuoteIdent(colName)))
			}
		}
	}

	// Column edits.
	for _, tableName := range editTables {
		edit := plan.Edit[tableName]
		if edit.DropTable {
			continue
		}
		for _, colName := range sortedKeys(edit.Columns) {
			colEdit := edit.Columns[colName]
			if colEdit.Drop {
				continue
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
				database.QuoteIdent(tableName), columnClause(colName, colEdit.Col)))
		}
	}

	addTables := sortedKeys(plan.Add)

	// Whole-table creations.
	for _, tableName := range addTables {
		if _, exists := current[tableName]; exists {
			continue
		}
		stmts = append(stmts, createTableStatement(tableName, plan.Add[tableName]))
	}

	// Column additions to pre-existing tables.
	for _, tableName := range addTables {
		if _, exists := current[tableName]; !exists {
			continue
		}
		added := plan.Add[tableName]
		for _, colName := range sortedKeys(added) {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD %s;",
				database.QuoteIdent(tableName), columnClause(colName, added[colName])))
		}
	}

	return stmts, nil
}

// Apply re-reads the live structure, renders the plan and executes
// each statement immediately. Autocommit only: a failure partway
// leaves the schema in a mixed state and is surfaced as-is.
func Apply(ctx context.Context, conn database.Conn, plan *diff.Plan) error {
	current, err := introspect.Snapshot(ctx, conn)
	if err != nil {
		return fmt.Errorf("reading current structure: %w", err)
	}

	stmts, err := Statements(plan, current)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if err := conn.Execute(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// validate rejects plans the renderer cannot express before any
// statement is built.
func validate(plan *diff.Plan, current schema.Schema) error {
	for _, tableName := range sortedKeys(plan.Add) {
		if _, exists := current[tableName]; exists {
			continue
		}
		var autoInc []string
		for _, colName := range sortedKeys(plan.Add[tableName]) {
			if strings.Contains(plan.Add[tableName][colName].Extra, autoIncrementMarker) {
				autoInc = append(autoInc, colName)
			}
		}
		if len(autoInc) > 1 {
			return &UnsupportedSchemaError{
				Table:   tableName,
				Columns: autoInc,
				Reason:  "more than one auto_increment column",
			}
		}
	}
	return nil
}

// columnClause renders the canonical column definition:
// name, type, optional default, extra modifiers, nullability.
func columnClause(name string, col schema.Column) string {
	parts := []string{database.QuoteIdent(name), col.Type}
	if col.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT '%s'", strings.ReplaceAll(*col.Default, "'", "''")))
	}
	if col.Extra != "" {
		parts = append(parts, col.Extra)
	}
	if col.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

func createTableStatement(tableName string, table schema.Table) string {
	var clauses []string
	primaryKey := ""
	for _, colName := range sortedKeys(table) {
		col := table[colName]
		if strings.Contains(col.Extra, autoIncrementMarker) {
			primaryKey = colName
		}
		clauses = append(clauses, columnClause(colName, col))
	}
	if primaryKey != "" {
		clauses = append(clauses, fmt.Sprintf("PRIMARY KEY (%s)", database.QuoteIdent(primaryKey)))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s) %s;",
		database.QuoteIdent(tableName), strings.Join(clauses, ", "), tableOptions)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
