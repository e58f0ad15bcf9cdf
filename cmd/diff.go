package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/diff"
	"github.com/structsync/structsync/introspect"
	"github.com/structsync/structsync/loader"
	"github.com/structsync/structsync/migrate"
	"github.com/structsync/structsync/schema"
)

var (
	diffFile string
	diffSQL  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show differences between a target file and the database",
	Long: `Show the changes needed for the live database to match a target
structure file, without applying anything.

Examples:
  structsync diff -f target.json   # Colored change summary
  structsync diff --sql            # Print the DDL that apply would run
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		target, err := loader.Load(diffFile)
		if err != nil {
			fmt.Println("❌ Loading target structure:", err)
			os.Exit(1)
		}

		db, err := database.Get()
		if err != nil {
			fmt.Println("❌ Connecting:", err)
			os.Exit(1)
		}

		current, err := introspect.Snapshot(ctx, db)
		if err != nil {
			fmt.Println("❌ Introspecting database:", err)
			os.Exit(1)
		}

		plan := diff.Diff(current, target)
		if plan.Empty() {
			fmt.Println("✅ No differences found between target and database")
			return
		}

		if diffSQL {
			stmts, err := migrate.Statements(plan, current)
			if err != nil {
				fmt.Println("❌ Rendering statements:", err)
				os.Exit(1)
			}
			for _, stmt := range stmts {
				fmt.Println(stmt)
			}
			return
		}

		showPlan(plan, current)
	},
}

// showPlan renders a colored change summary of the plan against the
// current structure.
func showPlan(plan *diff.Plan, current schema.Schema) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Println("🌳 Structure Changes")
	fmt.Println(strings.Repeat("=", 50))

	for _, tableName := range sortedNames(plan.Add) {
		added := plan.Add[tableName]
		if _, exists := current[tableName]; !exists {
			green.Printf("  ➕ CREATE TABLE %s\n", tableName)
			for _, colName := range sortedNames(added) {
				green.Printf("     + %s %s\n", colName, describeColumn(added[colName]))
			}
			continue
		}
		yellow.Printf("  ⚡ ALTER TABLE %s\n", tableName)
		for _, colName := range sortedNames(added) {
			green.Printf("     ➕ ADD %s %s\n", colName, describeColumn(added[colName]))
		}
	}

	for _, tableName := range sortedNames(plan.Edit) {
		edit := plan.Edit[tableName]
		if edit.DropTable {
			red.Printf("  ❌ DROP TABLE %s\n", tableName)
			continue
		}
		yellow.Printf("  ⚡ ALTER TABLE %s\n", tableName)
		for _, colName := range sortedNames(edit.Columns) {
			colEdit := edit.Columns[colName]
			if colEdit.Drop {
				red.Printf("     ❌ DROP %s\n", colName)
			} else {
				yellow.Printf("     🔄 MODIFY %s %s\n", colName, describeColumn(colEdit.Col))
			}
		}
	}
}

func describeColumn(col schema.Column) string {
	var b strings.Builder
	b.WriteString("(" + col.Type)
	if col.Extra != "" {
		b.WriteString(" " + col.Extra)
	}
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		fmt.Fprintf(&b, " DEFAULT '%s'", *col.Default)
	}
	b.WriteString(")")
	return b.String()
}

func sortedNames[M ~map[string]V, V any](m M) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	diffCmd.Flags().StringVarP(&diffFile, "file", "f", "target.json", "Target structure file (JSON or YAML)")
	diffCmd.Flags().BoolVar(&diffSQL, "sql", false, "Print the DDL statements instead of a summary")
}
