package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/diff"
	"github.com/structsync/structsync/introspect"
	"github.com/structsync/structsync/loader"
	"github.com/structsync/structsync/migrate"
)

var (
	applyFile   string
	applyYes    bool
	applyDryRun bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Converge the database structure toward a target file",
	Long: `Compare the live database structure against a target structure file
and apply the data-definition statements needed to converge.

The target file is either wire-format JSON or YAML (see 'structsync init').
This action cannot be undone: dropped tables and columns lose their data.

Examples:
  structsync apply -f target.json        # Diff, confirm, apply
  structsync apply -f target.yaml --yes  # Skip the confirmation prompt
  structsync apply --dry-run             # Print the SQL without executing
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		target, err := loader.Load(applyFile)
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
			fmt.Println("✅ Database already matches the target structure.")
			return
		}

		stmts, err := migrate.Statements(plan, current)
		if err != nil {
			fmt.Println("❌ Rendering statements:", err)
			os.Exit(1)
		}

		if applyDryRun {
			fmt.Println("\n================ DRY RUN: Statement Preview ================")
			for _, stmt := range stmts {
				fmt.Println(stmt)
			}
			fmt.Println("============================================================")
			fmt.Println("(Dry run only. Nothing was executed.)")
			return
		}

		showPlan(plan, current)

		if !applyYes {
			fmt.Println("\n⚠️  This action cannot be undone.")
			if !confirm() {
				fmt.Println("Aborting")
				return
			}
		}

		fmt.Printf("Applying %d statement(s)...\n", len(stmts))
		if err := migrate.Apply(ctx, db, plan); err != nil {
			fmt.Println("❌ Applying structure changes:", err)
			os.Exit(1)
		}

		fmt.Println("✅ Database structure converged.")
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "target.json", "Target structure file (JSON or YAML)")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "Skip the confirmation prompt")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Preview the SQL that would be executed without applying it")
}
