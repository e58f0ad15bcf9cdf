package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structsync/structsync/backup"
	"github.com/structsync/structsync/database"
)

var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Restore structure and data from a backup archive",
	Long: `Validate a backup archive, converge the database structure toward the
archived snapshot, then replace every table's rows with the archived
data.

Existing rows are deleted. This action cannot be undone.

Examples:
  structsync restore ./backups/backup_20260830_12:00:00.zip
  structsync restore backup.zip --yes
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		archivePath := args[0]

		db, err := database.Get()
		if err != nil {
			fmt.Println("❌ Connecting:", err)
			os.Exit(1)
		}

		if !restoreYes {
			fmt.Printf("⚠️  Restoring %s will delete all current rows in the archived tables.\n", archivePath)
			if !confirm() {
				fmt.Println("Aborting")
				return
			}
		}

		if err := backup.Restore(ctx, db, archivePath); err != nil {
			fmt.Println("❌ Restore failed:", err)
			os.Exit(1)
		}

		fmt.Println("✅ Database restored from backup:", archivePath)
	},
}

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Skip the confirmation prompt")
}
