package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structsync/structsync/backup"
	"github.com/structsync/structsync/database"
)

var backupOutDir string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a structure+data backup archive",
	Long: `Snapshot the database structure and every table's rows into a single
zip archive named with the capture time.

Examples:
  structsync backup               # Write the archive to the current directory
  structsync backup -o ./backups  # Custom destination directory
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		db, err := database.Get()
		if err != nil {
			fmt.Println("❌ Connecting:", err)
			os.Exit(1)
		}

		path, err := backup.Backup(ctx, db, backupOutDir)
		if err != nil {
			fmt.Println("❌ Backup failed:", err)
			os.Exit(1)
		}

		fmt.Println("✅ Backup created:", path)
	},
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutDir, "output", "o", ".", "Directory to write the backup archive into")
}
