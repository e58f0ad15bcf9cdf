package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structsync/structsync/database"
	"github.com/structsync/structsync/introspect"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the live database structure to a target file",
	Long: `Snapshot the live database structure and write it as a wire-format
JSON file, ready to edit and re-apply with 'structsync apply'.

Examples:
  structsync export                  # Write structure.json
  structsync export -o prod.json     # Custom output path
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		db, err := database.Get()
		if err != nil {
			fmt.Println("❌ Connecting:", err)
			os.Exit(1)
		}

		snap, err := introspect.Snapshot(ctx, db)
		if err != nil {
			fmt.Println("❌ Introspecting database:", err)
			os.Exit(1)
		}

		data, err := snap.Encode()
		if err != nil {
			fmt.Println("❌ Encoding structure:", err)
			os.Exit(1)
		}

		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			fmt.Println("❌ Writing structure file:", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Structure exported: %s (%d tables)\n", exportOutput, len(snap))
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "structure.json", "Output file for the structure snapshot")
}
