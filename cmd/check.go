package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/structsync/structsync/database"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check database connectivity and report the table count",
	Long: `Check that the database is reachable and report how many tables it
currently has.

Examples:
  structsync check                 # Check current state
  structsync check --timeout 10s   # Set custom timeout
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkDatabase(); err != nil {
			fmt.Printf("❌ Check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Check completed successfully")
	},
}

func checkDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	db, err := database.Get()
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		return err
	}

	names, err := db.ListTableNames(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("📊 Found %d table(s)\n", len(names))
	return nil
}

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "Timeout for the connectivity check")
}
