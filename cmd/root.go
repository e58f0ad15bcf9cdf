package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "structsync",
	Short: "Declarative structure sync and backup tool for MySQL",
	Long: `structsync converges a MySQL database toward a declared target
structure and creates portable structure+data backups.

Examples:

  structsync init
  structsync diff -f target.json
  structsync apply -f target.json
  structsync backup -o ./backups
  structsync restore ./backups/backup_20260830_12:00:00.zip
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// confirm asks the user to type "confirm" before a destructive step.
func confirm() bool {
	fmt.Print("Type confirm to continue > ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "confirm"
}

// Register subcommands
func init() {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
}
