package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const sampleTarget = `# structsync target structure
# Apply with: structsync apply -f target.yaml
tables:
  - name: users
    columns:
      - name: id
        type: int
        nullable: false
        extra: auto_increment
      - name: name
        type: varchar(50)
      - name: created_at
        type: timestamp
        nullable: false
        default: CURRENT_TIMESTAMP
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample target structure file",
	Run: func(cmd *cobra.Command, args []string) {
		const filename = "target.yaml"

		if _, err := os.Stat(filename); err == nil {
			fmt.Printf("⚠️  %s already exists, not overwriting.\n", filename)
			return
		}

		if err := os.WriteFile(filename, []byte(sampleTarget), 0o644); err != nil {
			fmt.Println("❌ Writing sample file:", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Sample target structure written to %s\n", filename)
		fmt.Println("💡 Edit it, then run 'structsync diff -f target.yaml' to preview changes.")
	},
}
