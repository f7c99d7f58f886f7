package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// syncCmd implements: leadscope sync
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the processed-domains set from records and terminal candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		count, err := db.SyncProcessedDomains(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Processed set rebuilt: %d domains\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
