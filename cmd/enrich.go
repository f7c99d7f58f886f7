package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leadscope/leadscope/pkg/enrich"
	"github.com/leadscope/leadscope/pkg/places"
)

// enrichCmd implements: leadscope enrich
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Cross-reference records against the external place directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")

		apiKey := viper.GetString("places.api_key")
		if apiKey == "" {
			return errors.New("enrichment requires places.api_key in ~/.leadscope.yaml")
		}

		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		e := enrich.New(db, places.NewClient(apiKey))
		sum, err := e.Run(cmd.Context(), region)
		if err != nil {
			if errors.Is(err, places.ErrQuotaExceeded) {
				fmt.Printf("Stopped on provider quota after %d records\n", sum.Processed)
			}
			return err
		}

		fmt.Printf("Processed: %d\n", sum.Processed)
		fmt.Printf("Matched: %d, unmatched: %d, errored: %d\n", sum.Matched, sum.Unmatched, sum.Errored)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringP("region", "r", "", "Only enrich records from this region")
}
