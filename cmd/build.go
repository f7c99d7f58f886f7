package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadscope/leadscope/pkg/record"
)

// buildCmd implements: leadscope build
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Turn evaluated candidates into directory records",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		category, _ := cmd.Flags().GetString("category")
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")

		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		p := &record.Processor{Store: db}
		sum, err := p.Process(cmd.Context(), record.ProcessOptions{
			Region:   region,
			Category: category,
			Domain:   domain,
			Limit:    limit,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Processed: %d\n", sum.Processed)
		fmt.Printf("Listed: %d, rejected: %d, errored: %d\n", sum.Listed, sum.Rejected, sum.Errored)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("region", "r", "", "Only process candidates from this region")
	buildCmd.Flags().StringP("category", "c", "", "Only process candidates from this category")
	buildCmd.Flags().String("domain", "", "Only process this domain")
	buildCmd.Flags().Int("limit", 0, "Stop after this many candidates (0 = no limit)")
}
