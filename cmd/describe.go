package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leadscope/leadscope/pkg/ai"
)

// describeCmd implements: leadscope describe
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Generate listing copy for records that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")

		describer, err := ai.NewDescriber(ai.Config{
			APIKey: viper.GetString("openai.api_key"),
			Model:  viper.GetString("openai.model"),
		})
		if err != nil {
			return err
		}

		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		g := ai.NewGenerator(db, describer)
		sum, err := g.Run(cmd.Context(), region)
		if err != nil {
			return err
		}

		fmt.Printf("Processed: %d\n", sum.Processed)
		fmt.Printf("Generated: %d, skipped: %d, errored: %d\n", sum.Generated, sum.Skipped, sum.Errored)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringP("region", "r", "", "Only generate for records from this region")
}
