package cmd

import "github.com/spf13/cobra"

var exportSlugsCmd = &cobra.Command{
	Use:   "slugs",
	Short: "Print the slug of every record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportAndPrint(cmd, "slugs")
	},
}

func init() {
	exportCmd.AddCommand(exportSlugsCmd)
}
