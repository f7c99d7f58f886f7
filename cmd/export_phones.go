package cmd

import "github.com/spf13/cobra"

var exportPhonesCmd = &cobra.Command{
	Use:   "phones",
	Short: "Print every record's phone number, skipping records without one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportAndPrint(cmd, "phones")
	},
}

func init() {
	exportCmd.AddCommand(exportPhonesCmd)
}
