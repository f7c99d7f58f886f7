package cmd

import "github.com/spf13/cobra"

var exportEmailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Print every record's email address, skipping records without one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportAndPrint(cmd, "emails")
	},
}

func init() {
	exportCmd.AddCommand(exportEmailsCmd)
}
