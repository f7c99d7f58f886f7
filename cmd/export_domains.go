package cmd

import "github.com/spf13/cobra"

var exportDomainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Print the domain of every record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportAndPrint(cmd, "domains")
	},
}

func init() {
	exportCmd.AddCommand(exportDomainsCmd)
}
