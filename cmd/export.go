package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadscope/leadscope/pkg/storage"
)

// exportCmd represents the parent `export` command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Extract specific fields from the record set",
}

func exportAndPrint(cmd *cobra.Command, field string) error {
	region, _ := exportCmd.PersistentFlags().GetString("region")

	db, closeDB, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	recs, err := db.ListRecords(context.Background(), storage.RecordListOptions{Region: region})
	if err != nil {
		return err
	}

	for _, r := range recs {
		switch field {
		case "domains":
			fmt.Println(r.Domain)
		case "emails":
			if r.Email != "" {
				fmt.Println(r.Email)
			}
		case "phones":
			if r.Phone != "" {
				fmt.Println(r.Phone)
			}
		case "slugs":
			fmt.Println(r.Slug)
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.PersistentFlags().StringP("region", "r", "", "Only export records from this region")
}
