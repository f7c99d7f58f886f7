package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about candidates and records in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		ctx := cmd.Context()

		candidateStats, err := db.GetCandidateStats(ctx)
		if err != nil {
			return err
		}
		regionStats, err := db.GetRegionStats(ctx)
		if err != nil {
			return err
		}

		if len(candidateStats) == 0 && len(regionStats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)

		fmt.Fprintln(w, "STATUS\tCANDIDATES\t")
		var totalCandidates int
		for _, s := range candidateStats {
			fmt.Fprintf(w, "%s\t%d\t\n", s.Status, s.Count)
			totalCandidates += s.Count
		}
		fmt.Fprintln(w, " \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t\n", totalCandidates)

		if len(regionStats) > 0 {
			fmt.Fprintln(w, " \t \t")
			fmt.Fprintln(w, "REGION\tRECORDS\tNEED REVIEW\t")
			var totalRecords, totalReview int
			for _, s := range regionStats {
				fmt.Fprintf(w, "%s\t%d\t%d\t\n", s.Region, s.RecordCount, s.NeedsReview)
				totalRecords += s.RecordCount
				totalReview += s.NeedsReview
			}
			fmt.Fprintln(w, " \t \t \t")
			fmt.Fprintf(w, "TOTAL\t%d\t%d\t\n", totalRecords, totalReview)
		}

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
