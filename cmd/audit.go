package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leadscope/leadscope/pkg/audit"
	"github.com/leadscope/leadscope/pkg/storage"
)

// auditCmd implements: leadscope audit
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit record quality and print a report",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		reportOnly, _ := cmd.Flags().GetBool("report-only")

		rules := audit.DefaultRules()
		if path := viper.GetString("audit_rules_file"); path != "" {
			var err error
			rules, err = audit.LoadRules(path)
			if err != nil {
				return err
			}
		}

		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		ctx := cmd.Context()
		if !reportOnly {
			sum, err := audit.Run(ctx, db, rules, region)
			if err != nil {
				return err
			}
			fmt.Printf("Audited %d records (%d errors)\n\n", sum.Processed, sum.Errored)
		}

		recs, err := db.ListRecords(ctx, storage.RecordListOptions{Region: region})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No records to report on.")
			return nil
		}

		printReport(audit.BuildReport(recs))
		return nil
	},
}

func printReport(rep audit.Report) {
	fmt.Printf("Total records: %d (%d clean, %d need review)\n\n", rep.Total, rep.Clean, rep.NeedsReview)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)

	fmt.Fprintln(w, "SEVERITY\tISSUES\t")
	for _, sev := range []string{storage.SeverityCritical, storage.SeverityWarning, storage.SeverityInfo} {
		if n := rep.BySeverity[sev]; n > 0 {
			fmt.Fprintf(w, "%s\t%d\t\n", sev, n)
		}
	}
	fmt.Fprintln(w, " \t \t")

	fmt.Fprintln(w, "ISSUE\tCOUNT\t")
	messages := make([]string, 0, len(rep.ByMessage))
	for m := range rep.ByMessage {
		messages = append(messages, m)
	}
	sort.Strings(messages)
	for _, m := range messages {
		fmt.Fprintf(w, "%s\t%d\t\n", m, rep.ByMessage[m])
	}
	fmt.Fprintln(w, " \t \t")

	fmt.Fprintln(w, "REGION\tRECORDS\tNEED REVIEW\t")
	regionKeys := make([]string, 0, len(rep.ByRegion))
	for r := range rep.ByRegion {
		regionKeys = append(regionKeys, r)
	}
	sort.Strings(regionKeys)
	for _, r := range regionKeys {
		rb := rep.ByRegion[r]
		fmt.Fprintf(w, "%s\t%d\t%d\t\n", r, rb.Total, rb.NeedsReview)
	}

	w.Flush()
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringP("region", "r", "", "Only audit records from this region")
	auditCmd.Flags().Bool("report-only", false, "Print the report without re-auditing")
}
