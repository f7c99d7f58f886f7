package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadscope/leadscope/pkg/classify"
	"github.com/leadscope/leadscope/pkg/crawler"
)

// crawlCmd implements: leadscope crawl
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl and classify pending candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		category, _ := cmd.Flags().GetString("category")
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")
		reconcileOnly, _ := cmd.Flags().GetBool("reconcile-only")
		delayMs, _ := cmd.Flags().GetInt("delay")

		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		clsCfg, err := loadClassify()
		if err != nil {
			return err
		}

		fetcher, err := crawler.NewCollyFetcher(30*time.Second, time.Duration(delayMs)*time.Millisecond)
		if err != nil {
			return err
		}
		c := crawler.New(fetcher)
		c.Delay = time.Duration(delayMs) * time.Millisecond

		runner := &crawler.Runner{
			Store:      db,
			Crawler:    c,
			Classifier: classify.New(clsCfg),
		}
		opts := crawler.RunOptions{Region: region, Category: category, Domain: domain, Limit: limit}

		ctx := cmd.Context()

		// Pick up anything a previous run crawled but never transitioned.
		reconciled, err := runner.Reconcile(ctx, opts)
		if err != nil {
			return err
		}
		if reconciled.Processed > 0 {
			fmt.Printf("Reconciled %d candidates from the crawl cache (%d errors)\n",
				reconciled.Evaluated, reconciled.Errored)
		}
		if reconcileOnly {
			return nil
		}

		sum, err := runner.Run(ctx, opts)
		if err != nil {
			return err
		}

		fmt.Printf("Processed: %d\n", sum.Processed)
		fmt.Printf("Crawled: %d, from cache: %d\n", sum.Crawled, sum.Reconciled)
		fmt.Printf("Evaluated: %d, errored: %d\n", sum.Evaluated, sum.Errored)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringP("region", "r", "", "Only crawl candidates from this region")
	crawlCmd.Flags().StringP("category", "c", "", "Only crawl candidates from this category")
	crawlCmd.Flags().String("domain", "", "Only crawl this domain")
	crawlCmd.Flags().Int("limit", 0, "Stop after this many candidates (0 = no limit)")
	crawlCmd.Flags().Int("delay", 1200, "Delay between page fetches in milliseconds")
	crawlCmd.Flags().Bool("reconcile-only", false, "Only transition candidates with cached crawls, no fetching")
}
