package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leadscope/leadscope/pkg/discovery"
	"github.com/leadscope/leadscope/pkg/search"
)

// discoverCmd implements: leadscope discover
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the web for candidate business sites in a region",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		category, _ := cmd.Flags().GetString("category")
		pages, _ := cmd.Flags().GetInt("pages")
		maxQueries, _ := cmd.Flags().GetInt("max-queries")
		delayMs, _ := cmd.Flags().GetInt("delay")

		apiKey := viper.GetString("google.api_key")
		cx := viper.GetString("google.cx")
		if apiKey == "" || cx == "" {
			return errors.New("search requires google.api_key and google.cx in ~/.leadscope.yaml")
		}

		cfg, err := loadRegions()
		if err != nil {
			return err
		}
		regionTerms, err := cfg.RegionTerms(region)
		if err != nil {
			return err
		}
		cat, err := cfg.Category(category)
		if err != nil {
			return err
		}

		rules, err := loadBlacklist()
		if err != nil {
			return err
		}

		db, closeDB, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		ctx := cmd.Context()
		processed, err := db.ProcessedDomains(ctx)
		if err != nil {
			return err
		}

		engine := &discovery.Engine{
			Store:      db,
			Provider:   search.NewCSEClient(apiKey, cx),
			Rules:      rules,
			Processed:  processed,
			Delay:      time.Duration(delayMs) * time.Millisecond,
			MaxQueries: maxQueries,
		}

		queries := discovery.BuildQueries(cat.QueryTemplates(), regionTerms, cat.SearchTerms, maxQueries)
		fmt.Printf("Running %d queries for %s / %s\n", len(queries), region, category)

		sum, err := engine.Discover(ctx, queries, region, category, pages)
		if err != nil {
			return err
		}

		fmt.Printf("Queries: %d (%d failed)\n", sum.Queries, sum.FailedQueries)
		fmt.Printf("Results: %d\n", sum.Results)
		fmt.Printf("Added: %d, updated: %d\n", sum.Added, sum.Updated)
		fmt.Printf("Skipped: %d blacklisted, %d already processed, %d duplicates, %d malformed\n",
			sum.Blacklisted, sum.AlreadyDone, sum.Duplicates, sum.Malformed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringP("region", "r", "", "Region key from the regions config (required)")
	discoverCmd.Flags().StringP("category", "c", "", "Category key from the regions config (required)")
	discoverCmd.Flags().Int("pages", 1, "Result pages to fetch per query")
	discoverCmd.Flags().Int("max-queries", discovery.DefaultMaxQueries, "Cap on generated queries per run")
	discoverCmd.Flags().Int("delay", 500, "Delay between search calls in milliseconds (floor 500)")
	discoverCmd.MarkFlagRequired("region")
	discoverCmd.MarkFlagRequired("category")
}
