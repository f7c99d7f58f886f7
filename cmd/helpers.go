package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/blacklist"
	"github.com/leadscope/leadscope/pkg/classify"
	"github.com/leadscope/leadscope/pkg/regions"
	"github.com/leadscope/leadscope/pkg/storage"
)

// openDB opens the database under the process-level flock. The returned
// closer releases both.
func openDB(cmd *cobra.Command) (*storage.DB, func(), error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = "leadscope.sqlite"
	}

	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}

	return db, func() {
		db.Close()
		if err := lock.Unlock(); err != nil {
			utils.Log.Warnf("Releasing database lock: %v", err)
		}
	}, nil
}

// loadRegions returns the configured region table or the built-in default.
func loadRegions() (*regions.Config, error) {
	path := viper.GetString("regions_file")
	if path == "" {
		return regions.Default(), nil
	}
	return regions.Load(path)
}

// loadBlacklist returns the configured exclusion rules or the defaults.
func loadBlacklist() (*blacklist.Rules, error) {
	path := viper.GetString("blacklist_file")
	if path == "" {
		return blacklist.Default(), nil
	}
	return blacklist.Load(path)
}

// loadClassify returns the configured keyword config or the defaults.
func loadClassify() (classify.Config, error) {
	path := viper.GetString("classify_file")
	if path == "" {
		return classify.DefaultConfig(), nil
	}
	return classify.LoadConfig(path)
}
