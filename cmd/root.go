package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/leadscope/leadscope/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leadscope",
	Short: "A lead discovery pipeline for local business directories.",
	Long: `leadscope finds local business websites through web search, crawls and
classifies them, and builds deduplicated directory records enriched with
external place data and generated copy.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.leadscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("dbpath", "", "", "Path to SQLite DB file (default: leadscope.sqlite in CWD)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".leadscope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.leadscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("google.api_key", "")
	viper.SetDefault("google.cx", "")
	viper.SetDefault("places.api_key", "")
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "")
	viper.SetDefault("regions_file", "")
	viper.SetDefault("blacklist_file", "")
	viper.SetDefault("classify_file", "")
	viper.SetDefault("audit_rules_file", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
