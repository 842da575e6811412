package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fairwind/fcr/internal/output"
	"github.com/fairwind/fcr/internal/review"
	"github.com/fairwind/fcr/internal/store"
	"github.com/fairwind/fcr/internal/workflow"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "fcr",
	Short: "Fair Competition Review - AI-assisted policy compliance workflow",
	Long: `fcr manages fair-competition compliance reviews of draft policy documents.
It tracks review projects through their lifecycle (draft, AI review,
departmental review, approval), runs AI risk analysis over policy text,
and records per-finding dispositions.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/fcr/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "fcr")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FCR")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "fcr")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "fcr.db"))
	viper.SetDefault("port", 8080)
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("review.business_type", review.DefaultBusinessType)
	viper.SetDefault("review.jurisdiction", review.DefaultJurisdiction)
	viper.SetDefault("review.timeout_seconds", 120)
	viper.SetDefault("review.demo", false)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// Store is opened lazily so config/version commands run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getGenerator picks the review generator: the real backend when an API key
// is configured, the demo generator otherwise or when review.demo is set.
func getGenerator() review.Generator {
	if viper.GetBool("review.demo") {
		return review.NewDemoGenerator()
	}
	if svc := newReviewService(); svc != nil {
		return review.NewBackendGenerator(svc)
	}
	ui.VerboseLog("no API key configured, using demo review generator")
	return review.NewDemoGenerator()
}

// getWorkflow builds the lifecycle service over the shared store.
func getWorkflow() (*workflow.Service, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(viper.GetInt("review.timeout_seconds")) * time.Second
	return workflow.New(s, getGenerator(), timeout), nil
}
