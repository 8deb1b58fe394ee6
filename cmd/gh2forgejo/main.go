package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jlucaspains/gh2forgejo/internal/config"
	"github.com/jlucaspains/gh2forgejo/internal/forgejo"
	"github.com/jlucaspains/gh2forgejo/internal/github"
	"github.com/jlucaspains/gh2forgejo/internal/logging"
	"github.com/jlucaspains/gh2forgejo/internal/migration"
	"github.com/jlucaspains/gh2forgejo/internal/models"
)

var (
	// Version information - set by build flags
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	// CLI flags
	configFile   string
	verbose      bool
	dryRun       bool
	live         bool
	skipExisting bool
	reportFile   string
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gh2forgejo",
	Short: "Migrate GitHub repositories to a Forgejo instance",
	Long: `A command-line tool to migrate every repository of a GitHub user or organization
to a Forgejo (or Gitea compatible) instance.

Repositories are listed page by page from GitHub and submitted to the Forgejo
migration API, either as plain git migrations or with wiki, issues, labels,
milestones, pull requests and releases.`,
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Start the migration process",
	Long: `Start migrating repositories from GitHub to Forgejo.

The migration process will:
1. List the repositories of the GitHub account, one page at a time
2. Skip duplicate names and repositories without a usable clone URL
3. Build a Forgejo migration request for each repository
4. Print the request (dry run) or submit it to Forgejo
5. Log a summary and optionally write a JSON report

Dry run is the default. Use --live to submit migrations.`,
	RunE: runMigration,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for managing configuration files and settings.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long:  "Create a new configuration file with default settings and placeholders.",
	RunE:  initConfig,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and connections",
	Long:  "Validate the configuration and test connections to GitHub and Forgejo.",
	RunE:  validateConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version, commit, and build time of the application.",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "gh2forgejo version %s\n", Version)
		fmt.Fprintf(out, "Commit: %s\n", Commit)
		fmt.Fprintf(out, "Built: %s\n", BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (default: ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print migration requests without submitting them")
	migrateCmd.Flags().BoolVar(&live, "live", false, "Submit migration requests to Forgejo")
	migrateCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip repositories that already exist on Forgejo")
	migrateCmd.Flags().StringVar(&reportFile, "report", "", "Output file for migration report")
	migrateCmd.MarkFlagsMutuallyExclusive("dry-run", "live")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	configCmd.AddCommand(configInitCmd)
}

// applyMigrationFlags lets command line flags override the loaded configuration.
func applyMigrationFlags(cfg *config.Config) {
	if dryRun {
		cfg.Migration.DryRun = true
	}
	if live {
		cfg.Migration.DryRun = false
	}
	if skipExisting {
		cfg.Migration.SkipExisting = true
	}
	if reportFile != "" {
		cfg.Migration.ReportFile = reportFile
	}
}

func runMigration(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyMigrationFlags(cfg)

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("Using Forgejo instance", zap.String("url", cfg.Forgejo.URL))

	githubClient, err := github.NewClient(&cfg.GitHub, cfg.Migration.HTTPTimeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	forgejoClient, err := forgejo.NewClient(&cfg.Forgejo, cfg.Migration.HTTPTimeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create Forgejo client: %w", err)
	}

	mapper := migration.NewMapper(migration.MapperOptions{
		Owner:           cfg.Forgejo.Owner,
		Mirror:          cfg.Migration.Mirror,
		MigrateMetadata: cfg.Migration.MigrateMetadata,
		AuthToken:       cfg.GitHub.Token,
	})

	dispatcher, err := migration.NewDispatcher(forgejoClient, cfg.Migration.DryRun, cmd.OutOrStdout(), logger)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	engine := migration.NewEngine(githubClient, forgejoClient, mapper, dispatcher, migration.EngineOptions{
		SourceOwner:      cfg.GitHub.Owner,
		OwnerType:        cfg.OwnerType(),
		DestinationOwner: cfg.Forgejo.Owner,
		SkipExisting:     cfg.Migration.SkipExisting,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Warn("Received interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := engine.Run(ctx)
	if err != nil {
		if cfg.Migration.ReportFile != "" && engine.Report() != nil {
			if saveErr := engine.SaveReport(cfg.Migration.ReportFile); saveErr != nil {
				logger.Warn("Failed to save partial report", zap.Error(saveErr))
			}
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	if cfg.Migration.ReportFile != "" {
		if err := engine.SaveReport(cfg.Migration.ReportFile); err != nil {
			logger.Warn("Failed to save report", zap.Error(err))
		}
	}

	printMigrationSummary(report, logger)

	return nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration is valid")

	ctx := context.Background()
	githubClient, err := github.NewClient(&cfg.GitHub, cfg.Migration.HTTPTimeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	if _, err := githubClient.TestConnection(ctx); err != nil {
		return fmt.Errorf("GitHub connection failed: %w", err)
	}

	forgejoClient, err := forgejo.NewClient(&cfg.Forgejo, cfg.Migration.HTTPTimeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create Forgejo client: %w", err)
	}
	if _, err := forgejoClient.TestConnection(ctx); err != nil {
		return fmt.Errorf("forgejo connection failed: %w", err)
	}

	logger.Info("✓ All connections successful")
	logger.Info("✓ Configuration is valid and ready for migration")

	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	logger, err := logging.NewLogger(logLevel("info"), logging.FormatConsole)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	configPath := configFile
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		logger.Warn("Configuration file already exists", zap.String("path", configPath))
		fmt.Fprint(cmd.OutOrStdout(), "Do you want to overwrite it? (y/N): ")
		var response string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if response != "y" && response != "Y" {
			logger.Info("Configuration initialization cancelled")
			return nil
		}
	}

	if err := config.SaveConfig(createDefaultConfig(), configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	logger.Info("✓ Configuration file created", zap.String("path", configPath))
	logger.Info("Please edit the configuration file with your GitHub and Forgejo settings")

	return nil
}

func createDefaultConfig() *config.Config {
	return &config.Config{
		Forgejo: config.ForgejoConfig{
			URL:   "https://forgejo.example.com",
			Token: "your-forgejo-token",
			Owner: "your-forgejo-user-or-org",
		},
		GitHub: config.GitHubConfig{
			Token:     "your-github-token",
			Owner:     "your-github-username-or-org",
			OwnerType: string(models.OwnerTypeUser),
			BaseURL:   config.DefaultGitHubBaseURL,
		},
		Migration: config.MigrationConfig{
			Mirror:          true,
			MigrateMetadata: true,
			DryRun:          true,
			SkipExisting:    false,
			HTTPTimeout:     60 * time.Second,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

func logLevel(level string) string {
	if verbose {
		return "debug"
	}
	return level
}

func setupLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(logLevel(cfg.Logging.Level), cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func printMigrationSummary(report *models.MigrationReport, logger *zap.Logger) {
	logger.Info("=== Migration Summary ===")
	logger.Info("Migration results",
		zap.Int("total", report.TotalRepos),
		zap.Int("successful", report.SuccessfulCount),
		zap.Int("failed", report.FailedCount),
		zap.Int("skipped", report.SkippedCount),
		zap.Int("duplicates", report.DuplicateCount))

	if report.EndTime != nil {
		logger.Info("Migration duration", zap.Duration("duration", report.EndTime.Sub(report.StartTime)))
	}

	if len(report.Errors) > 0 {
		logger.Warn("Errors encountered:")
		for _, message := range report.Errors {
			logger.Warn("Error", zap.String("message", message))
		}
	}

	if report.FailedCount == 0 {
		if report.DryRun {
			logger.Info("✓ Dry run completed, no changes were made")
		} else {
			logger.Info("✓ Migration completed successfully!")
		}
	}
}
