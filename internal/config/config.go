package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jlucaspains/gh2forgejo/internal/models"
)

const DefaultGitHubBaseURL = "https://api.github.com"

// Config represents the application configuration
type Config struct {
	Forgejo   ForgejoConfig   `mapstructure:"forgejo" yaml:"forgejo"`
	GitHub    GitHubConfig    `mapstructure:"github" yaml:"github"`
	Migration MigrationConfig `mapstructure:"migration" yaml:"migration"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ForgejoConfig contains the destination forge settings
type ForgejoConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Token string `mapstructure:"token" yaml:"token"`
	Owner string `mapstructure:"owner" yaml:"owner"`
}

// GitHubConfig contains the source account settings
type GitHubConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	Owner     string `mapstructure:"owner" yaml:"owner"`
	OwnerType string `mapstructure:"owner_type" yaml:"owner_type"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"` // For GitHub Enterprise
}

// MigrationConfig contains migration-specific settings
type MigrationConfig struct {
	Mirror          bool          `mapstructure:"mirror" yaml:"mirror"`
	MigrateMetadata bool          `mapstructure:"migrate_metadata" yaml:"migrate_metadata"`
	DryRun          bool          `mapstructure:"dry_run" yaml:"dry_run"`
	SkipExisting    bool          `mapstructure:"skip_existing" yaml:"skip_existing"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	ReportFile      string        `mapstructure:"report_file" yaml:"report_file"`
}

// LoggingConfig selects the log level and encoding
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ValidationError names the configuration key that failed validation.
type ValidationError struct {
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Message)
}

// environmentBindings maps configuration keys to the environment variables that set them.
var environmentBindings = map[string]string{
	"forgejo.url":                "FORGEJO_URL",
	"forgejo.token":              "FORGEJO_TOKEN",
	"forgejo.owner":              "FORGEJO_OWNER",
	"github.owner":               "GITHUB_OWNER",
	"github.owner_type":          "GITHUB_OWNER_TYPE",
	"github.token":               "GITHUB_TOKEN",
	"github.base_url":            "GITHUB_API_URL",
	"migration.mirror":           "MIRROR",
	"migration.migrate_metadata": "MIGRATE_METADATA",
	"migration.dry_run":          "DRY_RUN",
	"migration.skip_existing":    "SKIP_EXISTING",
	"migration.http_timeout":     "HTTP_TIMEOUT",
	"migration.report_file":      "REPORT_FILE",
	"logging.level":              "LOG_LEVEL",
	"logging.format":             "LOG_FORMAT",
}

// EnvironmentVariable returns the environment variable bound to a configuration key.
func EnvironmentVariable(key string) string {
	return environmentBindings[key]
}

// LoadConfig loads configuration from an optional file and environment variables.
// Environment variables take precedence over the file.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.gh2forgejo")
	}

	setDefaults(v)

	for key, env := range environmentBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	config.Forgejo.URL = strings.TrimRight(config.Forgejo.URL, "/")
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.base_url", DefaultGitHubBaseURL)
	v.SetDefault("migration.mirror", true)
	v.SetDefault("migration.migrate_metadata", true)
	v.SetDefault("migration.dry_run", true)
	v.SetDefault("migration.skip_existing", false)
	v.SetDefault("migration.http_timeout", 60*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func validateConfig(config *Config) error {
	required := []struct {
		key   string
		value string
	}{
		{"forgejo.url", config.Forgejo.URL},
		{"forgejo.token", config.Forgejo.Token},
		{"forgejo.owner", config.Forgejo.Owner},
		{"github.owner", config.GitHub.Owner},
		{"github.owner_type", config.GitHub.OwnerType},
		{"github.token", config.GitHub.Token},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return ValidationError{Key: r.key, Message: fmt.Sprintf("is required (set %s)", EnvironmentVariable(r.key))}
		}
	}

	if err := validateURL(config.Forgejo.URL); err != nil {
		return ValidationError{Key: "forgejo.url", Message: err.Error()}
	}

	if config.GitHub.BaseURL != "" {
		if err := validateURL(config.GitHub.BaseURL); err != nil {
			return ValidationError{Key: "github.base_url", Message: err.Error()}
		}
	}

	if _, err := models.ParseOwnerType(config.GitHub.OwnerType); err != nil {
		return ValidationError{Key: "github.owner_type", Message: err.Error()}
	}

	if config.Migration.HTTPTimeout < 0 {
		return ValidationError{Key: "migration.http_timeout", Message: "must not be negative"}
	}

	return nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("must use http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}

// OwnerType returns the parsed GitHub owner type. LoadConfig has already validated it.
func (c *Config) OwnerType() models.OwnerType {
	ownerType, _ := models.ParseOwnerType(c.GitHub.OwnerType)
	return ownerType
}

// SaveConfig writes the configuration as YAML. The file may hold tokens so it is only
// readable by the owner.
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("forgejo", map[string]interface{}{
		"url":   config.Forgejo.URL,
		"token": config.Forgejo.Token,
		"owner": config.Forgejo.Owner,
	})
	v.Set("github", map[string]interface{}{
		"token":      config.GitHub.Token,
		"owner":      config.GitHub.Owner,
		"owner_type": config.GitHub.OwnerType,
		"base_url":   config.GitHub.BaseURL,
	})
	v.Set("migration", map[string]interface{}{
		"mirror":           config.Migration.Mirror,
		"migrate_metadata": config.Migration.MigrateMetadata,
		"dry_run":          config.Migration.DryRun,
		"skip_existing":    config.Migration.SkipExisting,
		"http_timeout":     config.Migration.HTTPTimeout.String(),
		"report_file":      config.Migration.ReportFile,
	})
	v.Set("logging", map[string]interface{}{
		"level":  config.Logging.Level,
		"format": config.Logging.Format,
	})

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Chmod(configPath, 0600)
}
