package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlucaspains/gh2forgejo/internal/models"
)

// isolateEnvironment clears every bound variable and points HOME at an empty directory so
// the developer's environment cannot leak into a test.
func isolateEnvironment(t *testing.T) {
	t.Helper()
	for _, env := range environmentBindings {
		t.Setenv(env, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func setRequiredEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("FORGEJO_URL", "https://forgejo.example.com/")
	t.Setenv("FORGEJO_TOKEN", "fj_token")
	t.Setenv("FORGEJO_OWNER", "archive")
	t.Setenv("GITHUB_OWNER", "octo")
	t.Setenv("GITHUB_OWNER_TYPE", "org")
	t.Setenv("GITHUB_TOKEN", "ghp_token")
}

func TestLoadConfig(t *testing.T) {
	t.Run("load from environment with defaults", func(t *testing.T) {
		isolateEnvironment(t)
		setRequiredEnvironment(t)

		config, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, "https://forgejo.example.com", config.Forgejo.URL)
		assert.Equal(t, "fj_token", config.Forgejo.Token)
		assert.Equal(t, "archive", config.Forgejo.Owner)
		assert.Equal(t, "octo", config.GitHub.Owner)
		assert.Equal(t, models.OwnerTypeOrganization, config.OwnerType())
		assert.Equal(t, "ghp_token", config.GitHub.Token)
		assert.Equal(t, DefaultGitHubBaseURL, config.GitHub.BaseURL)
		assert.True(t, config.Migration.Mirror)
		assert.True(t, config.Migration.MigrateMetadata)
		assert.True(t, config.Migration.DryRun)
		assert.False(t, config.Migration.SkipExisting)
		assert.Equal(t, 60*time.Second, config.Migration.HTTPTimeout)
		assert.Equal(t, "info", config.Logging.Level)
		assert.Equal(t, "console", config.Logging.Format)
	})

	t.Run("boolean variables accept numeric values", func(t *testing.T) {
		isolateEnvironment(t)
		setRequiredEnvironment(t)
		t.Setenv("DRY_RUN", "0")
		t.Setenv("MIRROR", "false")
		t.Setenv("MIGRATE_METADATA", "0")
		t.Setenv("SKIP_EXISTING", "1")
		t.Setenv("HTTP_TIMEOUT", "15s")

		config, err := LoadConfig("")
		require.NoError(t, err)

		assert.False(t, config.Migration.DryRun)
		assert.False(t, config.Migration.Mirror)
		assert.False(t, config.Migration.MigrateMetadata)
		assert.True(t, config.Migration.SkipExisting)
		assert.Equal(t, 15*time.Second, config.Migration.HTTPTimeout)
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		isolateEnvironment(t)
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		content := `
forgejo:
  url: "https://git.example.org"
  token: "file_token"
  owner: "file_owner"
github:
  token: "file_gh_token"
  owner: "file_gh_owner"
  owner_type: "user"
migration:
  mirror: false
  dry_run: false
`
		require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
		t.Setenv("FORGEJO_OWNER", "env_owner")

		config, err := LoadConfig(configFile)
		require.NoError(t, err)

		assert.Equal(t, "https://git.example.org", config.Forgejo.URL)
		assert.Equal(t, "env_owner", config.Forgejo.Owner)
		assert.Equal(t, models.OwnerTypeUser, config.OwnerType())
		assert.False(t, config.Migration.Mirror)
		assert.False(t, config.Migration.DryRun)
		assert.True(t, config.Migration.MigrateMetadata)
	})

	t.Run("missing required variable", func(t *testing.T) {
		isolateEnvironment(t)
		setRequiredEnvironment(t)
		t.Setenv("FORGEJO_TOKEN", "")

		_, err := LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "forgejo.token is required (set FORGEJO_TOKEN)")

		var validationErr ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "forgejo.token", validationErr.Key)
	})

	t.Run("explicit config file that does not exist", func(t *testing.T) {
		isolateEnvironment(t)
		setRequiredEnvironment(t)

		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Forgejo: ForgejoConfig{URL: "https://forgejo.example.com", Token: "t", Owner: "o"},
			GitHub:  GitHubConfig{Token: "t", Owner: "octo", OwnerType: "user", BaseURL: DefaultGitHubBaseURL},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing forgejo url", mutate: func(c *Config) { c.Forgejo.URL = "" }, expectError: true, errorMsg: "forgejo.url is required"},
		{name: "missing forgejo owner", mutate: func(c *Config) { c.Forgejo.Owner = " " }, expectError: true, errorMsg: "forgejo.owner is required"},
		{name: "missing github owner", mutate: func(c *Config) { c.GitHub.Owner = "" }, expectError: true, errorMsg: "github.owner is required"},
		{name: "missing github owner type", mutate: func(c *Config) { c.GitHub.OwnerType = "" }, expectError: true, errorMsg: "github.owner_type is required"},
		{name: "missing github token", mutate: func(c *Config) { c.GitHub.Token = "" }, expectError: true, errorMsg: "github.token is required"},
		{name: "forgejo url without scheme", mutate: func(c *Config) { c.Forgejo.URL = "forgejo.example.com" }, expectError: true, errorMsg: "forgejo.url must use http or https"},
		{name: "github url without host", mutate: func(c *Config) { c.GitHub.BaseURL = "https://" }, expectError: true, errorMsg: "github.base_url must include a host"},
		{name: "unsupported owner type", mutate: func(c *Config) { c.GitHub.OwnerType = "team" }, expectError: true, errorMsg: "github.owner_type"},
		{name: "negative timeout", mutate: func(c *Config) { c.Migration.HTTPTimeout = -time.Second }, expectError: true, errorMsg: "migration.http_timeout must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := validateConfig(config)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	t.Run("save and load round trip", func(t *testing.T) {
		isolateEnvironment(t)
		configFile := filepath.Join(t.TempDir(), "nested", "config.yaml")

		config := &Config{
			Forgejo: ForgejoConfig{URL: "https://forgejo.example.com", Token: "fj", Owner: "archive"},
			GitHub:  GitHubConfig{Token: "gh", Owner: "octo", OwnerType: "org", BaseURL: DefaultGitHubBaseURL},
			Migration: MigrationConfig{
				Mirror:          false,
				MigrateMetadata: true,
				DryRun:          false,
				SkipExisting:    true,
				HTTPTimeout:     30 * time.Second,
			},
			Logging: LoggingConfig{Level: "debug", Format: "structured"},
		}

		require.NoError(t, SaveConfig(config, configFile))

		info, err := os.Stat(configFile)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		loaded, err := LoadConfig(configFile)
		require.NoError(t, err)
		assert.Equal(t, config, loaded)
	})

	t.Run("save config with default path", func(t *testing.T) {
		t.Chdir(t.TempDir())

		err := SaveConfig(&Config{}, "")
		require.NoError(t, err)

		_, err = os.Stat("./configs/config.yaml")
		assert.NoError(t, err)
	})
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.True(t, v.GetBool("migration.mirror"))
	assert.True(t, v.GetBool("migration.migrate_metadata"))
	assert.True(t, v.GetBool("migration.dry_run"))
	assert.False(t, v.GetBool("migration.skip_existing"))
	assert.Equal(t, 60*time.Second, v.GetDuration("migration.http_timeout"))
	assert.Equal(t, "info", v.GetString("logging.level"))
	assert.Equal(t, "console", v.GetString("logging.format"))
	assert.Equal(t, DefaultGitHubBaseURL, v.GetString("github.base_url"))
}

func TestEnvironmentVariable(t *testing.T) {
	assert.Equal(t, "DRY_RUN", EnvironmentVariable("migration.dry_run"))
	assert.Equal(t, "GITHUB_OWNER_TYPE", EnvironmentVariable("github.owner_type"))
	assert.Empty(t, EnvironmentVariable("unknown"))
}
