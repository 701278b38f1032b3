package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile resets the shared viper state so values set by a previous
// test do not bleed into the next load.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
app:
  environment: test
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "diagnosis-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, 30000, cfg.Engine.Timeout)
	assert.Equal(t, 5, cfg.Consult.RateLimit.Requests)
	assert.Equal(t, 60, cfg.Consult.RateLimit.Window)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_ENGINE_URL", "https://script.example.com/exec")

	path := writeConfigFile(t, `
engine:
  url: ${TEST_ENGINE_URL}
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "https://script.example.com/exec", cfg.Engine.URL)
}

func TestLoadFromFile_EnvOverridesEmptyFields(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", " https://hooks.slack.com/services/T/B/x ")
	t.Setenv("USE_MOCK", "true")

	path := writeConfigFile(t, `
app:
  environment: test
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/x", cfg.Notifications.Slack.WebhookURL)
	assert.True(t, cfg.Engine.UseMock)
}

func TestLoadFromFile_EmptyEngineURLIsNotFatal(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Empty(t, cfg.Engine.URL)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadFromFile_RejectsInvalidPort(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 99999
`)

	_, err := LoadFromFile(path)

	assert.Error(t, err)
}

func TestPostgresConfig(t *testing.T) {
	p := PostgresConfig{
		Host: "localhost", Port: 5432, User: "app", Password: "secret",
		Database: "diagnosis", SSLMode: "disable",
	}

	assert.True(t, p.Enabled())
	assert.Equal(t,
		"host=localhost port=5432 user=app password=secret dbname=diagnosis sslmode=disable",
		p.GetDSN())
	assert.False(t, PostgresConfig{}.Enabled())
}
