package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Providers.Yahoo.Priority)
	assert.Equal(t, 2, cfg.Providers.Stooq.Priority)
	assert.Equal(t, 3, cfg.Providers.AlphaVantage.Priority)
	assert.Equal(t, 500, cfg.Providers.AlphaVantage.WindowLimit)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketgate.toml")
	content := `
environment = "production"
watchlist = ["7203"]

[server]
port = 9000

[providers.alphavantage]
api_key = "file-key"
window_limit = 25

[engine]
max_workers = 10
batch_timeout = "30s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"7203"}, cfg.Watchlist)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "file-key", cfg.Providers.AlphaVantage.APIKey)
	assert.Equal(t, 25, cfg.Providers.AlphaVantage.WindowLimit)
	assert.Equal(t, 10, cfg.Engine.GetMaxWorkers())
	assert.Equal(t, 30*time.Second, cfg.Engine.GetBatchTimeout())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("MARKETGATE_PORT", "9999")
	t.Setenv("MARKETGATE_ENV", "production")
	t.Setenv("ALPHAVANTAGE_API_KEY", "env-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "env-key", cfg.Providers.AlphaVantage.APIKey)
}

func TestGetTimeout_Fallback(t *testing.T) {
	cfg := ProviderConfig{Timeout: "bogus"}
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())

	cfg.Timeout = "5s"
	assert.Equal(t, 5*time.Second, cfg.GetTimeout())
}

func TestEngineDefaults(t *testing.T) {
	e := EngineConfig{}
	assert.Equal(t, 5, e.GetMaxWorkers())
	assert.Equal(t, 60*time.Second, e.GetBatchTimeout())
}
