package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Server.Port = 0
	cfg.Vault.PoolAccount = " "

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown mode")
	require.Contains(t, err.Error(), "server: port")
	require.Contains(t, err.Error(), "vault: pool_account")
}

func TestValidateDevModeSkipsPostgres(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "dev"
	cfg.Postgres.Host = ""
	cfg.Redis.Addr = ""
	require.NoError(t, cfg.Validate())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`
mode = "dev"
log_level = "debug"

[server]
port = 9001
rate_limit_window = "30s"

[postgres]
database = "fromfile"
`), 0o600)
	require.NoError(t, err)

	t.Setenv("FUNDD_POSTGRES_DATABASE", "fromenv")
	t.Setenv("FUNDD_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Mode)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 9001, cfg.Server.Port)
	require.Equal(t, "30s", cfg.Server.RateLimitWindow.Duration.String())
	// Env overrides beat the file.
	require.Equal(t, "fromenv", cfg.Postgres.Database)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	// Untouched fields keep their defaults.
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Server.APIKey = "key"
	cfg.Notify.TelegramToken = "token"

	red := RedactedConfig(&cfg)
	require.Equal(t, "***", red.Postgres.Password)
	require.Equal(t, "***", red.Server.APIKey)
	require.Equal(t, "***", red.Notify.TelegramToken)
	// Original untouched.
	require.Equal(t, "hunter2", cfg.Postgres.Password)
}
