package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FUNDD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FUNDD_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "FUNDD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "FUNDD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FUNDD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FUNDD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FUNDD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FUNDD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FUNDD_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "FUNDD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FUNDD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FUNDD_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FUNDD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FUNDD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FUNDD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FUNDD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FUNDD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FUNDD_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "FUNDD_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FUNDD_S3_REGION")
	setStr(&cfg.S3.Bucket, "FUNDD_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FUNDD_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FUNDD_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FUNDD_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FUNDD_S3_FORCE_PATH_STYLE")

	// ── Vault ──
	setStr(&cfg.Vault.PoolAccount, "FUNDD_VAULT_POOL_ACCOUNT")

	// ── Archive ──
	setInt(&cfg.Archive.RetentionDays, "FUNDD_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "FUNDD_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "FUNDD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "FUNDD_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "FUNDD_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "FUNDD_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "FUNDD_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "FUNDD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FUNDD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FUNDD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "FUNDD_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "FUNDD_MODE")
	setStr(&cfg.LogLevel, "FUNDD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
