package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App       AppConfig
	Discord   DiscordConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Integrity IntegrityConfig
}

// AppConfig controls the ops HTTP surface.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
}

// DiscordConfig holds gateway credentials and command behavior.
type DiscordConfig struct {
	BotToken          string
	GuildID           string
	CommandCooldownMS int
}

// MongoConfig holds document store connection values.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// IntegrityConfig controls the background integrity sweep.
type IntegrityConfig struct {
	SweepIntervalMinutes int
	SweepDryRun          bool
	CacheTTL             time.Duration
	RepairMaxAttempts    int
	RepairBackoff        time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	token := os.Getenv("DISCORD_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "anarchy-associates-bot"),
			Env:     getEnv("APP_ENV", "development"),
			Host:    getEnv("APP_HOST", "0.0.0.0"),
			Port:    getEnv("APP_PORT", "8090"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Discord: DiscordConfig{
			BotToken:          token,
			GuildID:           os.Getenv("DISCORD_GUILD_ID"),
			CommandCooldownMS: getEnvAsInt("COMMAND_COOLDOWN_MS", 2000),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
			Database:       getEnv("MONGO_DATABASE", "anarchy_associates"),
			ConnectTimeout: time.Duration(getEnvAsInt("MONGO_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Integrity: IntegrityConfig{
			SweepIntervalMinutes: getEnvAsInt("INTEGRITY_SWEEP_INTERVAL_MINUTES", 0),
			SweepDryRun:          getEnvAsBool("INTEGRITY_SWEEP_DRY_RUN", false),
			CacheTTL:             time.Duration(getEnvAsInt("INTEGRITY_CACHE_TTL_SECONDS", 300)) * time.Second,
			RepairMaxAttempts:    getEnvAsInt("INTEGRITY_REPAIR_MAX_ATTEMPTS", 3),
			RepairBackoff:        time.Duration(getEnvAsInt("INTEGRITY_REPAIR_BACKOFF_MS", 500)) * time.Millisecond,
		},
	}

	return cfg, nil
}

// Addr returns the ops HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// CommandCooldown returns the per-user command cooldown duration.
func (d DiscordConfig) CommandCooldown() time.Duration {
	if d.CommandCooldownMS <= 0 {
		return 0
	}
	return time.Duration(d.CommandCooldownMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
