package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Resolver ResolverConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Rescore  RescoreConfig
	Exports  ExportsConfig
}

// StoreConfig points at the Redis instance backing the keyed store.
type StoreConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ResolverConfig tunes the roster resolution cache.
type ResolverConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RescoreConfig sizes the worker pool that re-grades sheets after an
// answer key edit.
type RescoreConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ExportsConfig toggles result export endpoints.
type ExportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Host:     v.GetString("STORE_HOST"),
		Port:     v.GetInt("STORE_PORT"),
		Password: v.GetString("STORE_PASSWORD"),
		DB:       v.GetInt("STORE_DB"),
	}

	cfg.Resolver = ResolverConfig{
		CacheEnabled: v.GetBool("RESOLVER_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("RESOLVER_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Rescore = RescoreConfig{
		Workers:    v.GetInt("RESCORE_WORKERS"),
		BufferSize: v.GetInt("RESCORE_BUFFER_SIZE"),
		MaxRetries: v.GetInt("RESCORE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("RESCORE_RETRY_DELAY"), time.Second),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_HOST", "localhost")
	v.SetDefault("STORE_PORT", 6379)
	v.SetDefault("STORE_PASSWORD", "")
	v.SetDefault("STORE_DB", 0)

	v.SetDefault("RESOLVER_CACHE_ENABLED", true)
	v.SetDefault("RESOLVER_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RESCORE_WORKERS", 2)
	v.SetDefault("RESCORE_BUFFER_SIZE", 16)
	v.SetDefault("RESCORE_MAX_RETRIES", 3)
	v.SetDefault("RESCORE_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_EXPORTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
