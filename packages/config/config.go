// Package config
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL     string
	CredentialsFile string
	TableName       string
	DBMaxConns      int

	SourceBaseURL string
	FetchTimeout  time.Duration
	FetchInterval time.Duration

	CountriesFile      string
	CountryMappingFile string
	AUSMappingFile     string
	GBRMappingFile     string

	ListenAddr      string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	PushgatewayURL string

	LogFile  string
	LogLevel string
}

func Load() (Config, error) {
	cfg := Config{}
	var missingVars []string

	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		missingVars = append(missingVars, "DATABASE_URL")
	}
	if len(missingVars) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	cfg.CredentialsFile = getEnv("CREDENTIALS_FILE", "")
	cfg.TableName = getEnv("EQUIVALENCY_TABLE", "equivalencies")

	var err error
	cfg.DBMaxConns, err = strconv.Atoi(getEnv("DB_MAX_CONNS", "4"))
	if err != nil || cfg.DBMaxConns <= 0 {
		slog.Warn("Invalid DB_MAX_CONNS", "value", getEnv("DB_MAX_CONNS", "4"), "error", err)
		cfg.DBMaxConns = 4
	}

	cfg.SourceBaseURL = strings.TrimRight(getEnv("SOURCE_BASE_URL", "https://www.nuffic.nl/en/education-systems"), "/")
	cfg.FetchTimeout = getDuration("FETCH_TIMEOUT", 20*time.Second)
	cfg.FetchInterval = getDuration("FETCH_INTERVAL", 0)

	cfg.CountriesFile = getEnv("COUNTRIES_FILE", "")
	cfg.CountryMappingFile = getEnv("COUNTRY_MAPPING_FILE", "config/nuffic_mapping.json")
	cfg.AUSMappingFile = getEnv("AUS_MAPPING_FILE", "config/australia_mapping.json")
	cfg.GBRMappingFile = getEnv("GBR_MAPPING_FILE", "config/united_kingdom_mapping.json")

	cfg.ListenAddr = getEnv("LISTEN_ADDR", ":8000")
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.RequestTimeout = getDuration("REQUEST_TIMEOUT", 30*time.Second)

	// Empty address disables the query cache.
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, _ = strconv.Atoi(getEnv("REDIS_DB", "0"))
	cfg.CacheTTL = getDuration("CACHE_TTL", time.Hour)

	cfg.PushgatewayURL = getEnv("PUSHGATEWAY_URL", "")

	cfg.LogFile = getEnv("LOG_FILE", "logs/grademap.log")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		slog.Warn("Invalid duration, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return d
}
