package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Storage drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPAddr       string
	MetricsAddr    string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	StorageDriver string
	MySQLDSN      string
	SQLitePath    string

	RedisAddr string // empty disables the cache
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	APIBaseURL  string
	SeedFile    string
	SeedWorkers int
	ClientRPS   int
}

// Load reads the configuration from the environment. A .env file in the
// working directory, if present, fills variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}

	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		RateLimitRPS:   atof("RATE_LIMIT_RPS", 0),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 20),
		CORSOrigins:    list(env("CORS_ALLOWED_ORIGINS", "")),
		StorageDriver:  strings.ToLower(env("STORAGE_DRIVER", DriverSQLite)),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/booking?parseTime=true&charset=utf8mb4&loc=UTC"),
		SQLitePath:     env("SQLITE_PATH", "booking.db"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		APIBaseURL:     env("API_BASE_URL", "http://localhost:8080"),
		SeedFile:       env("SEED_FILE", "seed.yaml"),
		SeedWorkers:    atoi("SEED_WORKERS", 4),
		ClientRPS:      atoi("CLIENT_RPS", 10),
	}
	if c.StorageDriver != DriverMySQL && c.StorageDriver != DriverSQLite {
		log.Warn().Str("driver", c.StorageDriver).Msg("unknown STORAGE_DRIVER, using sqlite")
		c.StorageDriver = DriverSQLite
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// list splits a comma-separated value, dropping empty items.
func list(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
