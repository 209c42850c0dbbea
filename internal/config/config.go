package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/smallbiznis/churnlens/pkg/db"
	"go.uber.org/fx"
)

const (
	SourceCSV      = "csv"
	SourceDatabase = "database"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr     string
	OTLPEndpoint string

	Customers CustomerConfig
	Database  db.Config
	Models    ModelConfig
	RateLimit RateLimitConfig
}

type CustomerConfig struct {
	Source  string
	CSVPath string
	Table   string
}

type ModelConfig struct {
	Dir           string
	HorizonMonths int
	Reload        bool
}

type RateLimitConfig struct {
	Enabled bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LabRate  float64
	LabBurst int
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewModelManifestHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "churnlens"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Customers: CustomerConfig{
			Source:  normalizeSource(getenv("CUSTOMER_SOURCE", SourceCSV)),
			CSVPath: strings.TrimSpace(getenv("CUSTOMER_CSV_PATH", "data/customers_df.csv")),
			Table:   strings.TrimSpace(getenv("CUSTOMER_TABLE", "customers_df")),
		},
		Database: db.Config{
			Type:            getenv("DATABASE_TYPE", "postgres"),
			Host:            getenv("DATABASE_HOST", "localhost"),
			Port:            getenv("DATABASE_PORT", "5432"),
			Name:            getenv("DATABASE_NAME", "postgres"),
			User:            getenv("DATABASE_USER", "postgres"),
			Password:        getenv("DATABASE_PASSWORD", ""),
			SSLMode:         getenv("DATABASE_SSLMODE", "disable"),
			Path:            getenv("DATABASE_PATH", ""),
			MaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
			MaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 5),
			ConnMaxLifetime: getenvDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getenvDuration("DATABASE_CONN_MAX_IDLE_TIME", time.Minute),
			Tracing:         getenvBool("DATABASE_TRACING", true),
			Metrics:         getenvBool("DATABASE_METRICS", true),
		},
		Models: ModelConfig{
			Dir:           strings.TrimSpace(getenv("MODEL_DIR", "models")),
			HorizonMonths: getenvInt("CLV_HORIZON_MONTHS", 6),
			Reload:        getenvBool("MODEL_RELOAD", true),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			LabRate:       getenvFloat("RATE_LIMIT_LAB_RATE", 5),
			LabBurst:      getenvInt("RATE_LIMIT_LAB_BURST", 20),
		},
	}

	if cfg.Models.HorizonMonths < 0 {
		cfg.Models.HorizonMonths = 6
	}

	return cfg
}

func (c Config) UsesDatabase() bool {
	return c.Customers.Source == SourceDatabase
}

func normalizeSource(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SourceDatabase, "db":
		return SourceDatabase
	default:
		return SourceCSV
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
