package observability

import (
	"os"
	"strings"
	"time"

	"github.com/smallbiznis/churnlens/internal/config"
	"github.com/spf13/cast"
)

// Config holds logging, OpenTelemetry and metrics-push settings for the
// service.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	Push PushConfig
}

// PushConfig selects where prediction counters are pushed. An empty
// Exporter disables pushing.
type PushConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
	Job       string
	Interval  time.Duration
}

const defaultPushInterval = time.Minute

// LoadConfig reads observability settings from the environment, falling back
// to the application config.
func LoadConfig(cfg config.Config) Config {
	return loadConfig(cfg, os.LookupEnv)
}

type envSource func(key string) (string, bool)

func (e envSource) str(key, def string) string {
	if v, ok := e(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e envSource) lower(key, def string) string {
	return strings.ToLower(e.str(key, def))
}

func (e envSource) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return def
	}
	return v
}

func (e envSource) float(key string, def float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return def
	}
	return v
}

func (e envSource) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := cast.ToDurationE(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func loadConfig(cfg config.Config, env envSource) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "churnlens"
	}

	protocol := env.lower("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	protocol = env.lower("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", protocol)

	ratio := env.float("OTEL_SAMPLING_RATIO", 0.1)
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}

	return Config{
		ServiceName: name,
		Environment: env.str("DEPLOYMENT_ENV", strings.TrimSpace(cfg.Environment)),
		Version:     env.str("SERVICE_VERSION", strings.TrimSpace(cfg.AppVersion)),

		LogLevel:  env.lower("LOG_LEVEL", "info"),
		LogFormat: env.lower("LOG_FORMAT", "json"),

		OtelEnabled:          env.boolean("OTEL_ENABLED", false),
		OtelExporterEndpoint: env.str("OTEL_EXPORTER_OTLP_ENDPOINT", strings.TrimSpace(cfg.OTLPEndpoint)),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    ratio,

		Push: PushConfig{
			Exporter:  env.lower("METRICS_PUSH_EXPORTER", ""),
			Endpoint:  env.str("METRICS_PUSH_ENDPOINT", ""),
			AuthToken: env.str("METRICS_PUSH_AUTH_TOKEN", ""),
			Job:       env.str("METRICS_PUSH_JOB", name),
			Interval:  env.duration("METRICS_PUSH_INTERVAL", defaultPushInterval),
		},
	}
}

// Debug enables verbose logging and gin debug mode.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
