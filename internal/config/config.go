package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix for every environment variable, e.g. INSIDERS_SERVER_PORT.
const Prefix = "INSIDERS"

const DateLayout = "2006-01-02"

type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Pipeline  PipelineConfig  `envconfig:"PIPELINE"`
	Cache     CacheConfig     `envconfig:"CACHE"`
	Logging   LoggingConfig   `envconfig:"LOGGING"`
	Telemetry TelemetryConfig `envconfig:"TELEMETRY"`
	Providers ProvidersConfig `envconfig:"PROVIDERS"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	RateLimitRPS    float64       `envconfig:"RATE_LIMIT_RPS" default:"2"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"10"`

	// AdminAPIKey guards cache invalidation. Empty leaves it rate limited only.
	AdminAPIKey    string   `envconfig:"ADMIN_API_KEY"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

type PipelineConfig struct {
	// Cutoff is the default inclusive lower bound on event dates. Requests
	// may override it.
	CutoffDate string    `envconfig:"CUTOFF" default:"2023-01-01"`
	Cutoff     time.Time `ignored:"true"`
}

type CacheConfig struct {
	TTL        time.Duration `envconfig:"TTL" default:"15m"`
	MaxEntries int           `envconfig:"MAX_ENTRIES" default:"256"`
}

type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

type TelemetryConfig struct {
	Tracing       bool   `envconfig:"TRACING" default:"false"`
	TraceExporter string `envconfig:"TRACE_EXPORTER" default:"stdout"`
	Metrics       bool   `envconfig:"METRICS" default:"true"`
}

type ProvidersConfig struct {
	FMPAPIKey   string        `envconfig:"FMP_API_KEY"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// Load reads .env (if present) and the INSIDERS_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ParseCutoff parses a YYYY-MM-DD cutoff date.
func ParseCutoff(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cutoff date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func (c *Config) validate() error {
	cutoff, err := ParseCutoff(c.Pipeline.CutoffDate)
	if err != nil {
		return err
	}
	c.Pipeline.Cutoff = cutoff

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max entries must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.Logging.Format)
	}
	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter %q", c.Telemetry.TraceExporter)
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}
