package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/probin-johori/sustainable/internal/source/airtable"
	"github.com/probin-johori/sustainable/internal/source/sheets"
	pkgconfig "github.com/probin-johori/sustainable/pkg/config"
	"github.com/probin-johori/sustainable/pkg/database"
	"github.com/probin-johori/sustainable/pkg/httpclient"
	pkgkafka "github.com/probin-johori/sustainable/pkg/kafka"
	"github.com/probin-johori/sustainable/pkg/tracing"
)

// Catalog sources.
const (
	SourceStatic   = "static"
	SourceSheets   = "sheets"
	SourceAirtable = "airtable"
	SourcePostgres = "postgres"
)

// Search engines.
const (
	EngineMemory        = "memory"
	EngineElasticsearch = "elasticsearch"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"CATALOG_HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"CATALOG_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"CATALOG_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CacheMaxAge     time.Duration `env:"CATALOG_CACHE_MAX_AGE" envDefault:"60s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofCIDRs      []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
	ContactEmail    string        `env:"CATALOG_CONTACT_EMAIL" envDefault:"connect@sustainablebrands.in"`

	// Per-IP limit on the JSON API. Zero RPS disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Catalog source (static, sheets, airtable or postgres)
	Source      string        `env:"CATALOG_SOURCE" envDefault:"static"`
	SeedFile    string        `env:"CATALOG_SEED_FILE"`
	LoadTimeout time.Duration `env:"CATALOG_LOAD_TIMEOUT" envDefault:"30s"`

	// Last-good snapshot of remote sources in Redis
	SnapshotCache bool          `env:"CATALOG_SNAPSHOT_CACHE" envDefault:"false"`
	SnapshotTTL   time.Duration `env:"CATALOG_SNAPSHOT_TTL" envDefault:"168h"`

	// Search engine selection (memory or elasticsearch)
	SearchEngine       string `env:"CATALOG_ENGINE" envDefault:"memory"`
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"sustainable_brands"`

	// Postgres
	Postgres           database.PostgresConfig
	SlowQueryThreshold time.Duration `env:"POSTGRES_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	Redis database.RedisConfig

	// Kafka
	KafkaEnabled bool `env:"KAFKA_ENABLED" envDefault:"false"`
	Kafka        pkgkafka.ProducerConfig

	Tracing    tracing.Config
	HTTPClient httpclient.Config
	Sheets     sheets.Config
	Airtable   airtable.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	cfg.Tracing.ServiceName = "catalog"
	cfg.Tracing.Environment = cfg.Environment
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Remote reports whether the source is fetched over the network.
func (c *Config) Remote() bool {
	return c.Source == SourceSheets || c.Source == SourceAirtable
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.Tracing.SampleRate)
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("CATALOG_LOAD_TIMEOUT must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	switch c.Source {
	case SourceStatic, SourcePostgres:
	case SourceSheets:
		if c.Sheets.SpreadsheetID == "" || c.Sheets.APIKey == "" {
			return fmt.Errorf("SHEETS_SPREADSHEET_ID and SHEETS_API_KEY are required for the sheets source")
		}
	case SourceAirtable:
		if c.Airtable.BaseID == "" || c.Airtable.Token == "" {
			return fmt.Errorf("AIRTABLE_BASE_ID and AIRTABLE_TOKEN are required for the airtable source")
		}
	default:
		return fmt.Errorf("invalid CATALOG_SOURCE %q: must be one of %s", c.Source,
			strings.Join([]string{SourceStatic, SourceSheets, SourceAirtable, SourcePostgres}, ", "))
	}

	switch c.SearchEngine {
	case EngineMemory:
	case EngineElasticsearch:
		if c.ElasticsearchURL == "" {
			return fmt.Errorf("ELASTICSEARCH_URL is required for the elasticsearch engine")
		}
	default:
		return fmt.Errorf("invalid CATALOG_ENGINE %q: must be %s or %s", c.SearchEngine, EngineMemory, EngineElasticsearch)
	}

	if c.SnapshotCache && c.SnapshotTTL <= 0 {
		return fmt.Errorf("CATALOG_SNAPSHOT_TTL must be positive when the snapshot cache is enabled")
	}
	if c.KafkaEnabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}
