package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeoutSeconds is the default HTTP read timeout in seconds
	DefaultReadTimeoutSeconds = 10
	// DefaultWriteTimeoutSeconds is the default HTTP write timeout in seconds
	DefaultWriteTimeoutSeconds = 30
	// DefaultShutdownTimeoutSeconds is the default shutdown timeout in seconds
	DefaultShutdownTimeoutSeconds = 30
)

// Database backends
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Debug     bool            `yaml:"debug"` // Application debug mode (controls log level and format)
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Report    ReportConfig    `yaml:"report"`
	Push      PushConfig      `yaml:"push"`
	Search    SearchConfig    `yaml:"search"` // Optional: Elasticsearch full-text search
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Words     WordsConfig     `yaml:"words"`
	Sources   []SourceConfig  `yaml:"sources"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`       // e.g., ":8070"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"` // Default: 30s
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Backend         string        `yaml:"backend"` // postgres or sqlite
	URL             string        `yaml:"url"`     // full DSN; overrides the discrete fields when set
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	Path            string        `yaml:"path"` // sqlite backend only
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the postgres connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CrawlConfig struct {
	Workers      int           `yaml:"workers"`       // concurrent source fetches, default 4
	Timeout      time.Duration `yaml:"timeout"`       // per-source fetch timeout, default 15s
	Retries      int           `yaml:"retries"`       // fetch attempts per source, default 3
	RetryBackoff time.Duration `yaml:"retry_backoff"` // base backoff between attempts, default 2s
	RateLimit    float64       `yaml:"rate_limit"`    // outbound requests per second, default 2
	RateBurst    int           `yaml:"rate_burst"`    // rate limiter burst, default 1
	UserAgent    string        `yaml:"user_agent"`
}

type ReportConfig struct {
	Timezone      string `yaml:"timezone"`       // IANA name for day boundaries, default UTC
	Mode          string `yaml:"mode"`           // mode for scheduled pushes, default incremental
	RankHistory   int    `yaml:"rank_history"`   // ranks kept per headline in payloads, default 10
	HighlightRank int    `yaml:"highlight_rank"` // ranks at or above this are marked hot, default 5
}

type PushConfig struct {
	Enabled      bool          `yaml:"enabled"`
	WebhookURL   string        `yaml:"webhook_url"`
	Channel      string        `yaml:"channel"`       // label recorded with each push, default "default"
	Timeout      time.Duration `yaml:"timeout"`       // webhook request timeout, default 10s
	SendEmpty    bool          `yaml:"send_empty"`    // push reports that matched nothing
	SignatureTTL time.Duration `yaml:"signature_ttl"` // repeat-content suppression window, default 24h
}

type SearchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"` // default "trendwatch_headlines"
}

type SchedulerConfig struct {
	CrawlSpec string `yaml:"crawl_spec"` // cron spec for crawl rounds, default "*/30 * * * *"
	PushSpec  string `yaml:"push_spec"`  // optional; empty means push right after each crawl round
	StatsSpec string `yaml:"stats_spec"` // cron spec for daily stats, default "5 0 * * *"
}

type WordsConfig struct {
	File  string `yaml:"file"`  // word list path, default "config/words.conf"
	Watch bool   `yaml:"watch"` // reload on file change
}

type SourceConfig struct {
	PlatformID string            `yaml:"platform_id"` // stable identifier, e.g. "weibo"
	Name       string            `yaml:"name"`
	Adapter    string            `yaml:"adapter"` // rest, rss, or htmllist
	Endpoint   string            `yaml:"endpoint"`
	Active     *bool             `yaml:"active"`    // nil defaults to true
	Selectors  map[string]string `yaml:"selectors"` // htmllist adapter only
}

// IsActiveOrDefault resolves the optional active flag (nil means active)
func (s *SourceConfig) IsActiveOrDefault() bool {
	return s.Active == nil || *s.Active
}

// Validate checks if the server configuration is valid and sets defaults.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		c.Address = ":8070" // Default port
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeoutSeconds * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeoutSeconds * time.Second
	}
	return nil
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			if c.Database.Host == "" {
				return errors.New("database.host is required for the postgres backend")
			}
			if c.Database.User == "" {
				return errors.New("database.user is required for the postgres backend")
			}
			if c.Database.Name == "" {
				return errors.New("database.name is required for the postgres backend")
			}
		}
	case BackendSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("database.backend must be %q or %q, got %q",
			BackendPostgres, BackendSQLite, c.Database.Backend)
	}

	if c.Crawl.Workers <= 0 {
		return fmt.Errorf("crawl.workers must be positive, got %d", c.Crawl.Workers)
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("report.timezone %q is not a valid IANA name: %w", c.Report.Timezone, err)
	}
	if c.Push.Enabled && c.Push.WebhookURL == "" {
		return errors.New("push.webhook_url is required when push.enabled is true")
	}
	if c.Search.Enabled && c.Search.URL == "" {
		return errors.New("search.url is required when search.enabled is true")
	}

	for i, src := range c.Sources {
		if src.PlatformID == "" {
			return fmt.Errorf("sources[%d].platform_id is required", i)
		}
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		switch src.Adapter {
		case "rest", "rss", "htmllist":
		default:
			return fmt.Errorf("sources[%d].adapter must be rest, rss, or htmllist, got %q", i, src.Adapter)
		}
		if src.Endpoint == "" {
			return fmt.Errorf("sources[%d].endpoint is required", i)
		}
	}
	return nil
}

// Location returns the report timezone as a *time.Location. Call after
// Validate; an invalid name falls back to UTC here.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// setDefaults sets default values for configuration fields
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8070"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeoutSeconds * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeoutSeconds * time.Second
	}

	if cfg.Database.Backend == "" {
		cfg.Database.Backend = BackendSQLite
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/trendwatch.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if cfg.Crawl.Workers == 0 {
		cfg.Crawl.Workers = 4
	}
	if cfg.Crawl.Timeout == 0 {
		cfg.Crawl.Timeout = 15 * time.Second
	}
	if cfg.Crawl.Retries == 0 {
		cfg.Crawl.Retries = 3
	}
	if cfg.Crawl.RetryBackoff == 0 {
		cfg.Crawl.RetryBackoff = 2 * time.Second
	}
	if cfg.Crawl.RateLimit == 0 {
		cfg.Crawl.RateLimit = 2
	}
	if cfg.Crawl.RateBurst == 0 {
		cfg.Crawl.RateBurst = 1
	}
	if cfg.Crawl.UserAgent == "" {
		cfg.Crawl.UserAgent = "trendwatch/1.0"
	}

	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "UTC"
	}
	if cfg.Report.Mode == "" {
		cfg.Report.Mode = "incremental"
	}
	if cfg.Report.RankHistory == 0 {
		cfg.Report.RankHistory = 10
	}
	if cfg.Report.HighlightRank == 0 {
		cfg.Report.HighlightRank = 5
	}

	if cfg.Push.Channel == "" {
		cfg.Push.Channel = "default"
	}
	if cfg.Push.Timeout == 0 {
		cfg.Push.Timeout = 10 * time.Second
	}
	if cfg.Push.SignatureTTL == 0 {
		cfg.Push.SignatureTTL = 24 * time.Hour
	}

	if cfg.Search.Index == "" {
		cfg.Search.Index = "trendwatch_headlines"
	}

	if cfg.Scheduler.CrawlSpec == "" {
		cfg.Scheduler.CrawlSpec = "*/30 * * * *"
	}
	if cfg.Scheduler.StatsSpec == "" {
		cfg.Scheduler.StatsSpec = "5 0 * * *"
	}

	if cfg.Words.File == "" {
		cfg.Words.File = "config/words.conf"
	}
}

// overrideWithEnvVars overrides configuration with environment variables
func overrideWithEnvVars(cfg *Config) {
	if appDebug := os.Getenv("APP_DEBUG"); appDebug != "" {
		cfg.Debug = parseBool(appDebug)
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.Redis.URL = redisAddr
	}
	if esURL := os.Getenv("ES_URL"); esURL != "" {
		cfg.Search.URL = esURL
	}
	if webhookURL := os.Getenv("PUSH_WEBHOOK_URL"); webhookURL != "" {
		cfg.Push.WebhookURL = webhookURL
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Set defaults
	setDefaults(&cfg)

	// Override with environment variables if present
	overrideWithEnvVars(&cfg)

	// Set server defaults
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("server config validation: %w", err)
	}

	// Override server config with environment variable if present
	if port := os.Getenv("TRENDWATCH_PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseBool parses a string value as a boolean.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
