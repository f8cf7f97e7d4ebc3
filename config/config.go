package config

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	ReferenceData ReferenceDataConfig `yaml:"reference_data"`
	Predictor     PredictorConfig     `yaml:"predictor"`
	Website       WebsiteConfig       `yaml:"website"`
	Push          PushConfig          `yaml:"push"`
	WorkerPool    WorkerPoolConfig    `yaml:"worker_pool"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	ConnectTimeoutSeconds  int    `yaml:"connect_timeout_seconds"`
}

// AuthConfig holds the JWT signing configuration.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTLHours int           `yaml:"token_ttl_hours"`
	TokenTTL      time.Duration `yaml:"-"`
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// ReferenceDataConfig points at an optional GPU/provider table file.
// The embedded table is used when Path is empty.
type ReferenceDataConfig struct {
	Path string `yaml:"path"`
}

// PredictorConfig describes the external category prediction service.
type PredictorConfig struct {
	BaseURL        string            `yaml:"base_url"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Timeout        time.Duration     `yaml:"-"`
	Endpoints      map[string]string `yaml:"endpoints"`
	Headers        map[string]string `yaml:"headers"`
}

// WebsiteConfig holds the page scraper and green hosting lookup settings.
type WebsiteConfig struct {
	HTTPProxy            string        `yaml:"http_proxy"`
	UserAgent            string        `yaml:"user_agent"`
	FetchTimeoutSeconds  int           `yaml:"fetch_timeout_seconds"`
	FetchTimeout         time.Duration `yaml:"-"`
	MaxAssets            int           `yaml:"max_assets"`
	Concurrency          int           `yaml:"concurrency"`
	GreenCheckURL        string        `yaml:"green_check_url"`
	AllowPrivateNetworks bool          `yaml:"allow_private_networks"` // lets fetches reach loopback and private addresses
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// NotificationsConfig controls the daily budget alert.
type NotificationsConfig struct {
	Enabled       bool    `yaml:"enabled"`
	DailyBudgetKg float64 `yaml:"daily_budget_kg"`
}

// Load reads the configuration from the given path and applies defaults
// and environment overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for CLI
// commands that run without a config file.
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CARBONCUE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CARBONCUE_VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("CARBONCUE_VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}
	if v := os.Getenv("CARBONCUE_PREDICTOR_URL"); v != "" {
		cfg.Predictor.BaseURL = v
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "carboncue.db"
	}
	if cfg.Database.ConnectTimeoutSeconds <= 0 {
		cfg.Database.ConnectTimeoutSeconds = 30
	}

	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = 24
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLHours) * time.Hour

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Predictor.TimeoutSeconds <= 0 {
		cfg.Predictor.TimeoutSeconds = 15
	}
	cfg.Predictor.Timeout = time.Duration(cfg.Predictor.TimeoutSeconds) * time.Second

	if cfg.Website.FetchTimeoutSeconds <= 0 {
		cfg.Website.FetchTimeoutSeconds = 20
	}
	cfg.Website.FetchTimeout = time.Duration(cfg.Website.FetchTimeoutSeconds) * time.Second
	if cfg.Website.MaxAssets <= 0 {
		cfg.Website.MaxAssets = 200
	}
	if cfg.Website.Concurrency <= 0 {
		cfg.Website.Concurrency = 8
	}
	if cfg.Website.UserAgent == "" {
		cfg.Website.UserAgent = "CarbonCue/1.0 (+website carbon check)"
	}
	if cfg.Website.GreenCheckURL == "" {
		cfg.Website.GreenCheckURL = "https://api.thegreenwebfoundation.org/api/v3/greencheck"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Info().Msg("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Notifications.DailyBudgetKg <= 0 {
		cfg.Notifications.DailyBudgetKg = 20
	}
}
