// Package config provides application configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with built-in validation for production and development environments.
// The package follows a hierarchical configuration structure covering the
// record backend (hosted Supabase/PostgREST service or a direct SQL database),
// the list cache, browser sessions, CORS, rate limiting and logging.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Backend names accepted in database.backend / Noms de backend acceptés
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Config holds all application configuration / Contient toute la configuration de l'application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Environment string            `mapstructure:"environment"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Supabase    SupabaseConfig    `mapstructure:"supabase"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Session     SessionConfig     `mapstructure:"session"`
	Security    SecurityConfig    `mapstructure:"security"`
	Cors        CorsConfig        `mapstructure:"cors"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds server configuration / Configuration serveur
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BaseURL      string        `mapstructure:"base_url"`
}

// DatabaseConfig holds database-specific configuration / Configuration de la base de données
type DatabaseConfig struct {
	Backend        string `mapstructure:"backend"`         // "supabase", "sqlite", "mysql" or "postgres"
	DSN            string `mapstructure:"dsn"`             // Data Source Name for the SQL backends
	MigrationsPath string `mapstructure:"migrations_path"` // Root of the per-dialect migration directories (SQL backends only)
	MaxOpenConns   int    `mapstructure:"max_open_conns"`  // Maximum number of open connections (default: 25)
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`  // Maximum number of idle connections (default: 5)
}

// SupabaseConfig holds the hosted database service credentials / Identifiants du service hébergé
type SupabaseConfig struct {
	URL    string `mapstructure:"url"`    // Project URL, e.g. https://xyz.supabase.co
	Key    string `mapstructure:"key"`    // anon or service key
	Schema string `mapstructure:"schema"` // PostgREST schema (default: public)
	Table  string `mapstructure:"table"`  // Deliverables table name

	Timeout time.Duration `mapstructure:"timeout"` // Per-request wait for the service response (default: 10s)
}

// CacheConfig holds list cache configuration / Configuration du cache de liste
type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`        // Freshness window of the cached list (default: 60s)
	Capacity  int           `mapstructure:"capacity"`   // Max entries kept by the cache
	NumShards int           `mapstructure:"num_shards"` // Cache shards
}

// SessionConfig holds browser session configuration / Configuration des sessions navigateur
type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	MaxSessions  int           `mapstructure:"max_sessions"`
}

// SecurityConfig holds security settings / Paramètres de sécurité
type SecurityConfig struct {
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// CorsConfig holds CORS configuration / Configuration CORS
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimiterConfig holds rate limiter configuration / Configuration limiteur de débit
type RateLimiterConfig struct {
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
	Enabled bool    `mapstructure:"enabled"`
}

// MetricsConfig toggles the /metrics endpoint / Active l'endpoint /metrics
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration / Configuration logging
type LoggingConfig struct {
	Level         string            `mapstructure:"level"`
	Format        string            `mapstructure:"format"`
	LokiEnabled   bool              `mapstructure:"loki_enabled"`
	LokiURL       string            `mapstructure:"loki_url"`
	LokiLabels    map[string]string `mapstructure:"loki_labels"`
	LokiBatchSize int               `mapstructure:"loki_batch_size"`
}

// ConfigurationError reports a missing or invalid setting. It is fatal at startup.
// ConfigurationError signale un paramètre manquant ou invalide, fatal au démarrage.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Message)
}

// IsProduction checks if environment is production / Vérifie si l'environnement est production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment checks if environment is development / Vérifie si l'environnement est development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// BackendName returns the normalized backend name / Retourne le nom normalisé du backend
func (c *Config) BackendName() string {
	b := strings.ToLower(strings.TrimSpace(c.Database.Backend))
	if b == "postgresql" {
		return BackendPostgres
	}
	if b == "" {
		return BackendSupabase
	}
	return b
}

// UsesSQL reports whether the backend is a direct SQL database.
func (c *Config) UsesSQL() bool {
	return c.BackendName() != BackendSupabase
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("environment", "development")

	v.SetDefault("database.backend", BackendSupabase)
	v.SetDefault("database.dsn", "deliverables.db?_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.key", "")
	v.SetDefault("supabase.schema", "public")
	v.SetDefault("supabase.table", "deliverables")
	v.SetDefault("supabase.timeout", "10s")

	v.SetDefault("cache.ttl", "60s")
	v.SetDefault("cache.capacity", 64)
	v.SetDefault("cache.num_shards", 1)

	v.SetDefault("session.cookie_name", "deliverables_session")
	v.SetDefault("session.idle_timeout", "12h")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.max_sessions", 10000)

	v.SetDefault("security.trusted_proxies", []string{}) // Empty by default - don't trust proxy headers unless explicitly configured
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:8080"})

	v.SetDefault("rate_limiter.rps", 10)
	v.SetDefault("rate_limiter.burst", 20)
	v.SetDefault("rate_limiter.enabled", true)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.loki_enabled", false)
	v.SetDefault("logging.loki_url", "http://localhost:3100")
	v.SetDefault("logging.loki_labels", map[string]string{
		"app":         "go-deliverables",
		"environment": "development",
	})
	v.SetDefault("logging.loki_batch_size", 10)
}

// LoadConfig loads configuration from YAML and env vars / Charge la config depuis YAML et variables d'env
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".")
}

// LoadConfigFrom loads config.yaml from the given directories / Charge config.yaml depuis les répertoires donnés
func LoadConfigFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Same names as the hosted service's own tooling
	v.BindEnv("supabase.url", "APP_SUPABASE_URL", "SUPABASE_URL")
	v.BindEnv("supabase.key", "APP_SUPABASE_KEY", "SUPABASE_KEY")
	v.BindEnv("database.dsn", "APP_DATABASE_DSN", "DATABASE_DSN")

	var cfg Config
	err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates configuration / Valide la configuration
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateRateLimiter(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return &ConfigurationError{Field: "server.port", Message: "is required"}
	}
	return nil
}

// validateDatabase validates the backend and its credentials
func (c *Config) validateDatabase() error {
	validBackends := []string{BackendSupabase, BackendSQLite, BackendPostgres, BackendMySQL}
	backend := c.BackendName()

	if !slices.Contains(validBackends, backend) {
		return &ConfigurationError{Field: "database.backend", Message: "must be one of: supabase, sqlite, postgres, mysql"}
	}

	if backend == BackendSupabase {
		if strings.TrimSpace(c.Supabase.URL) == "" {
			return &ConfigurationError{Field: "supabase.url", Message: "is required (set SUPABASE_URL)"}
		}
		if strings.TrimSpace(c.Supabase.Key) == "" {
			return &ConfigurationError{Field: "supabase.key", Message: "is required (set SUPABASE_KEY)"}
		}
		if strings.TrimSpace(c.Supabase.Table) == "" {
			return &ConfigurationError{Field: "supabase.table", Message: "is required"}
		}
		if c.Supabase.Timeout <= 0 {
			return &ConfigurationError{Field: "supabase.timeout", Message: "must be positive"}
		}
		return nil
	}

	if c.Database.DSN == "" {
		return &ConfigurationError{Field: "database.dsn", Message: "is required for SQL backends"}
	}

	return nil
}

// validateCache validates cache settings
func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return &ConfigurationError{Field: "cache.ttl", Message: "must be positive"}
	}
	return nil
}

// validateRateLimiter validates rate limiter configuration
func (c *Config) validateRateLimiter() error {
	if !c.RateLimiter.Enabled {
		return nil
	}

	if c.RateLimiter.RPS <= 0 {
		return &ConfigurationError{Field: "rate_limiter.rps", Message: "must be positive when enabled"}
	}

	if c.RateLimiter.Burst <= 0 {
		return &ConfigurationError{Field: "rate_limiter.burst", Message: "must be positive when enabled"}
	}

	return nil
}
