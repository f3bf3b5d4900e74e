package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validSupabaseConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Backend: BackendSupabase},
		Supabase: SupabaseConfig{
			URL:     "https://example.supabase.co",
			Key:     "anon-key",
			Table:   "deliverables",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{TTL: 60 * time.Second},
		RateLimiter: RateLimiterConfig{
			Enabled: true,
			RPS:     10,
			Burst:   20,
		},
		Environment: "development",
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"Production environment", "production", true},
		{"Development environment", "development", false},
		{"Empty environment", "", false},
		{"Other environment", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.env}
			if got := cfg.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_BackendName(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		sql     bool
	}{
		{"", BackendSupabase, false},
		{"Supabase", BackendSupabase, false},
		{"sqlite", BackendSQLite, true},
		{"postgresql", BackendPostgres, true},
		{" MySQL ", BackendMySQL, true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &Config{Database: DatabaseConfig{Backend: tt.backend}}
			if got := cfg.BackendName(); got != tt.want {
				t.Errorf("BackendName() = %q, want %q", got, tt.want)
			}
			if got := cfg.UsesSQL(); got != tt.sql {
				t.Errorf("UsesSQL() = %v, want %v", got, tt.sql)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		expectError   bool
		errorContains string
	}{
		{
			name:        "Valid supabase config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:          "Missing server port",
			mutate:        func(c *Config) { c.Server.Port = "" },
			expectError:   true,
			errorContains: "server.port",
		},
		{
			name:          "Missing supabase URL",
			mutate:        func(c *Config) { c.Supabase.URL = "" },
			expectError:   true,
			errorContains: "supabase.url",
		},
		{
			name:          "Whitespace supabase key",
			mutate:        func(c *Config) { c.Supabase.Key = "   " },
			expectError:   true,
			errorContains: "supabase.key",
		},
		{
			name:          "Zero supabase timeout",
			mutate:        func(c *Config) { c.Supabase.Timeout = 0 },
			expectError:   true,
			errorContains: "supabase.timeout",
		},
		{
			name:          "Unknown backend",
			mutate:        func(c *Config) { c.Database.Backend = "oracle" },
			expectError:   true,
			errorContains: "database.backend",
		},
		{
			name: "SQLite backend ignores supabase credentials",
			mutate: func(c *Config) {
				c.Database.Backend = BackendSQLite
				c.Database.DSN = ":memory:"
				c.Supabase = SupabaseConfig{}
			},
			expectError: false,
		},
		{
			name: "SQL backend without DSN",
			mutate: func(c *Config) {
				c.Database.Backend = BackendPostgres
				c.Database.DSN = ""
			},
			expectError:   true,
			errorContains: "database.dsn",
		},
		{
			name:          "Zero cache TTL",
			mutate:        func(c *Config) { c.Cache.TTL = 0 },
			expectError:   true,
			errorContains: "cache.ttl",
		},
		{
			name:          "Rate limiter enabled with zero RPS",
			mutate:        func(c *Config) { c.RateLimiter.RPS = 0 },
			expectError:   true,
			errorContains: "rps",
		},
		{
			name:          "Rate limiter enabled with zero burst",
			mutate:        func(c *Config) { c.RateLimiter.Burst = 0 },
			expectError:   true,
			errorContains: "burst",
		},
		{
			name: "Rate limiter disabled skips limits",
			mutate: func(c *Config) {
				c.RateLimiter = RateLimiterConfig{Enabled: false}
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSupabaseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if !tt.expectError {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Expected error but got none")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected *ConfigurationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error containing '%s', got '%s'", tt.errorContains, err.Error())
			}
		})
	}
}

func TestLoadConfig_MissingCredentialsIsFatal(t *testing.T) {
	os.Clearenv()

	_, err := LoadConfigFrom(t.TempDir())
	if err == nil {
		t.Fatal("Expected configuration error without SUPABASE_URL / SUPABASE_KEY")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Field != "supabase.url" {
		t.Errorf("Expected field supabase.url, got %s", cfgErr.Field)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	os.Clearenv()
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon-key")

	cfg, err := LoadConfigFrom(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to load config with defaults: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", cfg.Environment)
	}
	if cfg.Cache.TTL != 60*time.Second {
		t.Errorf("Expected default cache TTL 60s, got %v", cfg.Cache.TTL)
	}
	if cfg.Supabase.URL != "https://example.supabase.co" {
		t.Errorf("Expected supabase URL from SUPABASE_URL, got %s", cfg.Supabase.URL)
	}
	if cfg.Supabase.Table != "deliverables" {
		t.Errorf("Expected default table 'deliverables', got %s", cfg.Supabase.Table)
	}
	if cfg.Supabase.Timeout != 10*time.Second {
		t.Errorf("Expected default supabase timeout 10s, got %v", cfg.Supabase.Timeout)
	}
}

func TestLoadConfig_WithEnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("APP_SERVER_PORT", "9000")
	t.Setenv("APP_ENVIRONMENT", "test")
	t.Setenv("APP_DATABASE_BACKEND", "sqlite")
	t.Setenv("DATABASE_DSN", ":memory:")

	cfg, err := LoadConfigFrom(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Expected port from env 9000, got %s", cfg.Server.Port)
	}
	if cfg.Environment != "test" {
		t.Errorf("Expected environment from env 'test', got %s", cfg.Environment)
	}
	if cfg.BackendName() != BackendSQLite {
		t.Errorf("Expected sqlite backend, got %s", cfg.BackendName())
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("Expected DSN from DATABASE_DSN, got %s", cfg.Database.DSN)
	}
}

func TestLoadConfig_FromYAMLFile(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	yaml := `
database:
  backend: sqlite
  dsn: "file:test.db"
cache:
  ttl: 5s
logging:
  level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Cache.TTL != 5*time.Second {
		t.Errorf("Expected cache TTL 5s from file, got %v", cfg.Cache.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Database.DSN != "file:test.db" {
		t.Errorf("Expected DSN from file, got %s", cfg.Database.DSN)
	}
}
