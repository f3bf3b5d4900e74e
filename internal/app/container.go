package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Olprog59/go-deliverables/internal/cache"
	"github.com/Olprog59/go-deliverables/internal/config"
	"github.com/Olprog59/go-deliverables/internal/metrics"
	"github.com/Olprog59/go-deliverables/internal/ports"
	"github.com/Olprog59/go-deliverables/internal/repository"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
	"github.com/Olprog59/go-deliverables/internal/repository/supabase"
	"github.com/Olprog59/go-deliverables/internal/service"
	"github.com/Olprog59/go-deliverables/internal/view"
	"github.com/prometheus/client_golang/prometheus"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Container holds application dependencies / Contient les dépendances de l'application
type Container struct {
	Config     *config.Config
	DB         *sql.DB // nil with the hosted backend
	Repo       ports.DeliverableRepository
	Pinger     ports.Pinger
	Metrics    *metrics.Metrics
	Cache      *cache.ListCache
	Service    *service.DeliverableService
	Controller *view.Controller
	Sessions   *view.SessionStore
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	repo       ports.DeliverableRepository
}

// WithRegisterer registers the collectors on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithRepository uses repo instead of the configured backend.
// Utilise repo au lieu du backend configuré.
func WithRepository(repo ports.DeliverableRepository) Option {
	return func(o *options) { o.repo = repo }
}

// NewContainer initializes application container / Initialise le conteneur de l'application
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Config: cfg}

	// Initialize metrics first (no dependencies)
	c.Metrics = metrics.NewMetrics(o.registerer)

	if o.repo != nil {
		c.Repo = o.repo
		if p, ok := o.repo.(ports.Pinger); ok {
			c.Pinger = p
		}
	} else if err := c.initBackend(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initServices(); err != nil {
		c.Close()
		return nil, fmt.Errorf("service init: %w", err)
	}

	c.updateDatabaseMetrics()

	return c, nil
}

// initBackend opens the configured record backend / Ouvre le backend configuré
func (c *Container) initBackend(ctx context.Context) error {
	if !c.Config.UsesSQL() {
		return c.initSupabase()
	}

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := c.runMigrations(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := c.initRepositories(); err != nil {
		return fmt.Errorf("repository init: %w", err)
	}
	return nil
}

// initSupabase creates the PostgREST-backed repository
func (c *Container) initSupabase() error {
	repo, err := supabase.NewDeliverableRepository(supabase.Config{
		URL:    c.Config.Supabase.URL,
		Key:    c.Config.Supabase.Key,
		Schema: c.Config.Supabase.Schema,
		Table:  c.Config.Supabase.Table,

		Timeout: c.Config.Supabase.Timeout,
	})
	if err != nil {
		return &config.ConfigurationError{Field: "supabase", Message: err.Error()}
	}

	c.Repo = repo
	c.Pinger = repo
	slog.Info("record backend ready", "backend", config.BackendSupabase, "url", supabase.RestURL(c.Config.Supabase.URL), "table", c.Config.Supabase.Table)
	return nil
}

// initDatabase initializes database connection / Initialise la connexion à la base de données
func (c *Container) initDatabase(ctx context.Context) error {
	dbType := c.dbType()

	database, err := db.Open(ctx, db.DatabaseConfig{
		Type:         dbType,
		DSN:          c.Config.Database.DSN,
		MaxOpenConns: c.Config.Database.MaxOpenConns,
		MaxIdleConns: c.Config.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize %s database: %w", dbType, err)
	}

	c.DB = database
	c.Pinger = db.Pinger{DB: database}
	return nil
}

// runMigrations applies <migrations_path>/<dialect> / Applique les migrations du dialecte
func (c *Container) runMigrations() error {
	if c.Config.Database.MigrationsPath == "" {
		slog.Warn("database.migrations_path is empty, skipping migrations")
		return nil
	}
	dbType := c.dbType()
	path := filepath.Join(c.Config.Database.MigrationsPath, dbType.String())

	return db.NewMigrationDriverRegistry().Migrate(c.DB, dbType, path)
}

// initRepositories initializes repositories / Initialise les repositories
func (c *Container) initRepositories() error {
	adapter, err := repository.NewAdapter(c.DB, c.dbType().String())
	if err != nil {
		return err
	}

	c.Repo = adapter.DeliverableRepository()
	slog.Info("record backend ready", "backend", c.dbType())
	return nil
}

// initServices wires cache, service, controller and sessions / Relie cache, service, contrôleur et sessions
func (c *Container) initServices() error {
	cacheCfg := cache.DefaultConfig()
	if c.Config.Cache.TTL > 0 {
		cacheCfg.TTL = c.Config.Cache.TTL
	}
	if c.Config.Cache.Capacity > 0 {
		cacheCfg.Capacity = c.Config.Cache.Capacity
	}
	if c.Config.Cache.NumShards > 0 {
		cacheCfg.NumShards = c.Config.Cache.NumShards
	}

	listCache, err := cache.New(cacheCfg, c.Metrics)
	if err != nil {
		return err
	}
	c.Cache = listCache

	c.Service = service.NewDeliverableService(c.Repo, c.Cache, c.Metrics)
	c.Controller = view.NewController(c.Service, view.WithDeleteRecorder(c.Metrics))
	c.Sessions = view.NewSessionStore(view.StoreConfig{
		IdleTimeout: c.Config.Session.IdleTimeout,
		MaxSessions: c.Config.Session.MaxSessions,
	}, c.Metrics)

	return nil
}

func (c *Container) dbType() db.DatabaseType {
	return db.ParseType(c.Config.BackendName())
}

// updateDatabaseMetrics updates database metrics / Met à jour les métriques de la BD
func (c *Container) updateDatabaseMetrics() {
	if c.DB == nil {
		return
	}
	stats := c.DB.Stats()
	c.Metrics.UpdateDatabaseConnections(stats.OpenConnections)
}

// Ping checks that the record backend is reachable.
func (c *Container) Ping(ctx context.Context) error {
	if c.Pinger == nil {
		return nil
	}
	c.updateDatabaseMetrics()
	return c.Pinger.Ping(ctx)
}

// Close performs graceful shutdown / Effectue un arrêt gracieux
func (c *Container) Close() error {
	if c.DB != nil {
		slog.Info("closing database")
		return c.DB.Close()
	}
	return nil
}
