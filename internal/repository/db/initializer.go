package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DatabaseConfig holds database connection config / Contient la config de connexion BD
type DatabaseConfig struct {
	Type         DatabaseType
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// DatabaseInitializer opens and tunes a connection pool / Ouvre et règle un pool de connexions
type DatabaseInitializer interface {
	Initialize(ctx context.Context, config DatabaseConfig) (*sql.DB, error)
	ConfigureConnection(ctx context.Context, db *sql.DB, config DatabaseConfig) error
	Type() DatabaseType
}

// InitializerRegistry maps a database type to its initializer / Associe un type de BD à son initialiseur
type InitializerRegistry[T DatabaseInitializer] struct {
	factories map[DatabaseType]func() T
}

// NewInitializerRegistry creates registry / Crée le registre
func NewInitializerRegistry[T DatabaseInitializer]() *InitializerRegistry[T] {
	return &InitializerRegistry[T]{
		factories: make(map[DatabaseType]func() T),
	}
}

// Register registers initializer factory / Enregistre une factory d'initialiseur
func (r *InitializerRegistry[T]) Register(dbType DatabaseType, factory func() T) {
	r.factories[dbType] = factory
}

// Get returns the initializer for dbType, or an error for unknown types.
func (r *InitializerRegistry[T]) Get(dbType DatabaseType) (T, error) {
	factory, ok := r.factories[dbType]
	if !ok {
		var zero T
		return zero, fmt.Errorf("unsupported database type: %s", dbType)
	}
	return factory(), nil
}

var initializerRegistry = func() *InitializerRegistry[DatabaseInitializer] {
	registry := NewInitializerRegistry[DatabaseInitializer]()
	registry.Register(MySQL, func() DatabaseInitializer { return &sqlInitializer{driver: "mysql", dbType: MySQL, setup: mysqlSetup} })
	registry.Register(PostgreSQL, func() DatabaseInitializer { return &sqlInitializer{driver: "postgres", dbType: PostgreSQL, setup: postgresSetup} })
	registry.Register(SQLite, func() DatabaseInitializer { return &sqlInitializer{driver: "sqlite", dbType: SQLite, setup: sqliteSetup} })
	return registry
}()

// NewDatabaseInitializer returns the initializer for dbType / Retourne l'initialiseur pour dbType
func NewDatabaseInitializer(dbType DatabaseType) (DatabaseInitializer, error) {
	return initializerRegistry.Get(dbType)
}

// Open initializes a pool for config.Type in one call.
func Open(ctx context.Context, config DatabaseConfig) (*sql.DB, error) {
	initializer, err := NewDatabaseInitializer(config.Type)
	if err != nil {
		return nil, err
	}
	return initializer.Initialize(ctx, config)
}

// Session statements run once per pool; failures are logged, not fatal.
var (
	mysqlSetup = []string{
		"SET SESSION sql_mode='TRADITIONAL,NO_AUTO_VALUE_ON_ZERO'",
		"SET time_zone = '+00:00'",
	}
	postgresSetup = []string{
		"SET TIME ZONE 'UTC'",
	}
	sqliteSetup = []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA trusted_schema=OFF;",
	}
)

// sqlInitializer is shared by every dialect; only the driver name and setup differ.
type sqlInitializer struct {
	driver string
	dbType DatabaseType
	setup  []string
}

func (i *sqlInitializer) Initialize(ctx context.Context, config DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(i.driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", i.dbType, err)
	}

	if err := i.ConfigureConnection(ctx, db, config); err != nil {
		db.Close()
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", i.dbType, err)
	}

	slog.Info("database connected", "type", i.dbType)
	return db, nil
}

func (i *sqlInitializer) ConfigureConnection(ctx context.Context, db *sql.DB, config DatabaseConfig) error {
	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	// An in-memory SQLite database lives and dies with its single connection
	if i.dbType == SQLite && isMemoryDSN(config.DSN) {
		maxOpen, maxIdle = 1, 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	for _, stmt := range i.setup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			slog.Warn("database setup statement failed", "type", i.dbType, "stmt", stmt, "err", err)
		}
	}
	return nil
}

func (i *sqlInitializer) Type() DatabaseType {
	return i.dbType
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Pinger adapts *sql.DB to the readiness probe / Adapte *sql.DB à la sonde de disponibilité
type Pinger struct {
	DB *sql.DB
}

// Ping checks the pool can reach the database.
func (p Pinger) Ping(ctx context.Context) error {
	if err := p.DB.PingContext(ctx); err != nil {
		return Transport("ping", err)
	}
	return nil
}
