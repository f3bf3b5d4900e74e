package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration sources
)

// MigrationsTable records the applied schema version. It is not the
// golang-migrate default so the deliverables schema can share a database
// (e.g. a Supabase Postgres project) with other migrated applications.
const MigrationsTable = "deliverables_schema_migrations"

// migrationDriver opens the golang-migrate driver of one dialect on an existing pool.
type migrationDriver struct {
	name string
	open func(*sql.DB) (database.Driver, error)
}

// MigrationDriverRegistry maps dialects to migration drivers / Associe les dialectes aux drivers de migration
type MigrationDriverRegistry struct {
	drivers map[DatabaseType]migrationDriver
}

// NewMigrationDriverRegistry registers the three SQL dialects.
func NewMigrationDriverRegistry() *MigrationDriverRegistry {
	return &MigrationDriverRegistry{drivers: map[DatabaseType]migrationDriver{
		SQLite: {name: "sqlite", open: func(db *sql.DB) (database.Driver, error) {
			return sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: MigrationsTable})
		}},
		MySQL: {name: "mysql", open: func(db *sql.DB) (database.Driver, error) {
			return mysql.WithInstance(db, &mysql.Config{MigrationsTable: MigrationsTable})
		}},
		PostgreSQL: {name: "postgres", open: func(db *sql.DB) (database.Driver, error) {
			return postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
		}},
	}}
}

// Supports reports whether dbType has a migration driver.
func (r *MigrationDriverRegistry) Supports(dbType DatabaseType) bool {
	_, ok := r.drivers[dbType]
	return ok
}

func (r *MigrationDriverRegistry) migrator(db *sql.DB, dbType DatabaseType, path string) (*migrate.Migrate, error) {
	d, ok := r.drivers[dbType]
	if !ok {
		return nil, fmt.Errorf("unsupported database type for migrations: %s", dbType)
	}

	driver, err := d.open(db)
	if err != nil {
		return nil, fmt.Errorf("could not create %s migration driver: %w", dbType, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, d.name, driver)
	if err != nil {
		return nil, fmt.Errorf("could not read migrations in %s: %w", path, err)
	}
	return m, nil
}

// Migrate applies every pending migration found under path.
// Migrate applique toutes les migrations en attente trouvées dans path.
//
// The migrate instance is not closed: closing it would close db, which the
// repositories keep using.
func (r *MigrationDriverRegistry) Migrate(db *sql.DB, dbType DatabaseType, path string) error {
	m, err := r.migrator(db, dbType, path)
	if err != nil {
		return err
	}

	slog.Info("applying database migrations", "type", dbType, "path", path)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("database migrations applied", "type", dbType, "version", version, "dirty", dirty)
	return nil
}

// Version returns the applied schema version. ok is false on a database
// that was never migrated.
func (r *MigrationDriverRegistry) Version(db *sql.DB, dbType DatabaseType, path string) (version uint, dirty, ok bool, err error) {
	m, err := r.migrator(db, dbType, path)
	if err != nil {
		return 0, false, false, err
	}

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}
