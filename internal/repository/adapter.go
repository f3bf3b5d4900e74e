package repository

import (
	"database/sql"
	"fmt"

	"github.com/Olprog59/go-deliverables/internal/ports"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
	"github.com/Olprog59/go-deliverables/internal/repository/mysql"
	"github.com/Olprog59/go-deliverables/internal/repository/postgres"
	"github.com/Olprog59/go-deliverables/internal/repository/sqlite"
)

// Compile-time checks that every Factory satisfies DatabaseFactory
// Vérifications à la compilation que chaque Factory satisfait DatabaseFactory
var (
	_ DatabaseFactory = (*sqlite.Factory)(nil)
	_ DatabaseFactory = (*mysql.Factory)(nil)
	_ DatabaseFactory = (*postgres.Factory)(nil)
)

// factoryRegistry holds all database factories / Registre de toutes les factories de BD
var factoryRegistry = map[db.DatabaseType]DatabaseFactory{
	db.SQLite:     &sqlite.Factory{},
	db.MySQL:      &mysql.Factory{},
	db.PostgreSQL: &postgres.Factory{},
}

// Adapter adapts database connection to repositories / Adapte la connexion BD vers les repositories
type Adapter struct {
	db      *sql.DB
	factory DatabaseFactory
}

// NewAdapter creates repository adapter for the named dialect / Crée l'adapteur pour le dialecte donné
func NewAdapter(conn *sql.DB, driver string) (*Adapter, error) {
	factory, ok := factoryRegistry[db.ParseType(driver)]
	if !ok {
		return nil, fmt.Errorf("no repository factory for database %q", driver)
	}

	return &Adapter{
		db:      conn,
		factory: factory,
	}, nil
}

// DeliverableRepository returns the dialect's deliverables repository / Retourne le repository des livrables du dialecte
func (a *Adapter) DeliverableRepository() ports.DeliverableRepository {
	return a.factory.NewDeliverableRepository(a.db)
}
