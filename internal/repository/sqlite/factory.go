package sqlite

import (
	"database/sql"

	"github.com/Olprog59/go-deliverables/internal/ports"
)

// Factory implements DatabaseFactory for SQLite / Implémente DatabaseFactory pour SQLite
// The compile-time check is in adapter.go to avoid import cycles
// La vérification à la compilation est dans adapter.go pour éviter les cycles d'imports
type Factory struct{}

// NewDeliverableRepository creates the deliverables repository / Crée le repository des livrables
func (f *Factory) NewDeliverableRepository(db *sql.DB) ports.DeliverableRepository {
	return NewDeliverableRepository(db)
}
