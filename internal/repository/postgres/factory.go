package postgres

import (
	"database/sql"

	"github.com/Olprog59/go-deliverables/internal/ports"
)

// Factory implements DatabaseFactory for PostgreSQL / Implémente DatabaseFactory pour PostgreSQL
type Factory struct{}

// NewDeliverableRepository creates the deliverables repository / Crée le repository des livrables
func (f *Factory) NewDeliverableRepository(db *sql.DB) ports.DeliverableRepository {
	return NewDeliverableRepository(db)
}
