package repository

import (
	"database/sql"

	"github.com/Olprog59/go-deliverables/internal/ports"
)

// DatabaseFactory must be implemented by each SQL package / Doit être implémenté par chaque package SQL
// Adding a repository here forces every dialect (sqlite, mysql, postgres) to implement it.
// Ajouter un repository ici oblige chaque dialecte à l'implémenter.
type DatabaseFactory interface {
	// NewDeliverableRepository creates the deliverables repository / Crée le repository des livrables
	NewDeliverableRepository(db *sql.DB) ports.DeliverableRepository
}
