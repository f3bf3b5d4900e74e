package repository

import (
	"database/sql"

	"github.com/Olprog59/go-deliverables/internal/ports"
	"github.com/Olprog59/go-deliverables/internal/repository/sqlite"
)

// NewSQLiteDeliverables creates an SQLite deliverables repository for testing
func NewSQLiteDeliverables(db *sql.DB) ports.DeliverableRepository {
	return sqlite.NewDeliverableRepository(db)
}
