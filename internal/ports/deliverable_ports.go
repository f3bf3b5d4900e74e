package ports

import (
	"context"
	"database/sql"

	"github.com/Olprog59/go-deliverables/internal/domain"
)

// DeliverableReader reads deliverables / Lit les livrables
type DeliverableReader interface {
	// ListAll returns every row, newest created_at first / Retourne toutes les lignes, les plus récentes d'abord
	ListAll(ctx context.Context) ([]domain.Deliverable, error)
}

// DeliverableWriter mutates deliverables / Modifie les livrables
//
// Each write returns the affected row as acknowledged by the backend, or
// domain.ErrEmptyAcknowledgment when the backend reports no affected row.
type DeliverableWriter interface {
	// Insert creates a row; the backend assigns id and created_at / Crée une ligne
	Insert(ctx context.Context, in domain.DeliverableInput) (*domain.Deliverable, error)

	// Update replaces the editable fields of row id / Remplace les champs modifiables
	Update(ctx context.Context, id string, in domain.DeliverableInput) (*domain.Deliverable, error)

	// Delete removes row id / Supprime la ligne
	Delete(ctx context.Context, id string) (*domain.Deliverable, error)
}

// DeliverableRepository is the full record repository / Repository complet des livrables
type DeliverableRepository interface {
	DeliverableReader
	DeliverableWriter
}

// Pinger is implemented by backends that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBTX is the part of *sql.DB and *sql.Tx the SQL repositories use, so the
// same statements run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
