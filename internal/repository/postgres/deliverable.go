package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/ports"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
)

// DeliverableRepository stores deliverables in PostgreSQL / Stocke les livrables dans PostgreSQL
type DeliverableRepository struct {
	db ports.DBTX
}

// NewDeliverableRepository creates the repository / Crée le repository
func NewDeliverableRepository(conn *sql.DB) *DeliverableRepository {
	return &DeliverableRepository{db: conn}
}

var _ ports.DeliverableRepository = (*DeliverableRepository)(nil)

const writeColumns = "name, lead, coordinating_staff, field, start_date, end_date, description, keywords, storage_link"

func inputArgs(in domain.DeliverableInput) []any {
	return []any{
		in.Name, in.Lead, in.CoordinatingStaff, in.Field,
		db.DateArg(in.StartDate), db.DateArg(in.EndDate),
		in.Description, in.Keywords, in.StorageLink,
	}
}

// ListAll returns every row, newest first / Retourne toutes les lignes, les plus récentes d'abord
func (r *DeliverableRepository) ListAll(ctx context.Context) ([]domain.Deliverable, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+db.Columns+` FROM deliverables ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, handleError("list", err)
	}
	defer rows.Close()

	items := []domain.Deliverable{}
	for rows.Next() {
		d, err := db.ScanDeliverable(rows)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, handleError("list", err)
	}
	return items, nil
}

// Insert stores a new row / Insère une nouvelle ligne
func (r *DeliverableRepository) Insert(ctx context.Context, in domain.DeliverableInput) (*domain.Deliverable, error) {
	query := `INSERT INTO deliverables (` + writeColumns + `)
		VALUES ($1, $2, $3, $4, $5::date, $6::date, $7, $8, $9)
		RETURNING ` + db.Columns

	d, err := db.ScanDeliverable(r.db.QueryRowContext(ctx, query, inputArgs(in)...))
	if err != nil {
		return nil, handleError("insert", err)
	}
	return d, nil
}

// Update overwrites row id / Met à jour la ligne id
func (r *DeliverableRepository) Update(ctx context.Context, id string, in domain.DeliverableInput) (*domain.Deliverable, error) {
	query := `UPDATE deliverables
		SET name = $1, lead = $2, coordinating_staff = $3, field = $4, start_date = $5::date, end_date = $6::date,
		    description = $7, keywords = $8, storage_link = $9
		WHERE id::text = $10
		RETURNING ` + db.Columns

	args := append(inputArgs(in), id)
	d, err := db.ScanDeliverable(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, handleError("update", err)
	}
	return d, nil
}

// Delete removes row id / Supprime la ligne id
func (r *DeliverableRepository) Delete(ctx context.Context, id string) (*domain.Deliverable, error) {
	query := `DELETE FROM deliverables WHERE id::text = $1 RETURNING ` + db.Columns

	d, err := db.ScanDeliverable(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, handleError("delete", err)
	}
	return d, nil
}
