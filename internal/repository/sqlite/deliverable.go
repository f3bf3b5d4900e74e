package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/ports"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
)

// DeliverableRepository stores deliverables in SQLite / Stocke les livrables dans SQLite
type DeliverableRepository struct {
	db ports.DBTX
}

// NewDeliverableRepository creates the repository / Crée le repository
func NewDeliverableRepository(conn *sql.DB) *DeliverableRepository {
	return &DeliverableRepository{db: conn}
}

var _ ports.DeliverableRepository = (*DeliverableRepository)(nil)

// ListAll returns every row, newest first / Retourne toutes les lignes, les plus récentes d'abord
func (r *DeliverableRepository) ListAll(ctx context.Context) ([]domain.Deliverable, error) {
	query := `SELECT ` + db.Columns + ` FROM deliverables ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
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

// Insert stores a new row and returns it as written / Insère une ligne et la retourne
func (r *DeliverableRepository) Insert(ctx context.Context, in domain.DeliverableInput) (*domain.Deliverable, error) {
	query := `
		INSERT INTO deliverables (name, lead, coordinating_staff, field, start_date, end_date, description, keywords, storage_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + db.Columns

	row := r.db.QueryRowContext(ctx, query,
		in.Name, in.Lead, in.CoordinatingStaff, in.Field,
		db.DateArg(in.StartDate), db.DateArg(in.EndDate),
		in.Description, in.Keywords, in.StorageLink,
	)
	d, err := db.ScanDeliverable(row)
	if err != nil {
		return nil, handleError("insert", err)
	}
	return d, nil
}

// Update overwrites the editable columns of row id / Met à jour les colonnes modifiables de la ligne id
func (r *DeliverableRepository) Update(ctx context.Context, id string, in domain.DeliverableInput) (*domain.Deliverable, error) {
	query := `
		UPDATE deliverables
		SET name = ?, lead = ?, coordinating_staff = ?, field = ?, start_date = ?, end_date = ?,
		    description = ?, keywords = ?, storage_link = ?
		WHERE id = ?
		RETURNING ` + db.Columns

	row := r.db.QueryRowContext(ctx, query,
		in.Name, in.Lead, in.CoordinatingStaff, in.Field,
		db.DateArg(in.StartDate), db.DateArg(in.EndDate),
		in.Description, in.Keywords, in.StorageLink,
		id,
	)
	d, err := db.ScanDeliverable(row)
	if err != nil {
		return nil, handleError("update", err)
	}
	return d, nil
}

// Delete removes row id and returns what was removed / Supprime la ligne id et la retourne
func (r *DeliverableRepository) Delete(ctx context.Context, id string) (*domain.Deliverable, error) {
	query := `DELETE FROM deliverables WHERE id = ? RETURNING ` + db.Columns

	d, err := db.ScanDeliverable(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, handleError("delete", err)
	}
	return d, nil
}
