package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/ports"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
)

// DeliverableRepository stores deliverables in MySQL / Stocke les livrables dans MySQL
//
// MySQL has no RETURNING clause, so every write runs in a transaction that
// reads the affected row back before committing.
type DeliverableRepository struct {
	conn *sql.DB
}

// NewDeliverableRepository creates the repository / Crée le repository
func NewDeliverableRepository(conn *sql.DB) *DeliverableRepository {
	return &DeliverableRepository{conn: conn}
}

var _ ports.DeliverableRepository = (*DeliverableRepository)(nil)

// LEAD is a reserved word in MySQL 8
var (
	columns    = strings.Replace(db.Columns, "lead", "`lead`", 1)
	selectByID = `SELECT ` + columns + ` FROM deliverables WHERE id = ?`
)

func inputArgs(in domain.DeliverableInput) []any {
	return []any{
		in.Name, in.Lead, in.CoordinatingStaff, in.Field,
		db.DateArg(in.StartDate), db.DateArg(in.EndDate),
		in.Description, in.Keywords, in.StorageLink,
	}
}

// ListAll returns every row, newest first / Retourne toutes les lignes, les plus récentes d'abord
func (r *DeliverableRepository) ListAll(ctx context.Context) ([]domain.Deliverable, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+columns+` FROM deliverables ORDER BY created_at DESC, id DESC`)
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
	var out *domain.Deliverable
	err := r.withTx(ctx, func(tx ports.DBTX) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO deliverables (name, `lead`, coordinating_staff, field, start_date, end_date, description, keywords, storage_link) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", inputArgs(in)...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out, err = db.ScanDeliverable(tx.QueryRowContext(ctx, selectByID, id))
		return err
	})
	if err != nil {
		return nil, handleError("insert", err)
	}
	return out, nil
}

// Update overwrites row id / Met à jour la ligne id
func (r *DeliverableRepository) Update(ctx context.Context, id string, in domain.DeliverableInput) (*domain.Deliverable, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var out *domain.Deliverable
	err = r.withTx(ctx, func(tx ports.DBTX) error {
		// RowsAffected is 0 for an unchanged row, so existence is checked with a locking read
		if _, err := db.ScanDeliverable(tx.QueryRowContext(ctx, selectByID+` FOR UPDATE`, key)); err != nil {
			return err
		}
		args := append(inputArgs(in), key)
		if _, err := tx.ExecContext(ctx,
			"UPDATE deliverables SET name = ?, `lead` = ?, coordinating_staff = ?, field = ?, start_date = ?, end_date = ?, "+
				"description = ?, keywords = ?, storage_link = ? WHERE id = ?", args...); err != nil {
			return err
		}
		updated, err := db.ScanDeliverable(tx.QueryRowContext(ctx, selectByID, key))
		out = updated
		return err
	})
	if err != nil {
		return nil, handleError("update", err)
	}
	return out, nil
}

// Delete removes row id / Supprime la ligne id
func (r *DeliverableRepository) Delete(ctx context.Context, id string) (*domain.Deliverable, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var out *domain.Deliverable
	err = r.withTx(ctx, func(tx ports.DBTX) error {
		found, err := db.ScanDeliverable(tx.QueryRowContext(ctx, selectByID+` FOR UPDATE`, key))
		if err != nil {
			return err
		}
		out = found
		res, err := tx.ExecContext(ctx, `DELETE FROM deliverables WHERE id = ?`, key)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNoRecord
		}
		return nil
	})
	if err != nil {
		return nil, handleError("delete", err)
	}
	return out, nil
}

func (r *DeliverableRepository) withTx(ctx context.Context, fn func(tx ports.DBTX) error) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Non-numeric ids cannot exist in an AUTO_INCREMENT table.
func parseID(id string) (int64, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, ErrNoRecord
	}
	return key, nil
}
