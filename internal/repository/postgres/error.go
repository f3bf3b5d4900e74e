package postgres

import (
	"database/sql"
	"errors"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
	"github.com/lib/pq"
)

// ErrNoRecord is re-exported from the db package.
var ErrNoRecord = db.ErrNoRecord

// handleError translates PostgreSQL errors to typed errors. Constraint
// violations stay transport failures: the table has no unique key besides id.
// handleError traduit les erreurs PostgreSQL en erreurs typées.
func handleError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRecord
	}
	if errors.Is(err, domain.ErrInvalidRow) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "22P02", "22007", "22008": // invalid_text_representation, invalid datetime
			return db.Transport(op, errors.New(pqErr.Message))
		}
	}
	return db.Transport(op, err)
}
