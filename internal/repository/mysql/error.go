package mysql

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
	"github.com/go-sql-driver/mysql"
)

// ErrNoRecord is re-exported from the db package.
var ErrNoRecord = db.ErrNoRecord

// handleError translates MySQL errors to typed errors / Traduit les erreurs MySQL en erreurs typées
func handleError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRecord
	}
	if errors.Is(err, domain.ErrInvalidRow) || errors.Is(err, domain.ErrEmptyAcknowledgment) {
		return err
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		slog.Error("mysql error", "operation", op, "number", mysqlErr.Number, "err", mysqlErr.Message)
	}
	return db.Transport(op, err)
}
