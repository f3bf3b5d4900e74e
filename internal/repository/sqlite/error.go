package sqlite

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/repository/db"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Busy and locked databases are transport failures; the write is not retried.
// Base occupée ou verrouillée : échec de transport, sans nouvelle tentative.
var (
	ErrNoRecord = db.ErrNoRecord
	ErrBusy     = db.Transport("sqlite", errors.New("database is busy"))
	ErrLocked   = db.Transport("sqlite", errors.New("database is locked"))
)

// handleError translates DB errors to typed errors / Traduit les erreurs DB en erreurs typées
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
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_BUSY:
			slog.Warn("database is busy", "operation", op, "err", liteErr.Error())
			return ErrBusy
		case sqlite3.SQLITE_LOCKED:
			slog.Warn("database is locked", "operation", op, "err", liteErr.Error())
			return ErrLocked
		}
		slog.Error("sqlite error", "operation", op, "code", liteErr.Code(), "err", liteErr.Error())
	}
	return db.Transport(op, err)
}
