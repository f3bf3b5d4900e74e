package repository

import "github.com/Olprog59/go-deliverables/internal/repository/db"

// ErrNoRecord is returned by every SQL backend when an update or delete
// touched no row. It matches domain.ErrEmptyAcknowledgment.
var ErrNoRecord = db.ErrNoRecord
