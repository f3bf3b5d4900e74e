package db

import (
	"fmt"

	"github.com/Olprog59/go-deliverables/internal/domain"
)

// ErrNoRecord means the statement touched no row. It is an empty acknowledgment.
var ErrNoRecord = fmt.Errorf("%w: no matching record found", domain.ErrEmptyAcknowledgment)

// Transport wraps a driver error so callers can match domain.ErrTransport.
// Transport enveloppe une erreur du driver pour domain.ErrTransport.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTransport, op, err)
}
