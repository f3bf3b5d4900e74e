package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
)

// Columns is the select list shared by every SQL dialect, in scan order.
const Columns = "id, name, lead, coordinating_staff, field, start_date, end_date, description, keywords, storage_link, created_at"

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanDeliverable maps one row to a Deliverable, rejecting malformed values.
// ScanDeliverable convertit une ligne en Deliverable et rejette les valeurs invalides.
func ScanDeliverable(row RowScanner) (*domain.Deliverable, error) {
	var id, start, end, created any
	var name, lead, staff, field, desc, keywords, storageLink string
	if err := row.Scan(&id, &name, &lead, &staff, &field, &start, &end, &desc, &keywords, &storageLink, &created); err != nil {
		return nil, err
	}

	d := &domain.Deliverable{
		Name:              name,
		Lead:              lead,
		CoordinatingStaff: staff,
		Field:             field,
		Description:       desc,
		Keywords:          keywords,
		StorageLink:       storageLink,
	}

	var err error
	if d.ID, err = idValue(id); err != nil {
		return nil, err
	}
	if d.StartDate, err = dateValue("start_date", start); err != nil {
		return nil, err
	}
	if d.EndDate, err = dateValue("end_date", end); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = timeValue(created); err != nil {
		return nil, err
	}
	return d, nil
}

// DateArg formats a date the way every backend stores it (YYYY-MM-DD).
func DateArg(t time.Time) string {
	return domain.FormatDate(t)
}

func idValue(v any) (string, error) {
	switch id := v.(type) {
	case int64:
		return strconv.FormatInt(id, 10), nil
	case []byte:
		if len(id) > 0 {
			return string(id), nil
		}
	case string:
		if id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: unusable id %v", domain.ErrInvalidRow, v)
}

func dateValue(column string, v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return domain.TruncateDate(d), nil
	case []byte:
		return parseDate(column, string(d))
	case string:
		return parseDate(column, d)
	}
	return time.Time{}, fmt.Errorf("%w: %s has type %T", domain.ErrInvalidRow, column, v)
}

func parseDate(column, s string) (time.Time, error) {
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", domain.ErrInvalidRow, column, s)
	}
	return t, nil
}

// created_at layouts seen across the drivers
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func timeValue(v any) (time.Time, error) {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case nil:
		return time.Time{}, nil
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		return time.Time{}, fmt.Errorf("%w: created_at has type %T", domain.ErrInvalidRow, v)
	}

	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: created_at %q", domain.ErrInvalidRow, s)
}
