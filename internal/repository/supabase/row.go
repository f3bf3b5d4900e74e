package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
)

// row is the wire shape of one deliverables row as PostgREST returns it.
// Pointers distinguish a JSON null from an empty string.
type row struct {
	ID                json.RawMessage `json:"id"`
	Name              *string         `json:"name"`
	Lead              *string         `json:"lead"`
	CoordinatingStaff *string         `json:"coordinating_staff"`
	Field             *string         `json:"field"`
	StartDate         *string         `json:"start_date"`
	EndDate           *string         `json:"end_date"`
	Description       *string         `json:"description"`
	Keywords          *string         `json:"keywords"`
	StorageLink       *string         `json:"storage_link"`
	CreatedAt         *string         `json:"created_at"`
}

// payload is the body sent on insert and update. Dates travel as YYYY-MM-DD.
type payload struct {
	Name              string `json:"name"`
	Lead              string `json:"lead"`
	CoordinatingStaff string `json:"coordinating_staff"`
	Field             string `json:"field"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Description       string `json:"description"`
	Keywords          string `json:"keywords"`
	StorageLink       string `json:"storage_link"`
}

func newPayload(in domain.DeliverableInput) payload {
	return payload{
		Name:              in.Name,
		Lead:              in.Lead,
		CoordinatingStaff: in.CoordinatingStaff,
		Field:             in.Field,
		StartDate:         domain.FormatDate(in.StartDate),
		EndDate:           domain.FormatDate(in.EndDate),
		Description:       in.Description,
		Keywords:          in.Keywords,
		StorageLink:       in.StorageLink,
	}
}

// decodeRows parses a PostgREST response body and maps every row.
func decodeRows(body []byte) ([]domain.Deliverable, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []domain.Deliverable{}, nil
	}
	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRow, err)
	}

	items := make([]domain.Deliverable, 0, len(rows))
	for i, r := range rows {
		d, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		items = append(items, d)
	}
	return items, nil
}

// toDomain validates the row and converts it / Valide la ligne et la convertit
func (r row) toDomain() (domain.Deliverable, error) {
	var d domain.Deliverable

	id, err := decodeID(r.ID)
	if err != nil {
		return d, err
	}
	d.ID = id

	for _, req := range []struct {
		column string
		value  *string
		dst    *string
	}{
		{"name", r.Name, &d.Name},
		{"lead", r.Lead, &d.Lead},
		{"field", r.Field, &d.Field},
	} {
		if req.value == nil {
			return d, fmt.Errorf("%w: %s is null", domain.ErrInvalidRow, req.column)
		}
		*req.dst = *req.value
	}

	d.CoordinatingStaff = deref(r.CoordinatingStaff)
	d.Description = deref(r.Description)
	d.Keywords = deref(r.Keywords)
	d.StorageLink = deref(r.StorageLink)

	if d.StartDate, err = decodeDate("start_date", r.StartDate); err != nil {
		return d, err
	}
	if d.EndDate, err = decodeDate("end_date", r.EndDate); err != nil {
		return d, err
	}
	if r.CreatedAt != nil && *r.CreatedAt != "" {
		created, err := time.Parse(time.RFC3339Nano, *r.CreatedAt)
		if err != nil {
			// timestamp without time zone
			created, err = time.Parse("2006-01-02T15:04:05.999999999", *r.CreatedAt)
		}
		if err != nil {
			return d, fmt.Errorf("%w: created_at %q", domain.ErrInvalidRow, *r.CreatedAt)
		}
		d.CreatedAt = created.UTC()
	}
	return d, nil
}

// decodeID accepts both numeric and text primary keys.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: id is missing", domain.ErrInvalidRow)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: id is empty", domain.ErrInvalidRow)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: id %s", domain.ErrInvalidRow, raw)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

func decodeDate(column string, v *string) (time.Time, error) {
	if v == nil || *v == "" {
		return time.Time{}, nil
	}
	t, err := domain.ParseDate(*v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", domain.ErrInvalidRow, column, *v)
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
