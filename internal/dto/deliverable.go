package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
)

// DeliverableDTO is the JSON/YAML shape of a stored deliverable / Forme JSON/YAML d'un livrable
type DeliverableDTO struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	Lead              string `json:"lead" yaml:"lead"`
	CoordinatingStaff string `json:"coordinating_staff" yaml:"coordinating_staff"`
	Field             string `json:"field" yaml:"field"`
	StartDate         string `json:"start_date" yaml:"start_date"` // YYYY-MM-DD
	EndDate           string `json:"end_date" yaml:"end_date"`     // YYYY-MM-DD
	Description       string `json:"description" yaml:"description"`
	Keywords          string `json:"keywords" yaml:"keywords"`
	StorageLink       string `json:"storage_link" yaml:"storage_link"`
	CreatedAt         string `json:"created_at" yaml:"created_at"` // RFC 3339
}

// DeliverableToDTO converts domain.Deliverable to DeliverableDTO / Convertit domain.Deliverable en DeliverableDTO
func DeliverableToDTO(d domain.Deliverable) DeliverableDTO {
	created := ""
	if !d.CreatedAt.IsZero() {
		created = d.CreatedAt.UTC().Format(time.RFC3339)
	}
	return DeliverableDTO{
		ID:                d.ID,
		Name:              d.Name,
		Lead:              d.Lead,
		CoordinatingStaff: d.CoordinatingStaff,
		Field:             d.Field,
		StartDate:         domain.FormatDate(d.StartDate),
		EndDate:           domain.FormatDate(d.EndDate),
		Description:       d.Description,
		Keywords:          d.Keywords,
		StorageLink:       d.StorageLink,
		CreatedAt:         created,
	}
}

// DeliverablesToDTO converts a list, never returning nil.
func DeliverablesToDTO(items []domain.Deliverable) []DeliverableDTO {
	out := make([]DeliverableDTO, 0, len(items))
	for _, d := range items {
		out = append(out, DeliverableToDTO(d))
	}
	return out
}

// DeliverableRequest is the body of create and update calls / Corps des appels de création et de mise à jour
type DeliverableRequest struct {
	Name              string `json:"name"`
	Lead              string `json:"lead"`
	CoordinatingStaff string `json:"coordinating_staff"`
	Field             string `json:"field"`
	StartDate         string `json:"start_date"` // YYYY-MM-DD, defaults to today
	EndDate           string `json:"end_date"`   // YYYY-MM-DD, defaults to today
	Description       string `json:"description"`
	Keywords          string `json:"keywords"`
	StorageLink       string `json:"storage_link"`
}

// ToInput parses the dates; blank dates become today.
func (r DeliverableRequest) ToInput(today time.Time) (domain.DeliverableInput, error) {
	start, err := parseDateOr(r.StartDate, today)
	if err != nil {
		return domain.DeliverableInput{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDateOr(r.EndDate, today)
	if err != nil {
		return domain.DeliverableInput{}, fmt.Errorf("end_date: %w", err)
	}

	return domain.DeliverableInput{
		Name:              r.Name,
		Lead:              r.Lead,
		CoordinatingStaff: r.CoordinatingStaff,
		Field:             r.Field,
		StartDate:         start,
		EndDate:           end,
		Description:       r.Description,
		Keywords:          r.Keywords,
		StorageLink:       r.StorageLink,
	}, nil
}

func parseDateOr(s string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return domain.TruncateDate(fallback), nil
	}
	return domain.ParseDate(s)
}

// ListResponse is returned by GET /api/deliverables
type ListResponse struct {
	Items []DeliverableDTO `json:"items"`
	Count int              `json:"count"`
	Error string           `json:"error,omitempty"`
}

// OutcomeResponse reports a write / Rapporte une écriture
type OutcomeResponse struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors,omitempty"`
	Record  *DeliverableDTO `json:"record,omitempty"`
}
