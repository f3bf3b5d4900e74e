package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the wire / Format de date ISO-8601 utilisé sur le réseau
const DateLayout = "2006-01-02"

// Deliverable is one product/topic deliverable row / Une ligne de livrable produit/sujet
//
// ID and CreatedAt are assigned by the backend and never change afterwards.
type Deliverable struct {
	ID                string
	Name              string
	Lead              string
	CoordinatingStaff string
	Field             string
	StartDate         time.Time
	EndDate           time.Time
	Description       string
	Keywords          string
	StorageLink       string
	CreatedAt         time.Time
}

// DeliverableInput is the client-editable part of a deliverable / Partie modifiable d'un livrable
type DeliverableInput struct {
	Name              string
	Lead              string
	CoordinatingStaff string
	Field             string
	StartDate         time.Time
	EndDate           time.Time
	Description       string
	Keywords          string
	StorageLink       string
}

// Input returns the editable fields of d / Retourne les champs modifiables
func (d Deliverable) Input() DeliverableInput {
	return DeliverableInput{
		Name:              d.Name,
		Lead:              d.Lead,
		CoordinatingStaff: d.CoordinatingStaff,
		Field:             d.Field,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		Description:       d.Description,
		Keywords:          d.Keywords,
		StorageLink:       d.StorageLink,
	}
}

// Normalize trims the free-text fields and truncates dates to the calendar day.
func (in DeliverableInput) Normalize() DeliverableInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Lead = strings.TrimSpace(in.Lead)
	in.CoordinatingStaff = strings.TrimSpace(in.CoordinatingStaff)
	in.Field = strings.TrimSpace(in.Field)
	in.Keywords = strings.TrimSpace(in.Keywords)
	in.StorageLink = strings.TrimSpace(in.StorageLink)
	in.StartDate = TruncateDate(in.StartDate)
	in.EndDate = TruncateDate(in.EndDate)
	return in
}

// Validate runs the record validator on the input / Exécute le validateur sur l'entrée
func (in DeliverableInput) Validate() []string {
	return Validate(in.Name, in.Lead, in.Field, in.StartDate, in.EndDate)
}

// SelectionLabel is the identifier-bearing label shown in the edit picker.
// SelectionLabel est le libellé portant l'identifiant affiché dans le sélecteur d'édition.
func SelectionLabel(d Deliverable) string {
	return fmt.Sprintf("%s (ID: %s)", d.Name, d.ID)
}

// FormatDate renders t as YYYY-MM-DD / Formate t en AAAA-MM-JJ
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
// Values carrying a time component (e.g. "2024-01-01T00:00:00Z") are accepted
// and truncated to the calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return TruncateDate(t), nil
		}
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// TruncateDate keeps only the calendar day of t, in UTC.
func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
