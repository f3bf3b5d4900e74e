package view

import (
	"strings"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
)

// Date parsing messages / Messages d'analyse des dates
const (
	MsgStartDateInvalid = "Start date must be a date (YYYY-MM-DD)."
	MsgEndDateInvalid   = "End date must be a date (YYYY-MM-DD)."
)

// Form holds the raw values of the create/edit form, exactly as submitted.
// Keeping strings lets a rejected form be shown back unchanged.
type Form struct {
	Name              string
	Lead              string
	CoordinatingStaff string
	Field             string
	StartDate         string
	EndDate           string
	Description       string
	Keywords          string
	StorageLink       string
}

// NewCreateForm is the empty create form with both dates set to today.
// NewCreateForm est le formulaire vide avec les deux dates à aujourd'hui.
func NewCreateForm(today time.Time) Form {
	d := domain.FormatDate(domain.TruncateDate(today))
	return Form{StartDate: d, EndDate: d}
}

// FormFromDeliverable pre-populates the edit form / Pré-remplit le formulaire d'édition
func FormFromDeliverable(d domain.Deliverable) Form {
	return Form{
		Name:              d.Name,
		Lead:              d.Lead,
		CoordinatingStaff: d.CoordinatingStaff,
		Field:             d.Field,
		StartDate:         domain.FormatDate(d.StartDate),
		EndDate:           domain.FormatDate(d.EndDate),
		Description:       d.Description,
		Keywords:          d.Keywords,
		StorageLink:       d.StorageLink,
	}
}

// Input parses the form. The returned messages combine date parsing
// problems with the record validator's rules; none means the input is valid.
func (f Form) Input() (domain.DeliverableInput, []string) {
	var messages []string

	start, err := domain.ParseDate(f.StartDate)
	if err != nil || strings.TrimSpace(f.StartDate) == "" {
		messages = append(messages, MsgStartDateInvalid)
		start = time.Time{}
	}
	end, err := domain.ParseDate(f.EndDate)
	if err != nil || strings.TrimSpace(f.EndDate) == "" {
		messages = append(messages, MsgEndDateInvalid)
		end = time.Time{}
	}

	in := domain.DeliverableInput{
		Name:              f.Name,
		Lead:              f.Lead,
		CoordinatingStaff: f.CoordinatingStaff,
		Field:             f.Field,
		StartDate:         start,
		EndDate:           end,
		Description:       f.Description,
		Keywords:          f.Keywords,
		StorageLink:       f.StorageLink,
	}
	messages = append(in.Validate(), messages...)
	return in, messages
}
