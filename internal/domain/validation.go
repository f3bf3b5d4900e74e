package domain

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validation messages / Messages de validation
const (
	MsgNameRequired  = "Product name must not be empty."
	MsgLeadRequired  = "Lead must not be empty."
	MsgFieldRequired = "Field must not be empty."
	MsgDateOrder     = "End date must not be before start date."
)

// validationOrder fixes the order messages are reported in.
var validationOrder = []string{"name", "lead", "field", "end_date"}

// Validate checks the required fields and the date ordering of a candidate record.
// Every rule is evaluated; the returned slice holds one message per violation
// and is empty when the candidate is valid.
func Validate(name, lead, field string, startDate, endDate time.Time) []string {
	errs := ValidationErrors(name, lead, field, startDate, endDate)
	if len(errs) == 0 {
		return []string{}
	}

	messages := make([]string, 0, len(errs))
	for _, key := range validationOrder {
		if err, ok := errs[key]; ok {
			messages = append(messages, err.Error())
		}
	}
	return messages
}

// ValidationErrors returns the per-field violations keyed by column name.
func ValidationErrors(name, lead, field string, startDate, endDate time.Time) validation.Errors {
	errs := validation.Errors{
		"name":  validation.Validate(strings.TrimSpace(name), validation.Required.Error(MsgNameRequired)),
		"lead":  validation.Validate(strings.TrimSpace(lead), validation.Required.Error(MsgLeadRequired)),
		"field": validation.Validate(strings.TrimSpace(field), validation.Required.Error(MsgFieldRequired)),
	}
	if !startDate.IsZero() && !endDate.IsZero() {
		errs["end_date"] = validation.Validate(TruncateDate(endDate),
			validation.Min(TruncateDate(startDate)).Error(MsgDateOrder))
	}

	filtered := validation.Errors{}
	for k, err := range errs {
		if err != nil {
			filtered[k] = err
		}
	}
	return filtered
}
