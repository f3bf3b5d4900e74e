package view

// Event is one discrete user action / Une action utilisateur discrète
type Event interface {
	eventName() string
}

// SwitchMode moves to another screen and resets the form.
type SwitchMode struct {
	Mode Mode
}

// Search sets the name filter of the listing.
type Search struct {
	Query string
}

// Refresh drops the cached list and reloads it.
type Refresh struct{}

// SubmitCreate submits the create form.
type SubmitCreate struct {
	Form Form
}

// Select loads a record into the edit form, by ID or by its selection label.
type Select struct {
	ID    string
	Label string
}

// SubmitUpdate saves the edit form. An empty ID means the selected record.
type SubmitUpdate struct {
	ID   string
	Form Form
}

// PressDelete is one press of the delete button. An empty ID means the selected record.
type PressDelete struct {
	ID string
}

func (SwitchMode) eventName() string   { return "mode" }
func (Search) eventName() string       { return "search" }
func (Refresh) eventName() string      { return "refresh" }
func (SubmitCreate) eventName() string { return "create" }
func (Select) eventName() string       { return "select" }
func (SubmitUpdate) eventName() string { return "update" }
func (PressDelete) eventName() string  { return "delete" }

// EventName returns the wire name of ev, as used by the web form.
func EventName(ev Event) string {
	return ev.eventName()
}
