// Package view drives the three screens of the deliverables UI as an explicit
// state machine. Each user action is an Event applied to a Session; the
// resulting View is what a renderer (HTML, CLI, tests) displays.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/service"
)

// Controller messages / Messages du contrôleur
const (
	MsgSelectFirst    = "Select a deliverable first."
	MsgRecordMissing  = "The selected deliverable is no longer in the list."
	MsgConfirmDelete  = "Press Delete again to confirm deleting %q."
	MsgDeleteRetarget = "Deletion of the previous record was cancelled."
	MsgNoData         = "No data yet."
)

// Delete confirmation stages reported to metrics.
const (
	StageArmed     = "armed"
	StageConfirmed = "confirmed"
	StageCancelled = "cancelled"
)

// Service is what the controller needs from the deliverables service.
type Service interface {
	List(ctx context.Context) service.ListResult
	Create(ctx context.Context, in domain.DeliverableInput) service.Outcome
	Update(ctx context.Context, id string, in domain.DeliverableInput) service.Outcome
	Delete(ctx context.Context, id string) service.Outcome
	Refresh()
}

// DeleteRecorder receives two-step delete transitions.
type DeleteRecorder interface {
	RecordDeleteStage(stage string)
}

// Option is one entry of the edit picker.
type Option struct {
	ID    string
	Label string
}

// View is the rendered state of a session after an event / État rendu d'une session
type View struct {
	Mode     Mode
	Messages []Message

	// Listing
	Search    string
	Rows      []domain.Deliverable
	Count     int
	Total     int
	LoadError string

	// Creating / Editing
	Form            Form
	Options         []Option
	SelectedID      string
	PendingDeleteID string
}

// Empty reports whether the listing has nothing to show.
func (v View) Empty() bool {
	return v.Mode == ModeListing && v.Count == 0
}

// Controller applies events to sessions / Applique les événements aux sessions
type Controller struct {
	svc     Service
	now     func() time.Time
	metrics DeleteRecorder
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithClock sets the clock used for the create form's default dates.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithDeleteRecorder reports delete confirmation stages.
func WithDeleteRecorder(r DeleteRecorder) ControllerOption {
	return func(c *Controller) { c.metrics = r }
}

// NewController creates a controller over svc / Crée un contrôleur sur svc
func NewController(svc Service, opts ...ControllerOption) *Controller {
	c := &Controller{svc: svc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle applies one event to the session and returns the resulting view.
// Any event other than PressDelete cancels a pending deletion.
// Messages produced here stay on the session until the next Render.
func (c *Controller) Handle(ctx context.Context, s *Session, ev Event) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Messages = nil
	if _, ok := ev.(PressDelete); !ok {
		c.cancelPendingDelete(s)
	}

	slog.Debug("ui event", "session", s.ID, "event", ev.eventName(), "mode", s.Mode)

	switch e := ev.(type) {
	case SwitchMode:
		c.switchMode(s, e.Mode)
	case Search:
		s.Mode = ModeListing
		s.Search = e.Query
	case Refresh:
		c.svc.Refresh()
		s.addMessage(LevelInfo, service.MsgRefreshed)
	case SubmitCreate:
		c.submitCreate(ctx, s, e.Form)
	case Select:
		c.selectRecord(ctx, s, e)
	case SubmitUpdate:
		c.submitUpdate(ctx, s, e)
	case PressDelete:
		c.pressDelete(ctx, s, e.ID)
	}

	return c.render(ctx, s)
}

// Render returns the current view and consumes the session's messages.
// Render retourne la vue courante et consomme les messages de la session.
func (c *Controller) Render(ctx context.Context, s *Session) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := c.render(ctx, s)
	s.Messages = nil
	return v
}

func (c *Controller) switchMode(s *Session, mode Mode) {
	s.Mode = mode
	s.SelectedID = ""
	s.PendingDeleteID = ""
	s.Form = Form{}
	if mode == ModeCreating {
		s.Form = NewCreateForm(c.now())
	}
}

func (c *Controller) submitCreate(ctx context.Context, s *Session, f Form) {
	s.Mode = ModeCreating
	s.Form = f

	in, problems := f.Input()
	if len(problems) > 0 {
		addErrors(s, problems)
		return
	}

	out := c.svc.Create(ctx, in)
	if !out.OK {
		reportFailure(s, out)
		return
	}
	s.Form = NewCreateForm(c.now())
	s.addMessage(LevelSuccess, out.Message)
}

func (c *Controller) selectRecord(ctx context.Context, s *Session, e Select) {
	s.Mode = ModeEditing

	items := c.svc.List(ctx).Items
	for _, d := range items {
		if (e.ID != "" && d.ID == e.ID) || (e.ID == "" && domain.SelectionLabel(d) == e.Label) {
			s.SelectedID = d.ID
			s.Form = FormFromDeliverable(d)
			return
		}
	}

	s.SelectedID = ""
	s.Form = Form{}
	s.addMessage(LevelError, MsgRecordMissing)
}

func (c *Controller) submitUpdate(ctx context.Context, s *Session, e SubmitUpdate) {
	s.Mode = ModeEditing
	id := e.ID
	if id == "" {
		id = s.SelectedID
	}
	if id == "" {
		s.addMessage(LevelError, MsgSelectFirst)
		return
	}
	s.SelectedID = id
	s.Form = e.Form

	in, problems := e.Form.Input()
	if len(problems) > 0 {
		addErrors(s, problems)
		return
	}

	out := c.svc.Update(ctx, id, in)
	if !out.OK {
		reportFailure(s, out)
		return
	}
	if out.Record != nil {
		s.Form = FormFromDeliverable(*out.Record)
	}
	s.addMessage(LevelSuccess, out.Message)
}

// pressDelete arms the confirmation on the first press and deletes on a
// second press targeting the same record. A press on another record moves
// the confirmation to it without deleting anything.
func (c *Controller) pressDelete(ctx context.Context, s *Session, id string) {
	s.Mode = ModeEditing
	if id == "" {
		id = s.SelectedID
	}
	if id == "" {
		s.PendingDeleteID = ""
		s.addMessage(LevelError, MsgSelectFirst)
		return
	}

	if s.PendingDeleteID != id {
		if s.PendingDeleteID != "" {
			c.recordStage(StageCancelled)
			s.addMessage(LevelInfo, MsgDeleteRetarget)
		}
		s.PendingDeleteID = id
		c.recordStage(StageArmed)
		s.addMessage(LevelWarning, fmt.Sprintf(MsgConfirmDelete, c.labelFor(ctx, id, s)))
		return
	}

	s.PendingDeleteID = ""
	c.recordStage(StageConfirmed)
	out := c.svc.Delete(ctx, id)
	if !out.OK {
		reportFailure(s, out)
		return
	}
	if s.SelectedID == id {
		s.SelectedID = ""
		s.Form = Form{}
	}
	s.addMessage(LevelSuccess, out.Message)
}

func (c *Controller) cancelPendingDelete(s *Session) {
	if s.PendingDeleteID == "" {
		return
	}
	s.PendingDeleteID = ""
	c.recordStage(StageCancelled)
}

func (c *Controller) recordStage(stage string) {
	if c.metrics != nil {
		c.metrics.RecordDeleteStage(stage)
	}
}

func (c *Controller) labelFor(ctx context.Context, id string, s *Session) string {
	if id == s.SelectedID && s.Form.Name != "" {
		return s.Form.Name
	}
	for _, d := range c.svc.List(ctx).Items {
		if d.ID == id {
			return d.Name
		}
	}
	return "ID " + id
}

func (c *Controller) render(ctx context.Context, s *Session) View {
	v := View{
		Mode:            s.Mode,
		Messages:        append([]Message(nil), s.Messages...),
		Search:          s.Search,
		Form:            s.Form,
		SelectedID:      s.SelectedID,
		PendingDeleteID: s.PendingDeleteID,
	}

	if s.Mode == ModeCreating {
		if v.Form == (Form{}) {
			v.Form = NewCreateForm(c.now())
		}
		return v
	}

	res := c.svc.List(ctx)
	v.LoadError = res.Error
	v.Total = len(res.Items)

	switch s.Mode {
	case ModeEditing:
		v.Options = make([]Option, 0, len(res.Items))
		for _, d := range res.Items {
			v.Options = append(v.Options, Option{ID: d.ID, Label: domain.SelectionLabel(d)})
		}
	default:
		v.Rows = service.FilterByName(res.Items, s.Search)
		v.Count = len(v.Rows)
	}
	return v
}

func addErrors(s *Session, messages []string) {
	for _, m := range messages {
		s.addMessage(LevelError, m)
	}
}

func reportFailure(s *Session, out service.Outcome) {
	if len(out.Errors) > 0 {
		addErrors(s, out.Errors)
		return
	}
	s.addMessage(LevelError, out.Message)
}
