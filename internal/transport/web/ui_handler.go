package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

type modeLink struct {
	Mode  view.Mode
	Label string
}

var pageTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"date":   domain.FormatDate,
	"noData": func() string { return view.MsgNoData },
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"modes": func() []modeLink {
		return []modeLink{
			{view.ModeListing, "View deliverables"},
			{view.ModeCreating, "Add deliverable"},
			{view.ModeEditing, "Edit / delete"},
		}
	},
}).ParseFS(templateFS, "templates/*.html"))

// page is the data handed to the template.
type page struct {
	view.View
	CSRFToken string
}

var errUnknownEvent = errors.New("unknown event")

// Index renders the session's current screen / Affiche l'écran courant de la session
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		ErrorResponse(w, "no session", http.StatusInternalServerError)
		return
	}

	v := h.container.Controller.Render(r.Context(), s)

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "index", page{View: v, CSRFToken: s.CSRFToken}); err != nil {
		slog.Error("failed to render page", "request_id", GetRequestID(r.Context()), "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// UIEvent applies one posted event and redirects back to the page, which
// shows the outcome once.
// UIEvent applique un événement posté puis redirige vers la page.
func (h *Handler) UIEvent(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		ErrorResponse(w, "no session", http.StatusInternalServerError)
		return
	}

	limitRequestBody(w, r, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, "Invalid form", http.StatusBadRequest)
		return
	}

	ev, err := eventFromRequest(r)
	if err != nil {
		ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.container.Controller.Handle(r.Context(), s, ev)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// eventFromRequest maps the posted "event" field to a controller event.
func eventFromRequest(r *http.Request) (view.Event, error) {
	name := r.PostFormValue("event")
	switch name {
	case "mode":
		return view.SwitchMode{Mode: view.ParseMode(r.PostFormValue("mode"))}, nil
	case "search":
		return view.Search{Query: r.PostFormValue("q")}, nil
	case "refresh":
		return view.Refresh{}, nil
	case "create":
		return view.SubmitCreate{Form: formFromRequest(r)}, nil
	case "select":
		return view.Select{ID: r.PostFormValue("id"), Label: r.PostFormValue("label")}, nil
	case "update":
		return view.SubmitUpdate{ID: r.PostFormValue("id"), Form: formFromRequest(r)}, nil
	case "delete":
		return view.PressDelete{ID: r.PostFormValue("id")}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEvent, name)
	}
}

func formFromRequest(r *http.Request) view.Form {
	return view.Form{
		Name:              r.PostFormValue("name"),
		Lead:              r.PostFormValue("lead"),
		CoordinatingStaff: r.PostFormValue("coordinating_staff"),
		Field:             r.PostFormValue("field"),
		StartDate:         r.PostFormValue("start_date"),
		EndDate:           r.PostFormValue("end_date"),
		Description:       r.PostFormValue("description"),
		Keywords:          r.PostFormValue("keywords"),
		StorageLink:       r.PostFormValue("storage_link"),
	}
}
