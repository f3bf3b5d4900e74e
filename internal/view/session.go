package view

import (
	"sync"
	"time"
)

// Mode is one of the three screens / L'un des trois écrans
type Mode string

const (
	ModeListing  Mode = "list"
	ModeCreating Mode = "create"
	ModeEditing  Mode = "edit"
)

// ParseMode maps a submitted mode name, defaulting to listing.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeCreating:
		return ModeCreating
	case ModeEditing:
		return ModeEditing
	default:
		return ModeListing
	}
}

// Message levels
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message is one line of feedback shown above the current screen.
type Message struct {
	Level string
	Text  string
}

// Session is the per-browser transient state the controller works on.
// Session est l'état transitoire propre à chaque navigateur.
type Session struct {
	ID        string
	CSRFToken string
	CreatedAt time.Time

	Mode   Mode
	Search string
	Form   Form

	// SelectedID is the record loaded in the edit form.
	SelectedID string
	// PendingDeleteID is the record whose deletion awaits a second press.
	PendingDeleteID string

	// Messages produced by the last event, shown once.
	Messages []Message

	mu sync.Mutex
}

// NewSession creates a session in listing mode.
func NewSession(id, csrfToken string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CSRFToken: csrfToken,
		CreatedAt: now,
		Mode:      ModeListing,
	}
}

func (s *Session) addMessage(level, text string) {
	s.Messages = append(s.Messages, Message{Level: level, Text: text})
}
