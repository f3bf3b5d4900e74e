// Package service is the boundary between callers and the record backend.
// Every repository failure is logged and turned into an Outcome; no error
// value leaves this package.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Olprog59/go-deliverables/internal/cache"
	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/ports"
)

// User-facing messages / Messages affichés à l'utilisateur
const (
	MsgCreated        = "Deliverable added successfully."
	MsgUpdated        = "Deliverable updated successfully."
	MsgDeleted        = "Deliverable deleted."
	MsgRefreshed      = "Data reloaded from the server."
	MsgNotFound       = "The selected deliverable no longer exists. Refresh the list and try again."
	msgLoadFailed     = "Could not load deliverables"
	msgCreateFailed   = "Could not add the deliverable"
	msgUpdateFailed   = "Could not update the deliverable"
	msgDeleteFailed   = "Could not delete the deliverable"
	msgNotAcknowledge = "the server did not confirm the change"
	msgInvalidData    = "the server returned malformed data"
	msgUnreachable    = "the server could not be reached"
)

// Operation names used in logs and metrics.
const (
	OpList   = "list"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Outcome is the result of a write: a success flag plus a message to display.
// Outcome est le résultat d'une écriture : un indicateur de succès et un message.
type Outcome struct {
	OK      bool
	Message string
	// Errors holds the validation messages when the candidate was rejected.
	Errors []string
	// Record is the row as stored by the backend, on success.
	Record *domain.Deliverable
}

// ListResult is a possibly degraded read: on failure Items is empty and Error is set.
type ListResult struct {
	Items []domain.Deliverable
	Error string
}

// ListCache is the read-through cache the service reads through.
type ListCache interface {
	GetOrFetch(ctx context.Context, fetch cache.FetchFn) ([]domain.Deliverable, error)
	Invalidate(reason string)
}

// MetricsRecorder records deliverable metrics / Enregistre les métriques des livrables
type MetricsRecorder interface {
	RecordOperation(operation, status string, duration time.Duration)
	RecordValidationFailure(field string)
}

// DeliverableService runs validation, writes and cache invalidation.
// DeliverableService gère la validation, les écritures et l'invalidation du cache.
type DeliverableService struct {
	reader  ports.DeliverableReader
	writer  ports.DeliverableWriter
	cache   ListCache
	metrics MetricsRecorder
}

// NewDeliverableService creates the service. metrics may be nil.
func NewDeliverableService(repo ports.DeliverableRepository, listCache ListCache, metrics MetricsRecorder) *DeliverableService {
	return &DeliverableService{
		reader:  repo,
		writer:  repo,
		cache:   listCache,
		metrics: metrics,
	}
}

// List returns the cached list, newest first. A backend failure yields an
// empty list and a displayable error instead of an error value.
func (s *DeliverableService) List(ctx context.Context) ListResult {
	items, err := s.cache.GetOrFetch(ctx, s.fetch)
	if err != nil {
		slog.Error("failed to load deliverables", "operation", OpList, "err", err)
		return ListResult{Items: []domain.Deliverable{}, Error: failureMessage(msgLoadFailed, err)}
	}
	return ListResult{Items: items}
}

func (s *DeliverableService) fetch(ctx context.Context) ([]domain.Deliverable, error) {
	start := time.Now()
	items, err := s.reader.ListAll(ctx)
	s.record(OpList, err, start)
	return items, err
}

// Search lists and keeps rows whose name contains query, ignoring case.
func (s *DeliverableService) Search(ctx context.Context, query string) ListResult {
	res := s.List(ctx)
	res.Items = FilterByName(res.Items, query)
	return res
}

// Find looks id up in the cached list / Cherche id dans la liste en cache
func (s *DeliverableService) Find(ctx context.Context, id string) (domain.Deliverable, bool) {
	for _, d := range s.List(ctx).Items {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Deliverable{}, false
}

// Create validates and inserts a new deliverable / Valide et insère un nouveau livrable
func (s *DeliverableService) Create(ctx context.Context, in domain.DeliverableInput) Outcome {
	in = in.Normalize()
	if out, rejected := s.validate(in); rejected {
		return out
	}

	start := time.Now()
	d, err := s.writer.Insert(ctx, in)
	s.record(OpInsert, err, start)
	if err != nil {
		slog.Error("failed to insert deliverable", "operation", OpInsert, "name", in.Name, "err", err)
		return Outcome{Message: failureMessage(msgCreateFailed, err)}
	}

	s.cache.Invalidate(cache.ReasonWrite)
	slog.Info("deliverable created", "id", d.ID)
	return Outcome{OK: true, Message: MsgCreated, Record: d}
}

// Update validates and overwrites deliverable id / Valide et met à jour le livrable id
func (s *DeliverableService) Update(ctx context.Context, id string, in domain.DeliverableInput) Outcome {
	in = in.Normalize()
	if out, rejected := s.validate(in); rejected {
		return out
	}

	start := time.Now()
	d, err := s.writer.Update(ctx, id, in)
	s.record(OpUpdate, err, start)
	if err != nil {
		slog.Error("failed to update deliverable", "operation", OpUpdate, "id", id, "err", err)
		return Outcome{Message: failureMessage(msgUpdateFailed, err)}
	}

	s.cache.Invalidate(cache.ReasonWrite)
	slog.Info("deliverable updated", "id", id)
	return Outcome{OK: true, Message: MsgUpdated, Record: d}
}

// Delete removes deliverable id. Confirmation is the caller's concern.
// Delete supprime le livrable id ; la confirmation relève de l'appelant.
func (s *DeliverableService) Delete(ctx context.Context, id string) Outcome {
	start := time.Now()
	d, err := s.writer.Delete(ctx, id)
	s.record(OpDelete, err, start)
	if err != nil {
		slog.Error("failed to delete deliverable", "operation", OpDelete, "id", id, "err", err)
		return Outcome{Message: failureMessage(msgDeleteFailed, err)}
	}

	s.cache.Invalidate(cache.ReasonWrite)
	slog.Info("deliverable deleted", "id", id)
	return Outcome{OK: true, Message: MsgDeleted, Record: d}
}

// Refresh drops the cached list; the next List goes to the backend.
func (s *DeliverableService) Refresh() {
	s.cache.Invalidate(cache.ReasonManual)
}

func (s *DeliverableService) validate(in domain.DeliverableInput) (Outcome, bool) {
	messages := in.Validate()
	if len(messages) == 0 {
		return Outcome{}, false
	}

	if s.metrics != nil {
		for field := range domain.ValidationErrors(in.Name, in.Lead, in.Field, in.StartDate, in.EndDate) {
			s.metrics.RecordValidationFailure(field)
		}
	}
	slog.Debug("deliverable rejected by validation", "errors", messages)
	return Outcome{Message: domain.NewValidationError(messages).Error(), Errors: messages}, true
}

func (s *DeliverableService) record(op string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	s.metrics.RecordOperation(op, status, time.Since(start))
}

// FilterByName keeps the rows whose name contains query, case-insensitively.
// An empty query returns items unchanged.
// FilterByName garde les lignes dont le nom contient query, sans tenir compte de la casse.
func FilterByName(items []domain.Deliverable, query string) []domain.Deliverable {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}

	needle := strings.ToLower(query)
	out := make([]domain.Deliverable, 0, len(items))
	for _, d := range items {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			out = append(out, d)
		}
	}
	return out
}

// failureMessage collapses the error taxonomy into one displayable sentence.
func failureMessage(prefix string, err error) string {
	reason := msgUnreachable
	switch {
	case errors.Is(err, domain.ErrEmptyAcknowledgment):
		reason = msgNotAcknowledge
	case errors.Is(err, domain.ErrInvalidRow):
		reason = msgInvalidData
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		reason = "the request timed out"
	}
	return prefix + ": " + reason + "."
}
