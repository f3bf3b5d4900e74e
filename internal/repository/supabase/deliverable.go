// Package supabase talks to the hosted deliverables table through PostgREST.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/ports"
	"github.com/supabase-community/postgrest-go"
)

// Config holds the hosted service coordinates / Coordonnées du service hébergé
type Config struct {
	URL    string // project URL, without /rest/v1
	Key    string
	Schema string
	Table  string

	// Timeout bounds the wait for the response headers of each request.
	// Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is used when Config.Timeout is not set.
const DefaultTimeout = 10 * time.Second

// DeliverableRepository reads and writes the deliverables table over HTTP.
// DeliverableRepository lit et écrit la table des livrables via HTTP.
type DeliverableRepository struct {
	client *postgrest.Client
	table  string
}

var (
	_ ports.DeliverableRepository = (*DeliverableRepository)(nil)
	_ ports.Pinger                = (*DeliverableRepository)(nil)
)

// NewDeliverableRepository builds the PostgREST client once; callers inject it explicitly.
func NewDeliverableRepository(cfg Config) (*DeliverableRepository, error) {
	if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.Key) == "" {
		return nil, errors.New("supabase: url and key are required")
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	table := cfg.Table
	if table == "" {
		table = "deliverables"
	}

	headers := map[string]string{
		"apikey":        cfg.Key,
		"Authorization": "Bearer " + cfg.Key,
	}
	client := postgrest.NewClient(RestURL(cfg.URL), schema, headers)
	if client.ClientError != nil {
		return nil, fmt.Errorf("supabase: %w", client.ClientError)
	}
	// postgrest-go sends requests without a context; a hung service
	// surfaces as a transport error once the timeout elapses.
	client.Transport.Parent = boundedTransport(cfg.Timeout)

	return &DeliverableRepository{client: client, table: table}, nil
}

func boundedTransport(timeout time.Duration) http.RoundTripper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = timeout
	t.TLSHandshakeTimeout = timeout
	return t
}

// RestURL appends the PostgREST path to a project URL / Ajoute le chemin PostgREST à l'URL du projet
func RestURL(projectURL string) string {
	u := strings.TrimRight(strings.TrimSpace(projectURL), "/")
	if strings.HasSuffix(u, "/rest/v1") {
		return u
	}
	return u + "/rest/v1"
}

// ListAll fetches every row ordered by created_at descending.
func (r *DeliverableRepository) ListAll(ctx context.Context) ([]domain.Deliverable, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport("list", err)
	}

	body, _, err := r.client.From(r.table).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, transport("list", err)
	}
	return decodeRows(body)
}

// Insert creates a row and returns the representation echoed by the service.
func (r *DeliverableRepository) Insert(ctx context.Context, in domain.DeliverableInput) (*domain.Deliverable, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport("insert", err)
	}

	body, _, err := r.client.From(r.table).
		Insert(newPayload(in), false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, transport("insert", err)
	}
	return firstRow("insert", body)
}

// Update overwrites row id / Met à jour la ligne id
func (r *DeliverableRepository) Update(ctx context.Context, id string, in domain.DeliverableInput) (*domain.Deliverable, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport("update", err)
	}

	body, _, err := r.client.From(r.table).
		Update(newPayload(in), "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, transport("update", err)
	}
	return firstRow("update", body)
}

// Delete removes row id / Supprime la ligne id
func (r *DeliverableRepository) Delete(ctx context.Context, id string) (*domain.Deliverable, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport("delete", err)
	}

	body, _, err := r.client.From(r.table).
		Delete("representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, transport("delete", err)
	}
	return firstRow("delete", body)
}

// Ping issues the smallest possible read / Effectue la plus petite lecture possible
func (r *DeliverableRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return transport("ping", err)
	}
	_, _, err := r.client.From(r.table).
		Select("id", "", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return transport("ping", err)
	}
	return nil
}

// firstRow enforces the write acknowledgment: an empty row set is a failure.
func firstRow(op string, body []byte) (*domain.Deliverable, error) {
	items, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		slog.Warn("write acknowledged with no rows", "operation", op)
		return nil, fmt.Errorf("%w: %s returned no rows", domain.ErrEmptyAcknowledgment, op)
	}
	return &items[0], nil
}

func transport(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrTransport, op, err)
}
