// Package logging holds the slog handlers used by the server and the CLI:
// a batching Loki push handler and a fan-out handler writing to several sinks.
package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const flushInterval = 5 * time.Second

// LokiHandler is a slog.Handler that pushes logs to Loki over HTTP.
// Logs are batched and flushed when the batch is full, every few seconds, and on Close.
// Handlers derived with WithAttrs/WithGroup share the same batch.
type LokiHandler struct {
	sink   *lokiSink
	attrs  []slog.Attr
	groups []string
}

// lokiSink is the batch and HTTP client shared by a handler and its derivatives.
type lokiSink struct {
	url        string
	labels     map[string]string
	client     *http.Client
	batch      []lokiEntry
	batchMu    sync.Mutex
	batchSize  int
	flushTimer *time.Timer
	enabled    bool
	level      slog.Level
}

type lokiEntry struct {
	timestamp time.Time
	line      string
}

type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// NewLokiHandler creates a handler pushing to Loki / Crée un handler qui pousse vers Loki
// url: Loki endpoint (e.g., "http://localhost:3100")
// labels: static stream labels (e.g., {"app": "go-deliverables"})
// batchSize: logs per push (0 = push every record)
func NewLokiHandler(url string, labels map[string]string, batchSize int, enabled bool, level slog.Level) *LokiHandler {
	if labels == nil {
		labels = make(map[string]string)
	}
	if batchSize < 0 {
		batchSize = 0
	}

	s := &lokiSink{
		url:       strings.TrimRight(url, "/") + "/loki/api/v1/push",
		labels:    labels,
		client:    &http.Client{Timeout: 5 * time.Second},
		batch:     make([]lokiEntry, 0, batchSize),
		batchSize: batchSize,
		enabled:   enabled,
		level:     level,
	}

	if batchSize > 0 && enabled {
		s.flushTimer = time.AfterFunc(flushInterval, s.periodicFlush)
	}

	return &LokiHandler{sink: s}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LokiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.sink.enabled && level >= h.sink.level
}

// Handle encodes the record as one JSON line and queues it.
func (h *LokiHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.sink.enabled {
		return nil
	}

	logData := map[string]any{
		"time":  r.Time.Format(time.RFC3339Nano),
		"level": r.Level.String(),
		"msg":   r.Message,
	}

	prefix := h.prefix()
	for _, a := range h.attrs {
		addAttr(logData, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(logData, prefix, a)
		return true
	})

	logJSON, err := json.Marshal(logData)
	if err != nil {
		return fmt.Errorf("failed to marshal log to JSON: %w", err)
	}

	return h.sink.add(lokiEntry{timestamp: r.Time, line: string(logJSON)})
}

// WithAttrs returns a handler adding attrs to every record.
// Attributes already set keep the group prefix active when they were added.
func (h *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	prefix := h.prefix()
	next := h.clone()
	for _, a := range attrs {
		a.Key = prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return next
}

// WithGroup returns a handler qualifying later keys with name, as "name.key".
func (h *LokiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

// Close flushes remaining logs and stops the periodic flush.
// Close vide le lot restant et arrête le vidage périodique.
func (h *LokiHandler) Close() error {
	if h.sink.flushTimer != nil {
		h.sink.flushTimer.Stop()
	}
	return h.sink.flush()
}

func (h *LokiHandler) clone() *LokiHandler {
	return &LokiHandler{
		sink:   h.sink,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *LokiHandler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			addAttr(dst, p, ga)
		}
		return
	}
	v := a.Value.Any()
	if err, ok := v.(error); ok {
		v = err.Error()
	}
	dst[prefix+a.Key] = v
}

func (s *lokiSink) add(e lokiEntry) error {
	s.batchMu.Lock()
	s.batch = append(s.batch, e)
	full := len(s.batch) >= s.batchSize
	s.batchMu.Unlock()

	if full {
		return s.flush()
	}
	return nil
}

// flush sends all batched logs to Loki
func (s *lokiSink) flush() error {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return nil
	}

	entries := make([]lokiEntry, len(s.batch))
	copy(entries, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	// Loki expects [timestamp_in_nanoseconds, log_line]
	values := make([][]string, len(entries))
	for i, entry := range entries {
		values[i] = []string{strconv.FormatInt(entry.timestamp.UnixNano(), 10), entry.line}
	}

	return s.send(lokiPushRequest{
		Streams: []lokiStream{{Stream: s.labels, Values: values}},
	})
}

// send posts the push request. Loki being down never fails the caller.
func (s *lokiSink) send(req lokiPushRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loki: push failed: %v\n", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "loki: push rejected with status %d\n", resp.StatusCode)
	}
	return nil
}

func (s *lokiSink) periodicFlush() {
	_ = s.flush()
	if s.flushTimer != nil {
		s.flushTimer.Reset(flushInterval)
	}
}
