package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Fanout writes every record to all of its handlers.
// Fanout écrit chaque enregistrement dans tous ses handlers.
type Fanout struct {
	handlers []slog.Handler
}

// NewFanout combines handlers. The first one is the primary sink: its
// errors are returned, the others are best effort.
func NewFanout(primary slog.Handler, others ...slog.Handler) *Fanout {
	return &Fanout{handlers: append([]slog.Handler{primary}, others...)}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var primaryErr error
	for i, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		err := h.Handle(ctx, r.Clone())
		if i == 0 {
			primaryErr = err
		}
	}
	return primaryErr
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &Fanout{handlers: next}
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &Fanout{handlers: next}
}

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
