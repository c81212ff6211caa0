package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// WrapHandler wraps the provided handler with an interceptor that retrieves
// [slog.Attr] values from [AttrsKey] and honors a per-Context [LevelKey].
func WrapHandler(next slog.Handler) slog.Handler {
	return handler{next: next}
}

var _ slog.Handler = handler{}

type handler struct {
	next slog.Handler
}

// Enabled implements [slog.Handler].
func (h handler) Enabled(ctx context.Context, l slog.Level) bool {
	rec := slog.Level(1<<31 - 1)
	if l, ok := ctx.Value(LevelKey).(slog.Leveler); ok {
		rec = l.Level()
	}
	return l >= rec || h.next.Enabled(ctx, l)
}

// Handle implements [slog.Handler].
func (h handler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(AttrsKey).(slog.Value); ok {
		r.AddAttrs(v.Group()...)
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements [slog.Handler].
func (h handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return handler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (h handler) WithGroup(name string) slog.Handler {
	return handler{next: h.next.WithGroup(name)}
}

// NewHandler constructs the wrapped handler used by the pagequery binaries.
//
// The format is "text" or "json"; the level is any string accepted by
// [slog.Level.UnmarshalText].
func NewHandler(w io.Writer, format, level string) (slog.Handler, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log: bad level %q: %w", level, err)
	}
	opts := slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, &opts)
	case "json":
		h = slog.NewJSONHandler(w, &opts)
	default:
		return nil, fmt.Errorf("log: unknown format %q", format)
	}
	return WrapHandler(h), nil
}
