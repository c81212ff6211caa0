package test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quay/pagequery/internal/log"
)

// ModulePrefix is trimmed from function names in source locations.
const modulePrefix = `github.com/quay/pagequery/`

var (
	installRouter = sync.OnceFunc(func() {
		slog.SetDefault(slog.New(router{}))
	})
	workdir = sync.OnceValue(func() string {
		dir, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		return dir
	})
)

type handlerKey struct{}

// Router is the default [slog.Handler] while tests run. It forwards every
// record to the handler that [Logging] stored in the record's Context, and
// drops records from Contexts without one.
type router struct {
	// Wrap replays WithAttrs and WithGroup calls onto the per-test handler.
	wrap func(slog.Handler) slog.Handler
}

var _ slog.Handler = router{}

func (r router) target(ctx context.Context) (slog.Handler, bool) {
	h, ok := ctx.Value(handlerKey{}).(slog.Handler)
	if ok && r.wrap != nil {
		h = r.wrap(h)
	}
	return h, ok
}

func (r router) then(f func(slog.Handler) slog.Handler) router {
	prev := r.wrap
	if prev == nil {
		return router{wrap: f}
	}
	return router{wrap: func(h slog.Handler) slog.Handler { return f(prev(h)) }}
}

// Enabled implements [slog.Handler].
func (r router) Enabled(ctx context.Context, l slog.Level) bool {
	h, ok := r.target(ctx)
	return ok && h.Enabled(ctx, l)
}

// Handle implements [slog.Handler].
func (r router) Handle(ctx context.Context, rec slog.Record) error {
	h, ok := r.target(ctx)
	if !ok {
		return nil
	}
	if v, ok := ctx.Value(log.AttrsKey).(slog.Value); ok {
		rec.AddAttrs(v.Group()...)
	}
	return h.Handle(ctx, rec)
}

// WithAttrs implements [slog.Handler].
func (r router) WithAttrs(attrs []slog.Attr) slog.Handler {
	return r.then(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

// WithGroup implements [slog.Handler].
func (r router) WithGroup(name string) slog.Handler {
	return r.then(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

// Logging returns a [context.Context] that makes the default [slog.Logger]
// write to the output of the provided [testing.TB] at debug level.
//
// If a parent Context is not provided, [context.Background] is used.
func Logging(t testing.TB, parent ...context.Context) context.Context {
	installRouter()
	ctx := context.Background()
	if len(parent) > 0 {
		ctx = parent[0]
	}
	f := recordFormat{start: time.Now()}
	h := slog.NewTextHandler(t.Output(), &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: f.replace,
	})
	return context.WithValue(ctx, handlerKey{}, h)
}

// RecordFormat shortens the time and source attributes of top-level records.
type recordFormat struct {
	start time.Time
}

func (f recordFormat) replace(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String(slog.TimeKey, "+"+time.Since(f.start).String())
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok {
			return slog.String(slog.SourceKey, shortSource(src))
		}
	}
	return a
}

func shortSource(src *slog.Source) string {
	if src.Function != "" {
		return strings.TrimPrefix(src.Function, modulePrefix)
	}
	file := src.File
	if rel, err := filepath.Rel(workdir(), file); err == nil && rel != "" {
		file = rel
	}
	return fmt.Sprintf("%s:%d", file, src.Line)
}
