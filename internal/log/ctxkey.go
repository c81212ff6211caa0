// Package log is the common spot for pagequery logging helpers.
//
// Packages log through [log/slog] with the "Context" variants of the logging
// functions, so attributes attached to a [context.Context] with [With] or
// [WithPage] show up on every record once the handler is wrapped with
// [WrapHandler].
package log

import (
	"context"
	"log/slog"
	"slices"

	"github.com/quay/pagequery"
)

// Ctxkey keys the values this package stores in a [context.Context].
type ctxkey int

const (
	_ ctxkey = iota

	// AttrsKey holds a [slog.Value] of kind "Group" with the attributes
	// added by [With], [WithAttr], and [WithPage].
	AttrsKey
	// LevelKey holds the [slog.Leveler] set by [WithLevel].
	LevelKey
)

// With returns a context with the arguments stored as [slog.Attr] at
// [AttrsKey]. Arguments are interpreted as by [slog.Logger.Log].
func With(ctx context.Context, args ...any) context.Context {
	return WithAttr(ctx, slog.Group("", args...).Value.Group()...)
}

// WithAttr returns a context with the arguments stored at [AttrsKey].
//
// An attribute replaces any earlier one with the same key, in place. Empty
// groups are dropped.
func WithAttr(ctx context.Context, attrs ...slog.Attr) context.Context {
	var merged []slog.Attr
	if v, ok := ctx.Value(AttrsKey).(slog.Value); ok {
		merged = slices.Clone(v.Group())
	}
	for _, a := range attrs {
		if a.Value.Kind() == slog.KindGroup && len(a.Value.Group()) == 0 {
			continue
		}
		i := slices.IndexFunc(merged, func(b slog.Attr) bool { return b.Key == a.Key })
		if i == -1 {
			merged = append(merged, a)
			continue
		}
		merged[i] = a
	}
	return context.WithValue(ctx, AttrsKey, slog.GroupValue(merged...))
}

// WithLevel returns a context with the [slog.Leveler] stored at [LevelKey].
func WithLevel(ctx context.Context, l slog.Leveler) context.Context {
	return context.WithValue(ctx, LevelKey, l)
}

// WithPage returns a context carrying the page request as a "page" group.
func WithPage(ctx context.Context, p pagequery.PageRequest) context.Context {
	attrs := []slog.Attr{
		slog.Uint64("index", uint64(p.Index)),
		slog.Uint64("size", uint64(p.Size)),
	}
	if len(p.Sort) != 0 {
		sort := make([]string, len(p.Sort))
		for i, s := range p.Sort {
			sort[i] = s.String()
		}
		attrs = append(attrs, slog.Any("sort", sort))
	}
	return WithAttr(ctx, slog.Attr{Key: "page", Value: slog.GroupValue(attrs...)})
}
