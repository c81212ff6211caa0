package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// QueryTracer is a [pgx.QueryTracer] that records each query as an event on
// the current span and logs it at debug level.
type queryTracer struct{}

var _ pgx.QueryTracer = queryTracer{}

type queryStartKey struct{}

// TraceQueryStart implements [pgx.QueryTracer].
func (queryTracer) TraceQueryStart(ctx context.Context, c *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	trace.SpanFromContext(ctx).AddEvent("query start", trace.WithAttributes(
		attribute.String("db.statement", data.SQL),
		attribute.Int("postgresql.pid", int(c.PgConn().PID())),
	))
	slog.DebugContext(ctx, "query start", "sql", data.SQL, "args", len(data.Args))
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

// TraceQueryEnd implements [pgx.QueryTracer].
func (queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	var dur time.Duration
	if begin, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		dur = time.Since(begin)
	}
	span := trace.SpanFromContext(ctx)
	span.AddEvent("query done", trace.WithAttributes(
		attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()),
	))
	if err := data.Err; err != nil {
		span.RecordError(err)
		slog.DebugContext(ctx, "query error", "reason", err, "duration", dur)
		return
	}
	slog.DebugContext(ctx, "query done", "tag", data.CommandTag.String(), "duration", dur)
}
