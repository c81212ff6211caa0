// Package telemetry holds the metrics and tracing instruments shared by the
// datastore implementations.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quay/pagequery/internal/log"
)

// InstrumentationVersion is reported with every span produced by this package.
const instrumentationVersion = `0.1.0`

var (
	metricLabels   = []string{"db", "method", "success"}
	methodDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagequery",
		Subsystem: "datastore",
		Name:      "method_duration_seconds",
		Help:      "Duration of datastore method calls, including data read time.",
	}, metricLabels)
	methodCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagequery",
		Subsystem: "datastore",
		Name:      "method_total",
		Help:      "Count of datastore method calls.",
	}, metricLabels)
)

// Tracer is the package-wide tracer. It delegates to whatever provider is
// installed with [otel.SetTracerProvider], even if that happens later.
var tracer = otel.Tracer("github.com/quay/pagequery/datastore",
	trace.WithInstrumentationVersion(instrumentationVersion),
)

// Method instruments a datastore method call. It is meant to be used in
// methods with a named error return:
//
//	func (s *Store) Page(ctx context.Context, ...) (_ *datastore.Page, err error) {
//		ctx, done := telemetry.Method(ctx, "sqlite", "Page", &err)
//		defer done()
//		...
//	}
//
// The returned function records the duration and outcome, and wraps a
// non-nil error with the database and method names.
func Method(ctx context.Context, db, name string, err *error) (context.Context, func()) {
	ctx = log.With(ctx, "component", "datastore/"+db+"/"+name)
	ctx, span := tracer.Start(ctx, db+"."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", db),
			attribute.String("method", name),
		))
	slog.DebugContext(ctx, "start")
	begin := time.Now()
	return ctx, func() {
		ok := *err == nil
		labels := prometheus.Labels{
			"db":      db,
			"method":  name,
			"success": strconv.FormatBool(ok),
		}
		methodDuration.With(labels).Observe(time.Since(begin).Seconds())
		methodCounter.With(labels).Inc()
		if ok {
			span.SetStatus(codes.Ok, "")
			slog.DebugContext(ctx, "done")
		} else {
			*err = fmt.Errorf("%s: %s: %w", db, name, *err)
			span.RecordError(*err)
			span.SetStatus(codes.Error, "method error")
			slog.DebugContext(ctx, "done", "reason", *err)
		}
		span.End()
	}
}
