package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Main is a TestMain helper. It adds an "app-trace" flag that writes spans
// produced during the test run to a file as otel JSON.
//
// This function panics if any setup fails.
//
//	func TestMain(m *testing.M) {
//		test.Main(m)
//	}
func Main(m *testing.M) {
	var code int
	var out *os.File
	var tp *trace.TracerProvider
	defer func() {
		if out != nil {
			ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
			err := errors.Join(tp.Shutdown(ctx), out.Close())
			done()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error while cleaning up: %v\n", err)
				code++
			}
		}
		if code != 0 {
			os.Exit(code)
		}
	}()

	path := flag.String("app-trace", "", "path to write for application traces (otel JSON format)")
	flag.Parse()

	if *path != "" {
		var err error
		out, err = os.OpenFile(*path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			panic(err)
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			panic(fmt.Errorf("creating stdout exporter: %w", err))
		}
		r, err := resource.Merge(
			resource.Default(),
			resource.NewSchemaless(attribute.String("test.start", time.Now().Format(time.RFC3339))))
		if err != nil {
			panic(fmt.Errorf("creating resource: %w", err))
		}
		tp = trace.NewTracerProvider(
			trace.WithSampler(trace.AlwaysSample()),
			trace.WithResource(r),
			trace.WithBatcher(exporter),
		)
		otel.SetTracerProvider(tp)
	}

	code = m.Run()
}
