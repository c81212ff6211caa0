// Pagequery serves and renders paged SQL queries.
//
// Configuration comes from, in increasing order of precedence: built-in
// defaults, a YAML file ("pagequery.yaml" or the --config flag), environment
// variables with a PAGEQUERY_ prefix, and command-line flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
