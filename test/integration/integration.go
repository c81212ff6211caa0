// Package integration is a helper for running integration tests.
//
// Integration tests need the "integration" build tag and a PostgreSQL server
// reachable at the DSN in the PAGEQUERY_TEST_DSN environment variable, or
// [DefaultDSN] if unset.
package integration

import (
	"os"
	"testing"
)

// DSNEnv is the environment variable consulted for the test database.
const DSNEnv = `PAGEQUERY_TEST_DSN`

// DefaultDSN is the dsn used when [DSNEnv] is unset: a local server on port
// 5434 with a "pagequery" role and database.
const DefaultDSN = `host=localhost port=5434 user=pagequery dbname=pagequery sslmode=disable`

// Skip will skip the current test or benchmark if this package was built without
// the "integration" build tag.
//
// This should be used as an annotation at the top of the function, like
// (*testing.T).Parallel().
func Skip(t testing.TB) {
	t.Helper()
	if skip {
		t.Skip("skipping integration test: integration tag not provided")
	}
}

// DSN reports the connection string for the test database server.
func DSN() string {
	if dsn, ok := os.LookupEnv(DSNEnv); ok && dsn != "" {
		return dsn
	}
	return DefaultDSN
}
