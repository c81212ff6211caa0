// Package pagequery applies page requests to SQL queries.
//
// A [PageRequest] names a zero-based page, a page size, and an ordered list of
// [SortInstruction]s. [Augment] resolves each sort field through a [Schema],
// then adds the ORDER BY, OFFSET, and LIMIT clauses to a goqu
// [goqu.SelectDataset]. A field the Schema doesn't know about fails the whole
// call with an [*UnknownSortFieldError] before anything is applied, so a
// caller can turn it into an "invalid sort parameter" response without
// parsing message text.
//
// Executing the resulting query is the caller's business; see the datastore
// packages for PostgreSQL and SQLite implementations.
package pagequery // import "github.com/quay/pagequery"
