// Package postgres implements [datastore.Pager] on PostgreSQL, using a pgx
// connection pool.
//
// Column lists are read from the information_schema on every call, so tables
// may change underneath a running Store.
package postgres
