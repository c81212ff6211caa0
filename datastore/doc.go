// Package datastore defines the interface for fetching pages of table rows
// from a database, along with the helpers the implementations share.
//
// Implementations live in the subpackages: [github.com/quay/pagequery/datastore/postgres]
// and [github.com/quay/pagequery/datastore/sqlite].
package datastore
