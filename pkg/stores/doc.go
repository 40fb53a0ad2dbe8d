// Package stores provides the SQLite persistence layer of confsync. The
// store holds the live configuration, serving as the remote gateway, and
// the history of import runs with their applied operations. Schema
// migrations are embedded and applied with golang-migrate.
package stores
