// Package database provides the document-store abstraction for Trailpeak.
//
// The Database interface wraps SurrealDB with three query methods:
//   - Query: multiple results (list reads, aggregations)
//   - QueryOne: a single result (reads by id)
//   - Execute: no results (mutations where the outcome is not needed)
//
// Standard errors are defined for common failure cases and should be
// checked with errors.Is:
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // record does not exist
//	}
//
// Atomic multi-statement writes go through AtomicBatch: statements
// accumulate in memory and run inside a single BEGIN TRANSACTION /
// COMMIT TRANSACTION block when Execute is called. There is no
// isolation between Add calls before that point.
package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation (e.g. duplicate email).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")
)

// Database defines the interface for document-store operations
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database connection settings
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
