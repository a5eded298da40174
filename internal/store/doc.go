// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// Two interfaces split the persistence surface:
//
//   - ToolStore: CRUD for tenant-scoped tool configurations
//   - APITokenStore: long-lived API token records
//
// SQLiteStore implements both in a single struct. Tool configurations are
// stored as JSON text and validated before every write, so a broken
// configuration fails at save time, not at call time.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use NewSQLiteStore(":memory:") for tests with a real SQLite database.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateTool: Tenant already has a tool with the same name
//
// All methods accept context.Context for cancellation support.
package store
