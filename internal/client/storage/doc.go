// Package storage is the client's shared key/value backing store, the
// equivalent of browser local storage: every process started against the
// same database sees the same entries.
//
// Two backends are provided:
//   - SQLiteStorage: durable, file-backed (modernc.org/sqlite), schema managed
//     by embedded goose migrations (see Open and RunMigrations).
//   - MemoryStorage: process-local map, for tests and ephemeral sessions.
//
// Multi-key writes (SetItems, RemoveItems) are atomic on both backends.
// RemoveItem/RemoveItems on absent keys are no-ops.
package storage
