// Package calllog provides the persistence layer for call-history records.
//
// # Overview
//
// The package defines a Store interface used by the backup reader and the
// restore pipeline, with two implementations: SQLiteStore for the
// device-local call log (the primary deployment) and PostgresStore for
// installations that keep call history in a central database. Schemas are
// managed with embedded goose migrations; see internal/migrations.
//
// # Identity
//
// Row ids are store-assigned and device-local. Backup tracks them in its
// state blob; restore never carries them across — an inserted record always
// receives a fresh id. Restore deduplication therefore matches on
// (date, number), exposed here through CountMatching and QueryExistingKeys.
//
// # Concurrency
//
// Implementations are safe for concurrent use when backed by a properly
// configured *sql.DB. The check-then-insert sequence used for restore
// deduplication assumes a single restore writer per device session; the
// store imposes no locking of its own.
//
// Key Types
//
//   - type Store          — interface used by backup and restore
//   - type SQLiteStore    — device-local SQLite implementation
//   - type PostgresStore  — central-database implementation
//
// Typical Usage
//
//	store, err := calllog.OpenSQLite(ctx, dsn)
//	records, _ := store.QueryAll(ctx)
//	_ = store.Insert(ctx, call)
package calllog
