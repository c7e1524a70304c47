package calllog

import (
	"context"

	"github.com/dmitrijs2005/callvault/internal/calls"
)

// Store describes the persistent call-history store as seen by the backup
// and restore paths. Implementations are backed by a local SQLite database
// or by Postgres for deployments keeping call history centrally.
type Store interface {
	// QueryAll returns every stored call, ordered by id ascending.
	QueryAll(ctx context.Context) ([]calls.Call, error)

	// CountMatching returns how many stored calls match the
	// (date, number) pair.
	CountMatching(ctx context.Context, date int64, number string) (int, error)

	// Insert stores one call. The store assigns a fresh id and writes it
	// back into c.
	Insert(ctx context.Context, c *calls.Call) error

	// QueryExistingKeys returns the subset of keys already present in
	// the store.
	QueryExistingKeys(ctx context.Context, keys []calls.Key) (map[calls.Key]struct{}, error)

	// BulkInsert stores the records in one round trip where the backend
	// allows it. The returned slice is aligned with records: a nil entry
	// means that record was inserted, a non-nil entry carries its
	// individual failure. The error covers whole-operation failures.
	BulkInsert(ctx context.Context, records []*calls.Call) ([]error, error)
}
