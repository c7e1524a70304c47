package calllog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/callvault/internal/calls"
	"github.com/dmitrijs2005/callvault/internal/dbx"
	sqlitemigrations "github.com/dmitrijs2005/callvault/internal/migrations/sqlite"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Upper bound on (date, number) pairs per existence query, keeping well
// clear of SQLite's bound-variable limit.
const existingKeysChunk = 200

const callColumns = `date, duration, number, post_dial_digits, via_number, type,
	number_presentation, account_component_name, account_id, account_address,
	data_usage, features, add_for_all_users, block_reason,
	call_screening_app_name, call_screening_component_name, missed_reason,
	is_phone_account_migration_pending`

// SQLiteStore implements Store over a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a store bound to an already-migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLite opens the SQLite database at dsn and applies pending
// migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open call-log db: %w", err)
	}

	goose.SetBaseFS(sqlitemigrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run call-log migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) QueryAll(ctx context.Context) ([]calls.Call, error) {
	query := `SELECT id, ` + callColumns + ` FROM calls ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select calls: %w", err)
	}
	defer rows.Close()

	var result []calls.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLiteStore) CountMatching(ctx context.Context, date int64, number string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM calls WHERE date = ? AND IFNULL(number, '') = ?`,
		date, number).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count matching calls: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, c *calls.Call) error {
	return insertCall(ctx, s.db, c)
}

func (s *SQLiteStore) QueryExistingKeys(ctx context.Context, keys []calls.Key) (map[calls.Key]struct{}, error) {
	found := make(map[calls.Key]struct{}, len(keys))

	for start := 0; start < len(keys); start += existingKeysChunk {
		end := start + existingKeysChunk
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		conds := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*2)
		for _, k := range chunk {
			conds = append(conds, `(date = ? AND IFNULL(number, '') = ?)`)
			args = append(args, k.Date, k.Number)
		}

		query := `SELECT date, IFNULL(number, '') FROM calls WHERE ` + strings.Join(conds, " OR ")
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query existing calls: %w", err)
		}
		if err := collectKeys(rows, found); err != nil {
			return nil, err
		}
	}

	return found, nil
}

// BulkInsert inserts the whole batch inside one transaction. Individual
// statement failures are collected per record and do not poison the
// transaction on SQLite; the successful remainder still commits.
func (s *SQLiteStore) BulkInsert(ctx context.Context, records []*calls.Call) ([]error, error) {
	results := make([]error, len(records))

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for i, c := range records {
			results[i] = insertCall(ctx, tx, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk insert failed: %w", err)
	}

	return results, nil
}

func insertCall(ctx context.Context, db dbx.DBTX, c *calls.Call) error {
	query := `INSERT INTO calls (` + callColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query, insertArgs(c)...)
	if err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted call id: %w", err)
	}
	c.ID = int(id)
	return nil
}

func insertArgs(c *calls.Call) []any {
	return []any{
		c.Date, c.Duration, c.Number, c.PostDialDigits, c.ViaNumber, c.Type,
		c.NumberPresentation, c.AccountComponentName, c.AccountID, c.AccountAddress,
		c.DataUsage, c.Features, c.AddForAllUsers, c.BlockReason,
		c.CallScreeningAppName, c.CallScreeningComponentName, c.MissedReason,
		c.IsPhoneAccountMigrationPending,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCall reads one row of `SELECT id, callColumns`. The stored
// migration-pending flag is discarded: that field is derived when records
// are read, not trusted from storage.
func scanCall(row rowScanner) (*calls.Call, error) {
	var (
		c                                    calls.Call
		number, postDialDigits, viaNumber    sql.NullString
		componentName, accountID, accountAdr sql.NullString
		screeningApp, screeningComponent     sql.NullString
		missedReason                         sql.NullString
		dataUsage                            sql.NullInt64
		migrationPending                     int
	)

	err := row.Scan(&c.ID, &c.Date, &c.Duration, &number, &postDialDigits,
		&viaNumber, &c.Type, &c.NumberPresentation, &componentName, &accountID,
		&accountAdr, &dataUsage, &c.Features, &c.AddForAllUsers, &c.BlockReason,
		&screeningApp, &screeningComponent, &missedReason, &migrationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to scan call row: %w", err)
	}

	c.Number = nullableString(number)
	c.PostDialDigits = nullableString(postDialDigits)
	c.ViaNumber = nullableString(viaNumber)
	c.AccountComponentName = nullableString(componentName)
	c.AccountID = nullableString(accountID)
	c.AccountAddress = nullableString(accountAdr)
	c.CallScreeningAppName = nullableString(screeningApp)
	c.CallScreeningComponentName = nullableString(screeningComponent)
	c.MissedReason = nullableString(missedReason)
	if dataUsage.Valid {
		c.DataUsage = &dataUsage.Int64
	}

	return &c, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func collectKeys(rows *sql.Rows, into map[calls.Key]struct{}) error {
	defer rows.Close()
	for rows.Next() {
		var k calls.Key
		if err := rows.Scan(&k.Date, &k.Number); err != nil {
			return fmt.Errorf("failed to scan existing call key: %w", err)
		}
		into[k] = struct{}{}
	}
	return rows.Err()
}
