package calllog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/callvault/internal/calls"
	pgmigrations "github.com/dmitrijs2005/callvault/internal/migrations/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore implements Store over a central Postgres database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a store bound to an already-migrated database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects to the database at dsn and applies pending
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open call-log db: %w", err)
	}

	goose.SetBaseFS(pgmigrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run call-log migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) QueryAll(ctx context.Context) ([]calls.Call, error) {
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

func (s *PostgresStore) CountMatching(ctx context.Context, date int64, number string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM calls WHERE date = $1 AND COALESCE(number, '') = $2`,
		date, number).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count matching calls: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Insert(ctx context.Context, c *calls.Call) error {
	return s.insertOne(ctx, c)
}

func (s *PostgresStore) QueryExistingKeys(ctx context.Context, keys []calls.Key) (map[calls.Key]struct{}, error) {
	found := make(map[calls.Key]struct{}, len(keys))

	for start := 0; start < len(keys); start += existingKeysChunk {
		end := start + existingKeysChunk
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		conds := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*2)
		for i, k := range chunk {
			conds = append(conds, fmt.Sprintf(`(date = $%d AND COALESCE(number, '') = $%d)`, i*2+1, i*2+2))
			args = append(args, k.Date, k.Number)
		}

		query := `SELECT date, COALESCE(number, '') FROM calls WHERE ` + strings.Join(conds, " OR ")
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

// BulkInsert inserts records one statement at a time. Postgres aborts a
// transaction after any failed statement, so per-record outcomes cannot
// share one transaction the way the SQLite store does.
func (s *PostgresStore) BulkInsert(ctx context.Context, records []*calls.Call) ([]error, error) {
	results := make([]error, len(records))
	for i, c := range records {
		results[i] = s.insertOne(ctx, c)
	}
	return results, nil
}

func (s *PostgresStore) insertOne(ctx context.Context, c *calls.Call) error {
	query := `INSERT INTO calls (` + callColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`
	var id int
	err := s.db.QueryRowContext(ctx, query, insertArgs(c)...).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}
	c.ID = id
	return nil
}
