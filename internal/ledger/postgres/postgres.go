package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/alexshd/queuelaw/internal/ledger"
)

// Store implements ledger.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

// New opens a PostgreSQL-backed ledger store using the provided DSN and
// connection pool settings.
func New(ctx context.Context, dsn string, maxOpen, maxIdle int) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS calculations (
	id UUID PRIMARY KEY,
	model TEXT NOT NULL,
	request JSONB NOT NULL,
	metrics JSONB NOT NULL,
	rho DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_calculations_created ON calculations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_calculations_model_created ON calculations(model, created_at DESC);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a new calculation and returns it with ID and CreatedAt set.
func (s *Store) Record(ctx context.Context, entry ledger.Entry) (ledger.Entry, error) {
	e, err := ledger.Prepare(entry)
	if err != nil {
		return ledger.Entry{}, err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO calculations(id, model, request, metrics, rho, created_at)
VALUES($1, $2, $3, $4, $5, $6)`,
		e.ID,
		e.Model,
		string(e.Request),
		string(e.Metrics),
		e.Rho,
		e.CreatedAt,
	)
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("insert calculation: %w", err)
	}
	return e, nil
}

// ListRecent returns the latest calculations, newest first. An empty model
// lists every model.
func (s *Store) ListRecent(ctx context.Context, model string, limit int) ([]ledger.Entry, error) {
	limit = ledger.ClampLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
SELECT id::text, model, request::text, metrics::text, rho, created_at
FROM calculations
WHERE $1 = '' OR model = $1
ORDER BY created_at DESC
LIMIT $2`, model, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e                ledger.Entry
			request, metrics string
		)
		if err := rows.Scan(&e.ID, &e.Model, &request, &metrics, &e.Rho, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Request = []byte(request)
		e.Metrics = []byte(metrics)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
