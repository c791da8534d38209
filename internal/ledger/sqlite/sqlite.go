package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// register sqlite driver
	_ "modernc.org/sqlite"

	"github.com/alexshd/queuelaw/internal/ledger"
)

// Store implements ledger.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite store at the given path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS calculations (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	request TEXT NOT NULL,
	metrics TEXT NOT NULL,
	rho REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calculations_created ON calculations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_calculations_model_created ON calculations(model, created_at DESC);
`
	if _, err := s.db.Exec(schema); err != nil {
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
VALUES(?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Model,
		string(e.Request),
		string(e.Metrics),
		e.Rho,
		e.CreatedAt.UnixNano(),
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
SELECT id, model, request, metrics, rho, created_at
FROM calculations
WHERE ? = '' OR model = ?
ORDER BY created_at DESC
LIMIT ?`, model, model, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e                ledger.Entry
			request, metrics string
			createdUnixNanos int64
		)
		if err := rows.Scan(&e.ID, &e.Model, &request, &metrics, &e.Rho, &createdUnixNanos); err != nil {
			return nil, err
		}
		e.Request = []byte(request)
		e.Metrics = []byte(metrics)
		e.CreatedAt = time.Unix(0, createdUnixNanos).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
