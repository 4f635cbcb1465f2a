package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/logger"

	_ "modernc.org/sqlite"
)

// SQLiteFile is the database file of a sqlite index.
const SQLiteFile = "index.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fragments (
    position INTEGER PRIMARY KEY,
    id TEXT UNIQUE NOT NULL,
    text TEXT NOT NULL,
    vector BLOB NOT NULL
);
`

// SQLiteIndex keeps vectors as little-endian float32 BLOBs in a SQLite
// file and scores every row by cosine similarity on search.
//
// Fragments indexed but not yet saved are searched in memory.
type SQLiteIndex struct {
	opts Options

	mu      sync.RWMutex
	db      *sql.DB
	pending []record
	built   bool
}

// NewSQLiteIndex creates an empty sqlite index.
func NewSQLiteIndex(opts Options) *SQLiteIndex {
	return &SQLiteIndex{opts: opts}
}

func (s *SQLiteIndex) Index(ctx context.Context, fragments []common.Fragment) error {
	records, err := embedFragments(ctx, s.opts, fragments)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pending = records
	s.built = true
	s.mu.Unlock()

	logger.Info("[Index] Indexed fragments", "backend", BackendSQLite, "count", len(records))
	return nil
}

// Save writes the indexed fragments to location, replacing its contents,
// and keeps the database open for searching.
func (s *SQLiteIndex) Save(ctx context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(location, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	db, err := openSQLite(ctx, filepath.Join(location, SQLiteFile))
	if err != nil {
		return err
	}
	if err := writeRecords(ctx, db, s.pending); err != nil {
		db.Close()
		return err
	}
	if err := WriteManifest(location, newManifest(s.opts, BackendSQLite, s.pending)); err != nil {
		db.Close()
		return err
	}

	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	s.pending = nil
	return nil
}

func (s *SQLiteIndex) Load(ctx context.Context, location string) error {
	if _, err := ReadManifest(location, BackendSQLite, s.opts.Dimensions); err != nil {
		return err
	}
	path := filepath.Join(location, SQLiteFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s is missing", ErrNotBuilt, path)
	}
	db, err := openSQLite(ctx, path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	s.pending = nil
	s.built = true
	return nil
}

func (s *SQLiteIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.built {
		return nil, ErrNotBuilt
	}

	vec, err := embedQuery(ctx, s.opts, query)
	if err != nil {
		return nil, err
	}
	if s.db == nil {
		return searchRecords(s.pending, vec, limit), nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, text, vector FROM fragments ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			id, text string
			blob     []byte
		)
		if err := rows.Scan(&id, &text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		hits = append(hits, Hit{ID: id, Score: cosineSimilarity(vec, deserializeVector(blob)), Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return topHits(hits, limit), nil
}

func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

func writeRecords(ctx context.Context, db *sql.DB, records []record) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fragments`); err != nil {
		return fmt.Errorf("failed to clear fragments: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fragments (position, id, text, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Text, serializeVector(r.Vector)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
