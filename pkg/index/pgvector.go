package index

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/docgraph/docgraph/pkg/ai"
	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgvectorIndex stores vectors in a PostgreSQL table with a pgvector
// column and orders by cosine distance on search. Save and Load only
// handle the manifest; the rows live in the database.
type PgvectorIndex struct {
	opts  Options
	conn  pgxIConn
	pool  *pgxpool.Pool
	table string
	count int
}

// NewPgvectorIndex connects to opts.DatabaseURL.
func NewPgvectorIndex(ctx context.Context, opts Options) (*PgvectorIndex, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("pgvector index requires DATABASE_URL")
	}
	cfg, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	idx, err := NewPgvectorIndexWithConnection(pool, opts)
	if err != nil {
		pool.Close()
		return nil, err
	}
	idx.pool = pool
	return idx, nil
}

// NewPgvectorIndexWithConnection uses an existing connection. The caller
// owns the connection and must have registered the pgvector types.
func NewPgvectorIndexWithConnection(conn pgxIConn, opts Options) (*PgvectorIndex, error) {
	table, err := tableIdentifier(opts.Table)
	if err != nil {
		return nil, err
	}
	return &PgvectorIndex{opts: opts, conn: conn, table: table}, nil
}

func tableIdentifier(name string) (string, error) {
	if name == "" {
		name = defaultTable
	}
	if !tableNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid index table name %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func (p *PgvectorIndex) createTableSQL(dim int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    position INTEGER NOT NULL,
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    embedding vector(%d) NOT NULL
)`, p.table, dim)
}

// columnDimensionSQL reads the declared size of the embedding column. For
// pgvector the type modifier is the dimension; it is -1 when unconstrained.
func (p *PgvectorIndex) columnDimensionSQL() string {
	return `SELECT a.atttypmod FROM pg_attribute a
WHERE a.attrelid = to_regclass($1) AND a.attname = 'embedding' AND NOT a.attisdropped`
}

// needsRecreate reports whether an existing embedding column of size
// existing cannot hold vectors of size dim.
func needsRecreate(existing int, found bool, dim int) bool {
	return found && existing > 0 && existing != dim
}

func (p *PgvectorIndex) searchSQL() string {
	return fmt.Sprintf(
		`SELECT id, text, 1 - (embedding <=> $1) AS score FROM %s ORDER BY embedding <=> $1, position LIMIT $2`,
		p.table,
	)
}

func (p *PgvectorIndex) Index(ctx context.Context, fragments []common.Fragment) error {
	records, err := embedFragments(ctx, p.opts, fragments)
	if err != nil {
		return err
	}
	dim := p.opts.Dimensions
	if len(records) > 0 {
		dim = len(records[0].Vector)
	}
	if dim <= 0 {
		return fmt.Errorf("pgvector index requires a known embedding dimension")
	}

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	existing, found, err := p.columnDimension(ctx, tx)
	if err != nil {
		return err
	}
	if needsRecreate(existing, found, dim) {
		logger.Warn("[Index] Embedding dimension changed, recreating table", "table", p.table, "old", existing, "new", dim)
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DROP TABLE %s`, p.table)); err != nil {
			return fmt.Errorf("failed to drop index table: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, p.createTableSQL(dim)); err != nil {
		return fmt.Errorf("failed to create index table: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, p.table)); err != nil {
		return fmt.Errorf("failed to clear index table: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (position, id, text, embedding) VALUES ($1, $2, $3, $4)`, p.table)
	err = ai.ChunkRange(len(records), p.opts.BatchSize, func(start, end int) error {
		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			r := records[i]
			batch.Queue(insert, i, r.ID, r.Text, pgvector.NewVector(r.Vector))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert embeddings: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit embeddings: %w", err)
	}

	logger.Info("[Index] Indexed fragments", "backend", BackendPgvector, "table", p.table, "count", len(records))
	p.opts.Dimensions = dim
	p.count = len(records)
	return nil
}

func (p *PgvectorIndex) columnDimension(ctx context.Context, tx pgx.Tx) (int, bool, error) {
	var typmod int32
	err := tx.QueryRow(ctx, p.columnDimensionSQL(), p.table).Scan(&typmod)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to inspect index table: %w", err)
	}
	return int(typmod), true, nil
}

func (p *PgvectorIndex) Save(ctx context.Context, location string) error {
	return WriteManifest(location, Manifest{
		Backend:    BackendPgvector,
		Model:      p.opts.Model,
		Dimensions: p.opts.Dimensions,
		Count:      p.count,
		CreatedAt:  time.Now().UTC(),
	})
}

func (p *PgvectorIndex) Load(ctx context.Context, location string) error {
	_, err := ReadManifest(location, BackendPgvector, p.opts.Dimensions)
	return err
}

func (p *PgvectorIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	vec, err := embedQuery(ctx, p.opts, query)
	if err != nil {
		return nil, err
	}
	// LIMIT NULL returns every row
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := p.conn.Query(ctx, p.searchSQL(), pgvector.NewVector(vec), lim)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.Text, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return hits, nil
}

func (p *PgvectorIndex) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
