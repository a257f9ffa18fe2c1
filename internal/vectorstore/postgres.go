package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"pdfqa/models"
)

// PostgresStore keeps one pgvector table per owner.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Backend() string { return "postgres" }

func (s *PostgresStore) GetOrCreateCollection(ctx context.Context, name string) (Collection, error) {
	table := pq.QuoteIdentifier(name)
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			owner      TEXT NOT NULL,
			source     TEXT NOT NULL,
			page       INTEGER NOT NULL,
			body       TEXT NOT NULL,
			embedding  vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}
	return &postgresCollection{db: s.db, name: name, table: table}, nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}

type postgresCollection struct {
	db    *sql.DB
	name  string
	table string
}

func (c *postgresCollection) Name() string { return c.name }

func (c *postgresCollection) Add(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, owner, source, page, body, embedding) VALUES ($1, $2, $3, $4, $5, $6)`, c.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chunks {
		_, err := stmt.ExecContext(ctx, ch.ID, ch.Metadata.UUID, ch.Metadata.Source, ch.Metadata.Page,
			ch.Text, pgvector.NewVector(ch.Embedding))
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

func (c *postgresCollection) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]models.ScoredChunk, error) {
	var limit interface{}
	if topK > 0 {
		limit = topK
	}

	// an empty owner in the filter matches every row
	query := fmt.Sprintf(`
		SELECT id, owner, source, page, body, embedding, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE ($2 = '' OR owner = $2)
		ORDER BY embedding <=> $1
		LIMIT $3`, c.table)

	rows, err := c.db.QueryContext(ctx, query, pgvector.NewVector(vector), filter.UUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search query: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var (
			hit models.ScoredChunk
			vec pgvector.Vector
		)
		err := rows.Scan(&hit.ID, &hit.Metadata.UUID, &hit.Metadata.Source, &hit.Metadata.Page,
			&hit.Text, &vec, &hit.Score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		hit.Embedding = vec.Slice()
		results = append(results, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating through chunks: %w", err)
	}
	return results, nil
}

func (c *postgresCollection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, c.table)).Scan(&n)
	return n, err
}
