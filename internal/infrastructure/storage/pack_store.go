package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"EcoAware/internal/knowledge"
	"EcoAware/internal/ports"
)

const packsTable = "knowledge_packs"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresPackStore reads and publishes versioned knowledge-pack documents.
//
//	CREATE TABLE knowledge_packs (
//	    name       TEXT        NOT NULL,
//	    version    INTEGER     NOT NULL,
//	    body       BYTEA       NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (name, version)
//	);
type PostgresPackStore struct {
	db *sql.DB
}

var _ ports.PackStore = (*PostgresPackStore)(nil)

// NewPostgresPackStore wires a sql.DB implementation.
func NewPostgresPackStore(db *sql.DB) *PostgresPackStore {
	return &PostgresPackStore{db: db}
}

// Load returns the newest version of every pack, validated.
func (s *PostgresPackStore) Load(ctx context.Context) (*knowledge.Packs, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pack store has no database")
	}

	query, args, err := latestPacksQuery()
	if err != nil {
		return nil, fmt.Errorf("build packs query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packs: %w", err)
	}

	docs := make(map[string][]byte, len(knowledge.PackNames))
	for rows.Next() {
		var (
			name string
			body []byte
		)
		if err := rows.Scan(&name, &body); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		docs[name] = body
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return knowledge.FromDocuments(docs)
}

// Publish stores body as the given version of a pack, replacing an existing
// document with the same version. The body must decode as that pack.
func (s *PostgresPackStore) Publish(ctx context.Context, name string, version int, body []byte) error {
	if s.db == nil {
		return fmt.Errorf("pack store has no database")
	}

	var probe knowledge.Packs
	if err := knowledge.Decode(name, body, &probe); err != nil {
		return fmt.Errorf("publish pack %s: %w", name, err)
	}

	query, args, err := publishPackQuery(name, version, body)
	if err != nil {
		return fmt.Errorf("build publish query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert pack %s: %w", name, err)
	}

	return nil
}

func latestPacksQuery() (string, []interface{}, error) {
	return psql.Select("name", "body").
		Options("DISTINCT ON (name)").
		From(packsTable).
		Where("name = ANY(?)", pq.StringArray(knowledge.PackNames)).
		OrderBy("name", "version DESC").
		ToSql()
}

func publishPackQuery(name string, version int, body []byte) (string, []interface{}, error) {
	return psql.Insert(packsTable).
		Columns("name", "version", "body").
		Values(name, version, body).
		Suffix("ON CONFLICT (name, version) DO UPDATE SET body = EXCLUDED.body, created_at = NOW()").
		ToSql()
}
