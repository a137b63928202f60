package index

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// tableNameRe guards the identifier interpolated into DDL. Values and the
// query embedding always go through bind parameters; only the table name
// cannot, because PostgreSQL does not parameterize identifiers.
var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PGQuerier implements Querier against a pgxpool connection.
type PGQuerier struct {
	pool  *pgxpool.Pool
	table string
	dim   int
}

// NewPGQuerier creates a PGQuerier for the given table and embedding
// dimension. The table name must be a plain lowercase identifier.
func NewPGQuerier(pool *pgxpool.Pool, table string, dim int) (*PGQuerier, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	return &PGQuerier{pool: pool, table: table, dim: dim}, nil
}

// CreateTable creates the document table if it does not exist.
func (q *PGQuerier) CreateTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id          text NOT NULL,
		content     text NOT NULL,
		embedding   vector(%d),
		source      text,
		filename    text,
		file_type   text,
		file_size   bigint,
		chunk_index int,
		created_at  timestamptz DEFAULT now()
	)`, q.table, q.dim)
	if _, err := q.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", q.table, err)
	}
	return nil
}

// Insert stores one chunk row.
func (q *PGQuerier) Insert(ctx context.Context, rec Record) error {
	sql := fmt.Sprintf(`INSERT INTO %s
		(id, content, embedding, source, filename, file_type, file_size, chunk_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, q.table)
	_, err := q.pool.Exec(ctx, sql,
		rec.ID, rec.Content, rec.Embedding,
		rec.Source, rec.Filename, rec.FileType, rec.FileSize, rec.ChunkIndex)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", q.table, err)
	}
	return nil
}

// SearchNearest returns the k rows closest to embedding by cosine distance.
func (q *PGQuerier) SearchNearest(ctx context.Context, embedding pgvector.Vector, k int) ([]SearchRow, error) {
	sql := fmt.Sprintf(`SELECT id, content, source, filename, file_type, file_size, chunk_index,
		embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, q.table)

	rows, err := q.pool.Query(ctx, sql, embedding, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Source, &r.Filename,
			&r.FileType, &r.FileSize, &r.ChunkIndex, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountRows counts all stored chunks.
func (q *PGQuerier) CountRows(ctx context.Context) (int64, error) {
	var count int64
	sql := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, q.table)
	if err := q.pool.QueryRow(ctx, sql).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DropTable drops the document table if it exists.
func (q *PGQuerier) DropTable(ctx context.Context) error {
	sql := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, q.table)
	if _, err := q.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop table %s: %w", q.table, err)
	}
	return nil
}
