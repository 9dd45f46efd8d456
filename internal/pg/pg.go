// Package pg stores notes in PostgreSQL through a pgx connection pool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Identity columns draw from a sequence, which never hands out a value twice.
// Titles order with the C collation so Postgres agrees with byte-wise
// comparison in the in-memory engine.
const schema = `
CREATE TABLE IF NOT EXISTS notes (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    title TEXT COLLATE "C" NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS notes_title_idx ON notes (title, id);
CREATE INDEX IF NOT EXISTS notes_created_idx ON notes (created_at, id);
CREATE INDEX IF NOT EXISTS notes_updated_idx ON notes ((COALESCE(updated_at, created_at)), id);
`

const noteColumns = `id, title, content, created_at, updated_at`

// Store is a note store backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open parses dsn, connects, and applies the schema.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	// The listing queries are a small fixed set; cache their plans.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Insert(ctx context.Context, note *models.Note) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO notes (title, content, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		note.Title, note.Content, note.CreatedAt, note.UpdatedAt,
	).Scan(&note.ID)
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Note, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	note, err := scanNote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNoteNotFound
	}
	return note, err
}

func (s *Store) Update(ctx context.Context, note *models.Note) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notes SET title = $1, content = $2, updated_at = $3 WHERE id = $4`,
		note.Title, note.Content, note.UpdatedAt, note.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNoteNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNoteNotFound
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, fn func(*models.Note) error) error {
	rows, err := s.pool.Query(ctx, `SELECT `+noteColumns+` FROM notes`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return err
		}
		if err := fn(note); err != nil {
			return err
		}
	}
	return rows.Err()
}

// List runs the count and the page in one repeatable-read snapshot.
func (s *Store) List(ctx context.Context, q query.Query) (query.Page, error) {
	where, args := filterClause(q.Term())

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return query.Page{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	page := query.Page{Page: q.Page, PageSize: q.PageSize, Items: []*models.Note{}}
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM notes`+where, args...).Scan(&page.Total); err != nil {
		return query.Page{}, fmt.Errorf("count notes: %w", err)
	}

	n := len(args)
	stmt := fmt.Sprintf(`SELECT %s FROM notes%s%s LIMIT $%d OFFSET $%d`, noteColumns, where, orderClause(q), n+1, n+2)
	rows, err := tx.Query(ctx, stmt, append(args, q.PageSize, int64(q.Offset()))...)
	if err != nil {
		return query.Page{}, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return query.Page{}, err
		}
		page.Items = append(page.Items, note)
	}
	if err := rows.Err(); err != nil {
		return query.Page{}, err
	}
	return page, tx.Commit(ctx)
}

func filterClause(term string) (string, []any) {
	if term == "" {
		return "", nil
	}
	return ` WHERE strpos(lower(title), $1) > 0 OR strpos(lower(content), $1) > 0`, []any{term}
}

func orderClause(q query.Query) string {
	dir := " DESC"
	if q.Dir == query.Asc {
		dir = " ASC"
	}
	switch q.Sort {
	case query.SortID:
		return ` ORDER BY id` + dir
	case query.SortTitle:
		return ` ORDER BY title` + dir + `, id` + dir
	case query.SortCreated:
		return ` ORDER BY created_at` + dir + `, id` + dir
	default:
		return ` ORDER BY COALESCE(updated_at, created_at)` + dir + `, id` + dir
	}
}

func scanNote(row pgx.Row) (*models.Note, error) {
	note := &models.Note{}
	var updated *time.Time
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt, &updated); err != nil {
		return nil, err
	}
	note.CreatedAt = note.CreatedAt.UTC()
	if updated != nil {
		u := updated.UTC()
		note.UpdatedAt = &u
	}
	return note, nil
}
