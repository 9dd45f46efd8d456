// ABOUTME: SQLite-backed note store.
// ABOUTME: Provides CRUD plus a listing query pushed down into SQL.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/query"
)

const noteColumns = `id, title, content, created_at, updated_at`

// Store persists notes in a single SQLite table.
type Store struct {
	db *sql.DB
}

// DB exposes the underlying handle for tests and maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, note *models.Note) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		note.Title, note.Content, note.CreatedAt.UnixMicro(), nullMicros(note.UpdatedAt),
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	note.ID = id
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Store) Update(ctx context.Context, note *models.Note) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		note.Title, note.Content, nullMicros(note.UpdatedAt), note.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNoteNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNoteNotFound
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, fn func(*models.Note) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

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

// List counts and pages inside one transaction so total and items agree.
func (s *Store) List(ctx context.Context, q query.Query) (query.Page, error) {
	where, args := filterClause(q.Term())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return query.Page{}, err
	}
	defer func() { _ = tx.Rollback() }()

	page := query.Page{Page: q.Page, PageSize: q.PageSize, Items: []*models.Note{}}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`+where, args...).Scan(&page.Total); err != nil {
		return query.Page{}, fmt.Errorf("count notes: %w", err)
	}

	stmt := `SELECT ` + noteColumns + ` FROM notes` + where + orderClause(q) + ` LIMIT ? OFFSET ?`
	rows, err := tx.QueryContext(ctx, stmt, append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return query.Page{}, fmt.Errorf("query notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	return page, nil
}

func filterClause(term string) (string, []any) {
	if term == "" {
		return "", nil
	}
	return ` WHERE instr(` + lowerFunc + `(title), ?) > 0 OR instr(` + lowerFunc + `(content), ?) > 0`,
		[]any{term, term}
}

// orderClause only ever emits fixed column expressions; the enum values
// cannot carry caller text into SQL.
func orderClause(q query.Query) string {
	col := "COALESCE(updated_at, created_at)"
	switch q.Sort {
	case query.SortID:
		col = "id"
	case query.SortTitle:
		col = "title"
	case query.SortCreated:
		col = "created_at"
	}
	dir := " DESC"
	if q.Dir == query.Asc {
		dir = " ASC"
	}
	if q.Sort == query.SortID {
		return ` ORDER BY id` + dir
	}
	return ` ORDER BY ` + col + dir + `, id` + dir
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	note := &models.Note{}
	var created int64
	var updated sql.NullInt64
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &created, &updated); err != nil {
		return nil, err
	}
	note.CreatedAt = time.UnixMicro(created).UTC()
	if updated.Valid {
		t := time.UnixMicro(updated.Int64).UTC()
		note.UpdatedAt = &t
	}
	return note, nil
}

func nullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}
