package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"cv-backend/internal/shared/storage/db"
)

// SQLRepo implements DocumentsRepo on Postgres or SQLite.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// NewSQLRepo constructs a SQLRepo for the given dialect.
func NewSQLRepo(database *sql.DB, dialect db.Dialect) *SQLRepo {
	return &SQLRepo{DB: database, Dialect: dialect}
}

var positionalParam = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $n placeholders to ?n for sqlite.
func (r *SQLRepo) rebind(query string) string {
	if r.Dialect != db.DialectSQLite {
		return query
	}
	return positionalParam.ReplaceAllString(query, "?$1")
}

// Create inserts a new CV record.
func (r *SQLRepo) Create(ctx context.Context, cv CV) error {
	const query = `
INSERT INTO cvs (
    id,
    name,
    file_id,
    file_name,
    storage_key,
    content_type,
    size_bytes,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(
		ctx,
		r.rebind(query),
		cv.ID,
		cv.Name,
		cv.FileID,
		cv.FileName,
		cv.StorageKey,
		cv.ContentType,
		cv.SizeBytes,
		cv.CreatedAt,
	)
	return err
}

// List returns all CVs oldest-first with their notes.
func (r *SQLRepo) List(ctx context.Context) ([]CV, error) {
	const query = `
SELECT id, name, file_id, file_name, storage_key, content_type, size_bytes, created_at
FROM cvs
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CV
	index := make(map[string]int)
	for rows.Next() {
		cv, err := scanCV(rows)
		if err != nil {
			return nil, err
		}
		index[cv.ID] = len(out)
		out = append(out, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	const notesQuery = `
SELECT cv_id, body
FROM cv_notes
ORDER BY cv_id, id`

	noteRows, err := r.DB.QueryContext(ctx, notesQuery)
	if err != nil {
		return nil, err
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var cvID, body string
		if err := noteRows.Scan(&cvID, &body); err != nil {
			return nil, err
		}
		if i, ok := index[cvID]; ok {
			out[i].Notes = append(out[i].Notes, body)
		}
	}
	return out, noteRows.Err()
}

// GetByID fetches a CV by ID.
func (r *SQLRepo) GetByID(ctx context.Context, id string) (CV, error) {
	const query = `
SELECT id, name, file_id, file_name, storage_key, content_type, size_bytes, created_at
FROM cvs
WHERE id = $1
LIMIT 1`
	return r.getOne(ctx, query, id)
}

// GetByFileID fetches the CV owning a stored file.
func (r *SQLRepo) GetByFileID(ctx context.Context, fileID string) (CV, error) {
	const query = `
SELECT id, name, file_id, file_name, storage_key, content_type, size_bytes, created_at
FROM cvs
WHERE file_id = $1
LIMIT 1`
	return r.getOne(ctx, query, fileID)
}

func (r *SQLRepo) getOne(ctx context.Context, query, arg string) (CV, error) {
	cv, err := scanCV(r.DB.QueryRowContext(ctx, r.rebind(query), arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CV{}, ErrNotFound
		}
		return CV{}, err
	}
	notes, err := r.notesFor(ctx, cv.ID)
	if err != nil {
		return CV{}, err
	}
	cv.Notes = notes
	return cv, nil
}

func (r *SQLRepo) notesFor(ctx context.Context, id string) ([]string, error) {
	const query = `
SELECT body
FROM cv_notes
WHERE cv_id = $1
ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, r.rebind(query), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		notes = append(notes, body)
	}
	return notes, rows.Err()
}

// Delete removes a CV record and its notes.
func (r *SQLRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM cv_notes WHERE cv_id = $1`), id); err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	res, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM cvs WHERE id = $1`), id)
	if err != nil {
		return fmt.Errorf("delete cv: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// AddNote appends a review note to an existing CV.
func (r *SQLRepo) AddNote(ctx context.Context, id, note string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, r.rebind(`SELECT 1 FROM cvs WHERE id = $1`), id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	const insert = `
INSERT INTO cv_notes (cv_id, body, created_at)
VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, r.rebind(insert), id, note, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCV(row rowScanner) (CV, error) {
	var cv CV
	err := row.Scan(
		&cv.ID,
		&cv.Name,
		&cv.FileID,
		&cv.FileName,
		&cv.StorageKey,
		&cv.ContentType,
		&cv.SizeBytes,
		&cv.CreatedAt,
	)
	return cv, err
}

var _ DocumentsRepo = (*SQLRepo)(nil)
