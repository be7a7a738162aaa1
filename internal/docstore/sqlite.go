package docstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions:
// 0 - documents table
// 1 - listing index on (user_id, collection, created_at, id)
const currentSchemaVersion = 1

// SQLiteBackend stores documents in a single SQLite table.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

var _ Backend = (*SQLiteBackend)(nil)

// OpenSQLite creates or opens the database at path. ":memory:" works for
// tests. Pragmas and migrations are applied on every open.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// One writer at a time; an in-memory database also lives on a single
	// connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteBackend{db: db, now: time.Now}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version < 1 {
		_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_documents_created
			ON documents(user_id, collection, created_at, id)`)
		if err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Insert implements Backend.
func (s *SQLiteBackend) Insert(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (user_id, collection, id, created_at, updated_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, collection, id)
		DO UPDATE SET created_at = excluded.created_at,
		              updated_at = excluded.updated_at,
		              body       = excluded.body`,
		rec.UserID, rec.Collection, rec.ID, rec.Created.UnixNano(), s.now().UnixNano(), rec.Body)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", rec.ID, err)
	}
	return nil
}

// Modify implements Backend.
func (s *SQLiteBackend) Modify(ctx context.Context, key Key, fn func([]byte) ([]byte, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var body []byte
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		key.UserID, key.Collection, key.ID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("modify document", key)
	}
	if err != nil {
		return fmt.Errorf("read document %s: %w", key.ID, err)
	}

	next, err := fn(body)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE user_id = ? AND collection = ? AND id = ?`,
		next, s.now().UnixNano(), key.UserID, key.Collection, key.ID)
	if err != nil {
		return fmt.Errorf("update document %s: %w", key.ID, err)
	}
	return tx.Commit()
}

// Delete implements Backend.
func (s *SQLiteBackend) Delete(ctx context.Context, key Key) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		key.UserID, key.Collection, key.ID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", key.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", key.ID, err)
	}
	if n == 0 {
		return notFound("delete document", key)
	}
	return nil
}

// List implements Backend.
func (s *SQLiteBackend) List(ctx context.Context, userID, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, body FROM documents
		WHERE user_id = ? AND collection = ?
		ORDER BY created_at, id`, userID, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			created int64
		)
		if err := rows.Scan(&rec.ID, &created, &rec.Body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		rec.UserID = userID
		rec.Collection = collection
		rec.Created = time.Unix(0, created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close implements Backend.
func (s *SQLiteBackend) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// schemaVersion reports the applied schema version.
func (s *SQLiteBackend) schemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}
