package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLStore keeps resumes in a single table. The same queries serve SQLite
// and PostgreSQL; only placeholders and the DDL differ.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS resumes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	source TEXT,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_resumes_created ON resumes(created_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS resumes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	source TEXT,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_resumes_created ON resumes(created_at);
`

// NewSQLite opens (and creates) a SQLite database at path. ":memory:" gives
// a private in-memory database.
func NewSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: an in-memory database is per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, false)
}

// NewPostgres connects with a lib/pq DSN or URL.
func NewPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(ctx, db, true)
}

func newSQLStore(ctx context.Context, db *sql.DB, postgres bool) (*SQLStore, error) {
	s := &SQLStore{db: db, postgres: postgres}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	ddl := sqliteSchema
	if s.postgres {
		ddl = postgresSchema
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate resumes table: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) SaveResume(ctx context.Context, r *Resume) error {
	if err := prepare(r, time.Now()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO resumes (id, name, source, content, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, source = excluded.source, content = excluded.content`),
		r.ID, r.Name, nullString(r.Source), r.Text, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save resume %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLStore) ListResumes(ctx context.Context) ([]Resume, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source, content, created_at FROM resumes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []Resume{}
	for rows.Next() {
		var r Resume
		var source sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &source, &r.Text, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		if source.Valid {
			r.Source = source.String
		}
		resumes = append(resumes, r)
	}
	return resumes, rows.Err()
}

func (s *SQLStore) ListResumeTexts(ctx context.Context) ([]string, error) {
	resumes, err := s.ListResumes(ctx)
	if err != nil {
		return nil, err
	}
	return texts(resumes), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
