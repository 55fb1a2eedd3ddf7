package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/snipd/snipd/internal/snippet"
)

const snippetSchema = `
CREATE TABLE IF NOT EXISTS snippets (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE,
	content          TEXT NOT NULL DEFAULT '',
	generated        INTEGER NOT NULL DEFAULT 0,
	prompt           TEXT NOT NULL DEFAULT '',
	model            TEXT NOT NULL DEFAULT '',
	generation_error TEXT NOT NULL DEFAULT '',
	dirty            INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snippets_dirty ON snippets(dirty);
`

// SQLite is the durable snippet store backed by an embedded SQLite file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// migrations. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes access through a single connection;
	// more than one starves writers under concurrent reads.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(snippetSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate snippet schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// DB exposes the underlying handle so sibling stores (generation history)
// can share the same database file.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const snippetColumns = "id, name, content, generated, prompt, model, generation_error, dirty, created_at, updated_at"

func (s *SQLite) LoadAll(ctx context.Context) ([]*snippet.Snippet, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+snippetColumns+" FROM snippets ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to load snippets: %w", err)
	}
	defer rows.Close()

	var snips []*snippet.Snippet
	for rows.Next() {
		snip, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		snips = append(snips, snip)
	}
	return snips, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, name string) (*snippet.Snippet, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+snippetColumns+" FROM snippets WHERE name = ?", name)
	snip, err := scanSnippet(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return snip, err
}

func (s *SQLite) Save(ctx context.Context, snip *snippet.Snippet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snippets (`+snippetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			content = excluded.content,
			generated = excluded.generated,
			prompt = excluded.prompt,
			model = excluded.model,
			generation_error = excluded.generation_error,
			dirty = excluded.dirty,
			updated_at = excluded.updated_at`,
		snip.ID, snip.Name, snip.Content, boolToInt(snip.Generated),
		snip.Prompt, snip.Model, snip.GenerationError, boolToInt(snip.Dirty),
		snip.CreatedAt.UTC().Format(time.RFC3339Nano),
		snip.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save snippet %q: %w", snip.Name, err)
	}
	return nil
}

func (s *SQLite) SaveMany(ctx context.Context, snips []*snippet.Snippet) error {
	for _, snip := range snips {
		if err := s.Save(ctx, snip); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snippets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete snippet %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner) (*snippet.Snippet, error) {
	var (
		snip                 snippet.Snippet
		generated, dirty     int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&snip.ID, &snip.Name, &snip.Content, &generated, &snip.Prompt,
		&snip.Model, &snip.GenerationError, &dirty, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	snip.Generated = generated != 0
	snip.Dirty = dirty != 0
	if snip.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at for %q: %w", snip.Name, err)
	}
	if snip.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at for %q: %w", snip.Name, err)
	}
	return &snip, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Verify interface
var _ Store = (*SQLite)(nil)
