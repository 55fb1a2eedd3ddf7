package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Store abstracts call persistence.
type Store interface {
	// SaveCall persists one recorded call.
	SaveCall(ctx context.Context, call *Call) error

	// ListCalls returns the most recent calls, newest first. A non-empty
	// snippetName filters to calls for that snippet. limit <= 0 uses 100.
	ListCalls(ctx context.Context, snippetName string, limit int) ([]*Call, error)
}

const callSchema = `
CREATE TABLE IF NOT EXISTS calls (
	id            TEXT PRIMARY KEY,
	timestamp     TEXT NOT NULL,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	snippet_name  TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	prompt        TEXT NOT NULL DEFAULT '',
	response      TEXT NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	success       INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_calls_snippet ON calls(snippet_name, timestamp);
`

// SQLiteStore persists calls in the same SQLite database as the snippet
// store; it is handed the shared *sql.DB rather than opening its own file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore migrates the call schema and returns the store.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(callSchema); err != nil {
		return nil, fmt.Errorf("failed to migrate call schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveCall(ctx context.Context, call *Call) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calls (id, timestamp, latency_ms, snippet_name, provider, model,
			prompt, response, input_tokens, output_tokens, success, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.ID, call.Timestamp.UTC().Format(time.RFC3339Nano), call.LatencyMs,
		call.SnippetName, call.Provider, call.Model, call.Prompt, call.Response,
		call.InputTokens, call.OutputTokens, boolToInt(call.Success), call.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save call: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCalls(ctx context.Context, snippetName string, limit int) ([]*Call, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, timestamp, latency_ms, snippet_name, provider, model,
		prompt, response, input_tokens, output_tokens, success, error FROM calls`
	args := []any{}
	if snippetName != "" {
		query += " WHERE snippet_name = ?"
		args = append(args, snippetName)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	defer rows.Close()

	var calls []*Call
	for rows.Next() {
		var (
			call    Call
			ts      string
			success int
		)
		if err := rows.Scan(&call.ID, &ts, &call.LatencyMs, &call.SnippetName,
			&call.Provider, &call.Model, &call.Prompt, &call.Response,
			&call.InputTokens, &call.OutputTokens, &success, &call.Error); err != nil {
			return nil, err
		}
		call.Success = success != 0
		if call.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse call timestamp: %w", err)
		}
		calls = append(calls, &call)
	}
	return calls, rows.Err()
}

// MemoryStore implements Store in memory for unit tests.
type MemoryStore struct {
	mu    sync.Mutex
	calls []*Call

	// SaveErr is returned by SaveCall when non-nil.
	SaveErr error
}

// NewMemoryStore creates an empty in-memory call store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveCall(_ context.Context, call *Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.calls = append(m.calls, call)
	return nil
}

func (m *MemoryStore) ListCalls(_ context.Context, snippetName string, limit int) ([]*Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}

	var out []*Call
	for i := len(m.calls) - 1; i >= 0 && len(out) < limit; i-- {
		if snippetName != "" && m.calls[i].SnippetName != snippetName {
			continue
		}
		out = append(out, m.calls[i])
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Verify interfaces
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
