// Package store persists the snippet collection. The SQLite implementation
// is the durable store used by the server; the memory implementation backs
// unit tests.
package store

import (
	"context"
	"errors"

	"github.com/snipd/snipd/internal/snippet"
)

// ErrNotFound is returned when a snippet does not exist in the store.
var ErrNotFound = errors.New("snippet not found")

// Store abstracts snippet persistence. Implementations are read-your-writes
// consistent; no multi-item transactional guarantee is required beyond
// sequential single-item writes.
type Store interface {
	// LoadAll returns the full snippet collection.
	LoadAll(ctx context.Context) ([]*snippet.Snippet, error)

	// Get returns a snippet by name, or ErrNotFound.
	Get(ctx context.Context, name string) (*snippet.Snippet, error)

	// Save persists one snippet, inserting or updating by ID.
	Save(ctx context.Context, s *snippet.Snippet) error

	// SaveMany persists a batch sequentially, stopping at the first error.
	SaveMany(ctx context.Context, snips []*snippet.Snippet) error

	// Delete removes a snippet by name. Deleting a missing snippet returns
	// ErrNotFound.
	Delete(ctx context.Context, name string) error
}
