package store

import (
	"context"
	"sort"
	"sync"

	"github.com/snipd/snipd/internal/snippet"
)

// Memory implements Store with in-memory storage for unit tests.
// Error injection is supported for testing failure paths.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]*snippet.Snippet
	saves int

	// --- Error injection fields for testing ---

	// LoadErr is returned by LoadAll when non-nil.
	LoadErr error

	// SaveErr is returned by Save and SaveMany when non-nil.
	SaveErr error

	// DeleteErr is returned by Delete when non-nil.
	DeleteErr error

	// ErrAfterNSaves causes SaveErr-free saves to fail after N successful
	// writes, for partial-failure scenarios. Zero disables it.
	ErrAfterNSaves int
	AfterNErr      error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*snippet.Snippet)}
}

// Seed inserts snippets without counting as writes.
func (m *Memory) Seed(snips ...*snippet.Snippet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range snips {
		m.byID[s.ID] = s.Clone()
	}
}

func (m *Memory) LoadAll(_ context.Context) ([]*snippet.Snippet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}

	snips := make([]*snippet.Snippet, 0, len(m.byID))
	for _, s := range m.byID {
		snips = append(snips, s.Clone())
	}
	sort.Slice(snips, func(i, j int) bool { return snips[i].Name < snips[j].Name })
	return snips, nil
}

func (m *Memory) Get(_ context.Context, name string) (*snippet.Snippet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.byID {
		if s.Name == name {
			return s.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Save(_ context.Context, s *snippet.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(s)
}

func (m *Memory) SaveMany(_ context.Context, snips []*snippet.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range snips {
		if err := m.saveLocked(s); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) saveLocked(s *snippet.Snippet) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.ErrAfterNSaves > 0 && m.saves >= m.ErrAfterNSaves {
		return m.AfterNErr
	}
	m.saves++
	m.byID[s.ID] = s.Clone()
	return nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for id, s := range m.byID {
		if s.Name == name {
			delete(m.byID, id)
			return nil
		}
	}
	return ErrNotFound
}

// SaveCount returns the number of successful writes, for test assertions.
func (m *Memory) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Verify interface
var _ Store = (*Memory)(nil)
