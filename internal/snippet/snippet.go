// Package snippet defines the snippet entity and the pure dependency
// algorithms over a snippet collection: reference extraction, recursive
// resolution, reverse-graph construction, and topological ordering.
package snippet

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// namePattern restricts snippet names to the characters a reference token
// can carry.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Snippet is a named, reusable unit of text. Non-generated snippets are
// authored directly; generated snippets carry a prompt that is resolved and
// sent to a completion provider, with the output stored in Content.
type Snippet struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`

	// Generated marks Content as derived from Prompt via a completion call.
	Generated bool   `json:"generated"`
	Prompt    string `json:"prompt,omitempty"`
	Model     string `json:"model,omitempty"`

	// GenerationError holds the last generation failure, cleared on the
	// next successful generation.
	GenerationError string `json:"generation_error,omitempty"`

	// Dirty marks the snippet stale: a dependency changed since the last
	// successful (re)generation.
	Dirty bool `json:"dirty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a snippet with a fresh ID and timestamps.
func New(name string) *Snippet {
	now := time.Now().UTC()
	return &Snippet{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateName checks that a name is usable as an @reference target.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("snippet name is required")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid snippet name %q: only [A-Za-z0-9_] allowed", name)
	}
	return nil
}

// Source returns the defining text of the snippet: the prompt for generated
// snippets, the authored content otherwise. Dependency edges are extracted
// from this text. Generated content is terminal once produced and is never
// rescanned for references.
func (s *Snippet) Source() string {
	if s.Generated {
		return s.Prompt
	}
	return s.Content
}

// Clone returns a copy of the snippet.
func (s *Snippet) Clone() *Snippet {
	c := *s
	return &c
}

// Touch refreshes the update timestamp.
func (s *Snippet) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// ByName indexes a collection by snippet name.
func ByName(snips []*Snippet) map[string]*Snippet {
	m := make(map[string]*Snippet, len(snips))
	for _, s := range snips {
		m[s.Name] = s
	}
	return m
}
