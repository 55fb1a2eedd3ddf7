package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/store"
)

// ErrNameTaken is returned when a create or rename collides with an
// existing snippet name.
var ErrNameTaken = errors.New("snippet name already in use")

// CreateRequest describes a snippet to add.
type CreateRequest struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	Generated bool   `json:"generated"`
	Prompt    string `json:"prompt,omitempty"`
	Model     string `json:"model,omitempty"`

	// GenerateNow performs the initial generation synchronously before the
	// first persist instead of leaving the snippet dirty for the next pass.
	GenerateNow bool `json:"generate_now,omitempty"`
}

// UpdateRequest describes a partial edit; nil fields are left unchanged.
type UpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	Content   *string `json:"content,omitempty"`
	Generated *bool   `json:"generated,omitempty"`
	Prompt    *string `json:"prompt,omitempty"`
	Model     *string `json:"model,omitempty"`
}

// ValidationResult reports what a draft's references would do if saved.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// CreateSnippet validates and persists a new snippet, then propagates
// dirtiness to anything that already referenced its name. A reference cycle
// in the draft blocks the save; missing references do not (they fail later
// at generation or resolution time).
func (e *Engine) CreateSnippet(ctx context.Context, req CreateRequest) (*snippet.Snippet, error) {
	if err := snippet.ValidateName(req.Name); err != nil {
		return nil, err
	}
	if req.Generated && req.Prompt == "" {
		return nil, fmt.Errorf("generated snippet %q requires a prompt", req.Name)
	}

	if _, err := e.store.Get(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, req.Name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	s := snippet.New(req.Name)
	s.Content = req.Content
	s.Generated = req.Generated
	s.Prompt = req.Prompt
	s.Model = req.Model
	s.Dirty = req.Generated

	byName, err := e.overlay(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := snippet.ValidateNoCycles(s.Source(), byName); err != nil {
		return nil, err
	}

	if req.Generated && req.GenerateNow {
		if prompt, rerr := snippet.Resolve(s.Prompt, byName); rerr != nil {
			s.GenerationError = rerr.Error()
		} else if msg := e.generate(ctx, s, prompt); msg != "" {
			s.GenerationError = msg
		} else {
			s.Dirty = false
		}
	}

	if err := e.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save snippet: %w", err)
	}

	// Snippets that referenced this name before it existed become
	// resolvable now and need a refresh.
	if err := e.MarkDependentsDirty(ctx, s.Name); err != nil {
		return nil, err
	}
	if s.Dirty {
		e.Trigger(ctx)
	}
	return s, nil
}

// UpdateSnippet applies a partial edit, propagates dirtiness to dependents,
// and triggers regeneration. A rename propagates from both the old and new
// names so stale references surface immediately.
func (e *Engine) UpdateSnippet(ctx context.Context, name string, req UpdateRequest) (*snippet.Snippet, error) {
	s, err := e.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	oldName := s.Name
	oldSource := s.Source()

	if req.Name != nil && *req.Name != s.Name {
		if err := snippet.ValidateName(*req.Name); err != nil {
			return nil, err
		}
		if _, err := e.store.Get(ctx, *req.Name); err == nil {
			return nil, fmt.Errorf("%w: %q", ErrNameTaken, *req.Name)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		s.Name = *req.Name
	}
	if req.Generated != nil {
		s.Generated = *req.Generated
	}
	if req.Content != nil {
		s.Content = *req.Content
	}
	if req.Prompt != nil {
		s.Prompt = *req.Prompt
	}
	if req.Model != nil {
		s.Model = *req.Model
	}
	if s.Generated && s.Prompt == "" {
		return nil, fmt.Errorf("generated snippet %q requires a prompt", s.Name)
	}

	byName, err := e.overlay(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := snippet.ValidateNoCycles(s.Source(), byName); err != nil {
		return nil, err
	}

	sourceChanged := s.Source() != oldSource
	if s.Generated && sourceChanged {
		s.Dirty = true
	}
	if s.Generated && req.Model != nil {
		s.Dirty = true
	}
	s.Touch()

	if err := e.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save snippet: %w", err)
	}

	changed := []string{s.Name}
	if s.Name != oldName {
		changed = append(changed, oldName)
	}
	if sourceChanged || s.Name != oldName {
		if err := e.MarkDependentsDirty(ctx, changed...); err != nil {
			return nil, err
		}
	}
	if s.Dirty {
		e.Trigger(ctx)
	}
	return s, nil
}

// DeleteSnippet removes a snippet and marks everything that referenced it
// dirty; those dependents will fail resolution until the user fixes them.
func (e *Engine) DeleteSnippet(ctx context.Context, name string) error {
	if err := e.store.Delete(ctx, name); err != nil {
		return err
	}
	return e.MarkDependentsDirty(ctx, name)
}

// ValidateDraft reports cycles and missing references the draft would have
// if saved, without persisting anything. The draft is overlaid onto the
// stored collection so edits are judged against what save would produce.
func (e *Engine) ValidateDraft(ctx context.Context, draft *snippet.Snippet) (*ValidationResult, error) {
	byName, err := e.overlay(ctx, draft)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Valid: true}
	if err := snippet.ValidateNoCycles(draft.Source(), byName); err != nil {
		result.Valid = false
		result.Error = err.Error()
	}
	result.Missing = snippet.FindMissing(draft.Source(), byName)
	if len(result.Missing) > 0 {
		result.Valid = false
	}
	return result, nil
}

// ResolveText substitutes every reference in text against the stored
// collection, as message submission does before sending a prompt.
func (e *Engine) ResolveText(ctx context.Context, text string) (string, error) {
	snips, err := e.store.LoadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load snippets: %w", err)
	}
	return snippet.Resolve(text, snippet.ByName(snips))
}

// overlay loads the collection indexed by name with the draft substituted
// in, so validation sees the post-save collection.
func (e *Engine) overlay(ctx context.Context, draft *snippet.Snippet) (map[string]*snippet.Snippet, error) {
	snips, err := e.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snippets: %w", err)
	}
	byName := snippet.ByName(snips)
	// A rename may leave the old entry keyed by ID elsewhere; match by ID
	// so the draft replaces its stored version, not a namesake.
	for name, existing := range byName {
		if existing.ID == draft.ID {
			delete(byName, name)
		}
	}
	byName[draft.Name] = draft
	return byName, nil
}
