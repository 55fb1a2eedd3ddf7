package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/snipd/snipd/internal/providers"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/store"
)

func TestCreateSnippet(t *testing.T) {
	st := store.NewMemory()
	e := newTestEngine(st, providers.NewMockClient())
	ctx := context.Background()

	s, err := e.CreateSnippet(ctx, CreateRequest{Name: "greeting", Content: "hello"})
	if err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}
	if s.ID == "" {
		t.Error("expected an assigned ID")
	}
	if s.Dirty {
		t.Error("expected a non-generated snippet to be created clean")
	}

	if _, err := e.CreateSnippet(ctx, CreateRequest{Name: "greeting", Content: "dup"}); !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken for duplicate, got %v", err)
	}
	if _, err := e.CreateSnippet(ctx, CreateRequest{Name: "bad name!", Content: "x"}); err == nil {
		t.Error("expected invalid name to be rejected")
	}
	if _, err := e.CreateSnippet(ctx, CreateRequest{Name: "gen", Generated: true}); err == nil {
		t.Error("expected generated snippet without a prompt to be rejected")
	}
}

func TestCreateRejectsCycle(t *testing.T) {
	st := store.NewMemory()
	st.Seed(static("a", "uses @b"))
	e := newTestEngine(st, providers.NewMockClient())

	_, err := e.CreateSnippet(context.Background(), CreateRequest{Name: "b", Content: "uses @a"})
	var cycleErr *snippet.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}

	// Self-reference is the smallest cycle.
	_, err = e.CreateSnippet(context.Background(), CreateRequest{Name: "selfy", Content: "me: @selfy"})
	if !errors.As(err, &cycleErr) {
		t.Errorf("expected CycleError for self-reference, got %v", err)
	}
}

func TestCreateGenerateNow(t *testing.T) {
	st := store.NewMemory()
	st.Seed(static("base", "v1"))

	mock := providers.NewMockClient()
	mock.ResponseText = "initial output"
	e := newTestEngine(st, mock)

	s, err := e.CreateSnippet(context.Background(), CreateRequest{
		Name:        "gen",
		Generated:   true,
		Prompt:      "use @base",
		GenerateNow: true,
	})
	if err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}
	if s.Content != "initial output" {
		t.Errorf("expected initial generation before persist, got %q", s.Content)
	}
	if s.Dirty {
		t.Error("expected snippet clean after synchronous generation")
	}
	if got := mock.Prompts(); len(got) != 1 || got[0] != "use v1" {
		t.Errorf("expected resolved prompt 'use v1', got %v", got)
	}
}

func TestCreateGenerateNowFailureIsPersisted(t *testing.T) {
	st := store.NewMemory()
	mock := providers.NewMockClient()
	mock.ShouldFail = true
	e := newTestEngine(st, mock)

	s, err := e.CreateSnippet(context.Background(), CreateRequest{
		Name:        "gen",
		Generated:   true,
		Prompt:      "anything",
		GenerateNow: true,
	})
	if err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}
	if s.GenerationError == "" {
		t.Error("expected the initial generation failure to be recorded")
	}

	stored := mustGet(t, st, "gen")
	if stored.GenerationError == "" {
		t.Error("expected the failure persisted with the snippet")
	}
}

func TestCreateSatisfiesMissingReference(t *testing.T) {
	st := store.NewMemory()
	st.Seed(generated("gen", "use @newbase"))

	mock := providers.NewMockClient()
	mock.ResponseText = "fresh"
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()

	if _, err := e.CreateSnippet(context.Background(), CreateRequest{Name: "newbase", Content: "now exists"}); err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}
	waitForPass(t, events)

	gen := mustGet(t, st, "gen")
	if gen.Content != "fresh" {
		t.Errorf("expected dependent regenerated once its reference exists, got %q", gen.Content)
	}
	if got := mock.Prompts(); len(got) != 1 || got[0] != "use now exists" {
		t.Errorf("unexpected prompts: %v", got)
	}
}

func TestUpdateRenamePropagatesFromBothNames(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("base", "v1"),
		generated("gen", "use @base"),
	)

	mock := providers.NewMockClient()
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()

	newName := "renamed"
	s, err := e.UpdateSnippet(context.Background(), "base", UpdateRequest{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateSnippet failed: %v", err)
	}
	if s.Name != "renamed" {
		t.Errorf("expected rename applied, got %q", s.Name)
	}
	waitForPass(t, events)

	// gen now points at a name that no longer exists.
	gen := mustGet(t, st, "gen")
	want := "Snippet '@base' not found."
	if gen.GenerationError != want {
		t.Errorf("expected %q, got %q", want, gen.GenerationError)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("expected no completion calls for an unresolvable prompt, got %d", mock.RequestCount())
	}
}

func TestUpdateRenameKeepsID(t *testing.T) {
	st := store.NewMemory()
	seed := static("old", "content")
	st.Seed(seed)
	e := newTestEngine(st, providers.NewMockClient())

	newName := "new"
	s, err := e.UpdateSnippet(context.Background(), "old", UpdateRequest{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateSnippet failed: %v", err)
	}
	if s.ID != seed.ID {
		t.Errorf("expected ID preserved across rename, got %q want %q", s.ID, seed.ID)
	}
	if _, err := st.Get(context.Background(), "old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected old name gone, got %v", err)
	}
}

func TestUpdatePromptMarksDirty(t *testing.T) {
	st := store.NewMemory()
	st.Seed(generated("gen", "old prompt"))

	mock := providers.NewMockClient()
	mock.ResponseText = "new output"
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()

	newPrompt := "new prompt"
	if _, err := e.UpdateSnippet(context.Background(), "gen", UpdateRequest{Prompt: &newPrompt}); err != nil {
		t.Fatalf("UpdateSnippet failed: %v", err)
	}
	waitForPass(t, events)

	gen := mustGet(t, st, "gen")
	if gen.Content != "new output" {
		t.Errorf("expected regeneration after prompt edit, got %q", gen.Content)
	}
}

func TestUpdateRejectsCycle(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("a", "plain"),
		static("b", "uses @a"),
	)
	e := newTestEngine(st, providers.NewMockClient())

	content := "closes the loop @b"
	_, err := e.UpdateSnippet(context.Background(), "a", UpdateRequest{Content: &content})
	var cycleErr *snippet.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}

	// The rejected edit must not have been persisted.
	a := mustGet(t, st, "a")
	if a.Content != "plain" {
		t.Errorf("expected original content untouched, got %q", a.Content)
	}
}

func TestUpdateMissingSnippet(t *testing.T) {
	st := store.NewMemory()
	e := newTestEngine(st, providers.NewMockClient())

	content := "x"
	if _, err := e.UpdateSnippet(context.Background(), "ghost", UpdateRequest{Content: &content}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePropagatesToDependents(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("base", "v1"),
		generated("gen", "use @base"),
	)
	e := newTestEngine(st, providers.NewMockClient())

	events, cancel := e.Bus().Subscribe()
	defer cancel()

	if err := e.DeleteSnippet(context.Background(), "base"); err != nil {
		t.Fatalf("DeleteSnippet failed: %v", err)
	}
	waitForPass(t, events)

	gen := mustGet(t, st, "gen")
	if gen.GenerationError != "Snippet '@base' not found." {
		t.Errorf("expected dependent to fail resolution after delete, got %q", gen.GenerationError)
	}
}

func TestValidateDraft(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("a", "plain"),
		static("b", "uses @a"),
	)
	e := newTestEngine(st, providers.NewMockClient())
	ctx := context.Background()

	draft := static("c", "uses @a and @ghost")
	result, err := e.ValidateDraft(ctx, draft)
	if err != nil {
		t.Fatalf("ValidateDraft failed: %v", err)
	}
	if result.Valid {
		t.Error("expected draft with a missing reference to be invalid")
	}
	if len(result.Missing) != 1 || result.Missing[0] != "ghost" {
		t.Errorf("expected missing [ghost], got %v", result.Missing)
	}

	cyclic := mustGet(t, st, "a")
	cyclic.Content = "loop @b"
	result, err = e.ValidateDraft(ctx, cyclic)
	if err != nil {
		t.Fatalf("ValidateDraft failed: %v", err)
	}
	if result.Valid || !strings.Contains(result.Error, "Reference cycle detected") {
		t.Errorf("expected cycle reported, got %+v", result)
	}

	clean := static("d", "uses @b")
	result, err = e.ValidateDraft(ctx, clean)
	if err != nil {
		t.Fatalf("ValidateDraft failed: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected a clean draft to validate, got %+v", result)
	}
}
