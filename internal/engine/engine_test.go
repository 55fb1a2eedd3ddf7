package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/snipd/snipd/internal/providers"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func static(name, content string) *snippet.Snippet {
	s := snippet.New(name)
	s.Content = content
	return s
}

func generated(name, prompt string) *snippet.Snippet {
	s := snippet.New(name)
	s.Generated = true
	s.Prompt = prompt
	return s
}

func dirty(s *snippet.Snippet) *snippet.Snippet {
	s.Dirty = true
	return s
}

func newTestEngine(st store.Store, mock *providers.MockClient) *Engine {
	reg := providers.NewRegistry()
	reg.Register("mock", mock)
	return New(st, reg, nil, Config{Provider: "mock", Model: "test-model"}, discardLogger())
}

// waitForPass drains events until pass-completed and returns that event.
func waitForPass(t *testing.T, events <-chan Event) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventPassCompleted {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for pass to complete")
		}
	}
}

// runPass triggers the engine and blocks until the pass completes.
func runPass(t *testing.T, e *Engine) Event {
	t.Helper()
	events, cancel := e.Bus().Subscribe()
	defer cancel()
	if !e.Trigger(context.Background()) {
		t.Fatal("expected trigger to start a pass")
	}
	return waitForPass(t, events)
}

func mustGet(t *testing.T, st store.Store, name string) *snippet.Snippet {
	t.Helper()
	s, err := st.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", name, err)
	}
	return s
}

func TestRegenerateAfterDependencyChange(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("base", "v1"),
		generated("gen", "use @base"),
	)

	mock := providers.NewMockClient()
	mock.ResponseText = "result"
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()

	v2 := "v2"
	if _, err := e.UpdateSnippet(context.Background(), "base", UpdateRequest{Content: &v2}); err != nil {
		t.Fatalf("UpdateSnippet failed: %v", err)
	}
	waitForPass(t, events)

	gen := mustGet(t, st, "gen")
	if gen.Content != "result" {
		t.Errorf("expected regenerated content 'result', got %q", gen.Content)
	}
	if gen.Dirty {
		t.Error("expected gen to be clean after regeneration")
	}
	if gen.GenerationError != "" {
		t.Errorf("unexpected generation error: %q", gen.GenerationError)
	}

	prompts := mock.Prompts()
	if len(prompts) != 1 || prompts[0] != "use v2" {
		t.Errorf("expected one completion call with prompt 'use v2', got %v", prompts)
	}
}

func TestTriggerSingleFlight(t *testing.T) {
	st := store.NewMemory()
	st.Seed(dirty(generated("gen", "slow prompt")))

	mock := providers.NewMockClient()
	mock.Latency = 100 * time.Millisecond
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()

	if !e.Trigger(context.Background()) {
		t.Fatal("expected first trigger to start a pass")
	}
	if e.Trigger(context.Background()) {
		t.Error("expected trigger during a running pass to be a no-op")
	}
	waitForPass(t, events)

	if e.Running() {
		t.Error("expected engine to be idle after the pass")
	}
	if mock.RequestCount() != 1 {
		t.Errorf("expected exactly one completion call, got %d", mock.RequestCount())
	}
}

func TestUpstreamFailureCascade(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("base", "ok"),
		dirty(generated("a", "boom @base")),
		dirty(generated("b", "use @a")),
	)

	mock := providers.NewMockClient()
	mock.FailFor = []string{"boom"}
	e := newTestEngine(st, mock)

	runPass(t, e)

	a := mustGet(t, st, "a")
	if a.GenerationError == "" {
		t.Error("expected a to record its generation failure")
	}
	if a.Dirty {
		t.Error("expected a to be clean after the failed attempt")
	}

	b := mustGet(t, st, "b")
	want := "Upstream dependency @a failed to generate."
	if b.GenerationError != want {
		t.Errorf("expected upstream failure message %q, got %q", want, b.GenerationError)
	}
	if b.Dirty {
		t.Error("expected b to be clean after the cascade")
	}

	// b must never reach the completion service.
	if mock.RequestCount() != 1 {
		t.Errorf("expected exactly one completion call, got %d", mock.RequestCount())
	}
}

func TestFailureKeepsPreviousContent(t *testing.T) {
	st := store.NewMemory()
	gen := dirty(generated("gen", "boom"))
	gen.Content = "previous output"
	st.Seed(gen)

	mock := providers.NewMockClient()
	mock.ShouldFail = true
	e := newTestEngine(st, mock)

	runPass(t, e)

	after := mustGet(t, st, "gen")
	if after.Content != "previous output" {
		t.Errorf("expected previous content to survive, got %q", after.Content)
	}
	if after.GenerationError == "" {
		t.Error("expected a recorded generation error")
	}
	if after.Dirty {
		t.Error("expected dirty cleared so the snippet is not retried without a new trigger")
	}
}

func TestCyclicSnippetsStayDirty(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		dirty(generated("a", "use @b")),
		dirty(generated("b", "use @a")),
		dirty(generated("solo", "standalone")),
	)

	mock := providers.NewMockClient()
	mock.ResponseText = "out"
	e := newTestEngine(st, mock)

	completed := runPass(t, e)

	if len(completed.Cyclic) != 2 || completed.Cyclic[0] != "a" || completed.Cyclic[1] != "b" {
		t.Errorf("expected pass-completed to report cyclic [a b], got %v", completed.Cyclic)
	}
	for _, name := range []string{"a", "b"} {
		s := mustGet(t, st, name)
		if !s.Dirty {
			t.Errorf("expected cyclic snippet %q to stay dirty", name)
		}
	}

	solo := mustGet(t, st, "solo")
	if solo.Dirty || solo.Content != "out" {
		t.Errorf("expected solo regenerated despite the cycle, got dirty=%v content=%q", solo.Dirty, solo.Content)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("expected cyclic snippets to skip the completion service, got %d calls", mock.RequestCount())
	}

	if got := e.LastCyclic(); len(got) != 2 {
		t.Errorf("expected LastCyclic to report the cycle, got %v", got)
	}
}

func TestNonGeneratedDirtyClearedWithoutAPICall(t *testing.T) {
	st := store.NewMemory()
	st.Seed(dirty(static("plain", "text")))

	mock := providers.NewMockClient()
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()
	e.Trigger(context.Background())
	waitForPass(t, events)

	s := mustGet(t, st, "plain")
	if s.Dirty {
		t.Error("expected non-generated dirty snippet to be cleared")
	}
	if mock.RequestCount() != 0 {
		t.Errorf("expected no completion calls, got %d", mock.RequestCount())
	}
}

func TestMissingReferenceFailsWithoutCall(t *testing.T) {
	st := store.NewMemory()
	st.Seed(dirty(generated("gen", "use @missing")))

	mock := providers.NewMockClient()
	e := newTestEngine(st, mock)

	runPass(t, e)

	s := mustGet(t, st, "gen")
	want := "Snippet '@missing' not found."
	if s.GenerationError != want {
		t.Errorf("expected %q, got %q", want, s.GenerationError)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("expected no completion calls, got %d", mock.RequestCount())
	}
}

func TestPassCompletedEmittedOnLoadError(t *testing.T) {
	st := store.NewMemory()
	st.LoadErr = io.ErrUnexpectedEOF

	e := newTestEngine(st, providers.NewMockClient())
	runPass(t, e)

	if e.Running() {
		t.Error("expected running flag cleared after an aborted pass")
	}
}

func TestItemEventOrdering(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("base", "x"),
		dirty(generated("first", "one @base")),
		dirty(generated("second", "two @first")),
	)

	mock := providers.NewMockClient()
	mock.ResponseText = "out"
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()
	e.Trigger(context.Background())

	var seen []Event
	deadline := time.After(5 * time.Second)
loop:
	for {
		select {
		case ev := <-events:
			seen = append(seen, ev)
			if ev.Type == EventPassCompleted {
				break loop
			}
		case <-deadline:
			t.Fatal("timed out collecting events")
		}
	}

	if seen[0].Type != EventPassStarted {
		t.Errorf("expected pass-started first, got %s", seen[0].Type)
	}
	var items []string
	for _, ev := range seen {
		if ev.Type == EventItemUpdate {
			items = append(items, ev.Name)
			if ev.Status != StatusSuccess {
				t.Errorf("unexpected failure for %s: %s", ev.Name, ev.Error)
			}
		}
	}
	if len(items) != 2 || items[0] != "first" || items[1] != "second" {
		t.Errorf("expected item events in dependency order [first second], got %v", items)
	}
}

func TestResolveTextMissing(t *testing.T) {
	st := store.NewMemory()
	st.Seed(static("base", "v1"))

	mock := providers.NewMockClient()
	e := newTestEngine(st, mock)

	_, err := e.ResolveText(context.Background(), "hello @missing")
	if err == nil {
		t.Fatal("expected resolution to fail")
	}
	if err.Error() != "Snippet '@missing' not found." {
		t.Errorf("unexpected error message: %q", err.Error())
	}
	if mock.RequestCount() != 0 {
		t.Errorf("expected no completion calls, got %d", mock.RequestCount())
	}
}

func TestResolveTextRecursive(t *testing.T) {
	st := store.NewMemory()
	st.Seed(
		static("inner", "world"),
		static("outer", "hello @inner"),
	)

	e := newTestEngine(st, providers.NewMockClient())

	got, err := e.ResolveText(context.Background(), "say: @outer!")
	if err != nil {
		t.Fatalf("ResolveText failed: %v", err)
	}
	if got != "say: hello world!" {
		t.Errorf("unexpected resolution: %q", got)
	}
}

// waitUntilRegenerating polls until the engine reports the named snippet as
// mid-regeneration.
func waitUntilRegenerating(t *testing.T, e *Engine, name string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !e.IsRegenerating(name) {
		if time.Now().After(deadline) {
			t.Fatalf("engine never started regenerating %q", name)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMidPassEditSurvivesRegeneration(t *testing.T) {
	st := store.NewMemory()
	st.Seed(dirty(generated("gen", "old prompt")))

	mock := providers.NewMockClient()
	mock.Latency = 200 * time.Millisecond
	mock.ResponseText = "generated"
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()
	if !e.Trigger(context.Background()) {
		t.Fatal("expected trigger to start a pass")
	}
	waitUntilRegenerating(t, e, "gen")

	// Edit the prompt while the engine is inside the completion call.
	newPrompt := "new prompt"
	if _, err := e.UpdateSnippet(context.Background(), "gen", UpdateRequest{Prompt: &newPrompt}); err != nil {
		t.Fatalf("UpdateSnippet failed: %v", err)
	}
	waitForPass(t, events)

	s := mustGet(t, st, "gen")
	if s.Prompt != "new prompt" {
		t.Errorf("expected edited prompt to survive the pass, got %q", s.Prompt)
	}
	if !s.Dirty {
		t.Error("expected edited snippet to stay dirty for the next pass")
	}

	// The next pass regenerates from the edited prompt. The completed event
	// fires just before the single-flight guard resets, so wait it out.
	idle := time.Now().Add(5 * time.Second)
	for e.Running() {
		if time.Now().After(idle) {
			t.Fatal("engine never went idle")
		}
		time.Sleep(time.Millisecond)
	}
	runPass(t, e)
	s = mustGet(t, st, "gen")
	if s.Dirty {
		t.Error("expected snippet to settle after the follow-up pass")
	}
	prompts := mock.Prompts()
	if len(prompts) != 2 || prompts[1] != "new prompt" {
		t.Errorf("expected second completion call with the edited prompt, got %v", prompts)
	}
}

func TestMidPassDeleteNotResurrected(t *testing.T) {
	st := store.NewMemory()
	st.Seed(dirty(generated("gen", "some prompt")))

	mock := providers.NewMockClient()
	mock.Latency = 200 * time.Millisecond
	e := newTestEngine(st, mock)

	events, cancel := e.Bus().Subscribe()
	defer cancel()
	if !e.Trigger(context.Background()) {
		t.Fatal("expected trigger to start a pass")
	}
	waitUntilRegenerating(t, e, "gen")

	if err := e.DeleteSnippet(context.Background(), "gen"); err != nil {
		t.Fatalf("DeleteSnippet failed: %v", err)
	}
	waitForPass(t, events)

	if _, err := st.Get(context.Background(), "gen"); err == nil {
		t.Error("expected deleted snippet to stay deleted after the pass")
	}
}
