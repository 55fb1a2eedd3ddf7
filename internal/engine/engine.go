// Package engine coordinates incremental snippet regeneration: it marks
// dependents dirty after a mutation, drains the dirty set in dependency
// order through a completion provider, and publishes progress events that
// the wait gate and the API stream consume.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/snipd/snipd/internal/history"
	"github.com/snipd/snipd/internal/providers"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/store"
)

// Config selects the completion provider and defaults used for generation.
type Config struct {
	// Provider is the registry name of the completion client.
	Provider string

	// Model is used when a snippet does not name its own model.
	Model string

	// GenerationTimeout bounds a single completion call. Zero uses the
	// provider's default.
	GenerationTimeout time.Duration
}

// Engine runs regeneration passes. At most one pass is active at a time: a
// trigger while a pass is running is a no-op, and freshly dirtied snippets
// are picked up by the next trigger, not the current pass.
type Engine struct {
	store    store.Store
	registry *providers.Registry
	recorder *history.Recorder
	bus      *Bus
	logger   *slog.Logger
	cfg      Config

	running atomic.Bool

	mu           sync.Mutex
	regenerating map[string]bool
	lastCyclic   []string
}

// New creates an engine. recorder may be nil to disable call history; a nil
// logger uses slog.Default().
func New(st store.Store, registry *providers.Registry, recorder *history.Recorder, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:        st,
		registry:     registry,
		recorder:     recorder,
		bus:          NewBus(logger),
		logger:       logger,
		cfg:          cfg,
		regenerating: make(map[string]bool),
	}
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *Bus {
	return e.bus
}

// Running reports whether a pass is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Regenerating returns a sorted snapshot of the names currently being
// processed.
func (e *Engine) Regenerating() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.regenerating) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.regenerating))
	for name := range e.regenerating {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegenerating reports whether the named snippet is mid-regeneration.
func (e *Engine) IsRegenerating(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regenerating[name]
}

// LastCyclic returns the cyclic names reported by the most recent pass.
func (e *Engine) LastCyclic() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.lastCyclic...)
}

// MarkDependentsDirty marks every transitive dependent of the changed names
// dirty, persists the batch, and triggers a pass if anything was dirtied.
// The changed snippets themselves are not marked unless a cycle loops back.
func (e *Engine) MarkDependentsDirty(ctx context.Context, changed ...string) error {
	snips, err := e.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snippets for propagation: %w", err)
	}

	dirty := make(map[string]bool)
	for _, name := range changed {
		for _, dep := range snippet.Dependents(name, snips) {
			dirty[dep] = true
		}
	}
	if len(dirty) == 0 {
		return nil
	}

	names := make([]string, 0, len(dirty))
	for name := range dirty {
		names = append(names, name)
	}
	sort.Strings(names)

	byName := snippet.ByName(snips)
	batch := make([]*snippet.Snippet, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			continue
		}
		s.Dirty = true
		s.Touch()
		batch = append(batch, s)
	}

	if err := e.store.SaveMany(ctx, batch); err != nil {
		return fmt.Errorf("failed to persist dirty snippets: %w", err)
	}

	e.logger.Debug("marked dependents dirty", "changed", changed, "dependents", names)
	e.Trigger(ctx)
	return nil
}

// Trigger starts a regeneration pass in the background and reports whether
// one was started. The single-flight guard makes a trigger during a running
// pass a no-op.
func (e *Engine) Trigger(ctx context.Context) bool {
	if !e.running.CompareAndSwap(false, true) {
		return false
	}
	// The pass outlives the triggering request.
	go e.runPass(context.WithoutCancel(ctx))
	return true
}

func (e *Engine) runPass(ctx context.Context) {
	start := time.Now()
	var cyclic []string

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("regeneration pass panicked", "panic", r)
		}
		e.mu.Lock()
		e.regenerating = make(map[string]bool)
		e.mu.Unlock()
		e.bus.Publish(Event{Type: EventPassCompleted, Cyclic: cyclic})
		e.running.Store(false)
	}()

	e.bus.Publish(Event{Type: EventPassStarted})

	snips, err := e.store.LoadAll(ctx)
	if err != nil {
		e.logger.Error("failed to load snippets for regeneration", "error", err)
		return
	}

	order := snippet.TopologicalOrder(snips)
	cyclic = order.Cyclic
	e.mu.Lock()
	e.lastCyclic = append([]string(nil), order.Cyclic...)
	e.mu.Unlock()
	if len(order.Cyclic) > 0 {
		e.logger.Warn("snippets excluded from regeneration by a reference cycle",
			"names", order.Cyclic)
	}

	byName := snippet.ByName(snips)
	failed := make(map[string]string)
	processed := 0

	for _, s := range order.Ordered {
		if !s.Dirty {
			continue
		}
		processed++

		if !s.Generated {
			// Nothing to regenerate; dirtiness only meant a dependency
			// changed, and resolution always reads content fresh.
			seen := s.UpdatedAt
			s.Dirty = false
			if err := e.persist(ctx, s, seen, false); err != nil {
				e.logger.Error("failed to persist snippet", "name", s.Name, "error", err)
			}
			e.bus.Publish(Event{Type: EventItemUpdate, Name: s.Name, Status: StatusSuccess})
			continue
		}

		e.processGenerated(ctx, s, byName, failed)
	}

	e.logger.Info("regeneration pass completed",
		"processed", processed,
		"failed", len(failed),
		"cyclic", len(order.Cyclic),
		"duration", time.Since(start))
}

// processGenerated regenerates one dirty generated snippet, persisting the
// outcome and publishing its terminal item event.
func (e *Engine) processGenerated(ctx context.Context, s *snippet.Snippet, byName map[string]*snippet.Snippet, failed map[string]string) {
	e.setRegenerating(s.Name, true)
	seen := s.UpdatedAt

	failMsg := ""
	for _, ref := range snippet.ExtractReferences(s.Prompt) {
		if _, ok := failed[ref]; ok {
			failMsg = fmt.Sprintf("Upstream dependency @%s failed to generate.", ref)
			break
		}
	}

	if failMsg == "" {
		prompt, err := snippet.Resolve(s.Prompt, byName)
		if err != nil {
			failMsg = err.Error()
		} else {
			failMsg = e.generate(ctx, s, prompt)
		}
	}

	if failMsg == "" {
		s.GenerationError = ""
	} else {
		// Previous content is kept; dirtiness is cleared so the snippet is
		// not retried forever without a new trigger.
		failed[s.Name] = failMsg
		s.GenerationError = failMsg
		e.logger.Warn("snippet generation failed", "name", s.Name, "error", failMsg)
	}
	s.Dirty = false
	if err := e.persist(ctx, s, seen, failMsg == ""); err != nil {
		e.logger.Error("failed to persist snippet", "name", s.Name, "error", err)
	}

	// Drop out of the regenerating set before the event fires so observers
	// reacting to the event see the final state.
	e.setRegenerating(s.Name, false)

	ev := Event{Type: EventItemUpdate, Name: s.Name, Status: StatusSuccess}
	if failMsg != "" {
		ev.Status = StatusFailure
		ev.Error = failMsg
	}
	e.bus.Publish(ev)
}

// persist writes a processed snippet's engine-owned fields (content on a
// successful generation, dirtiness, generation error, updated-at) back to
// the store. The row is re-read first so an edit saved while the engine was
// mid-item is not clobbered: name, prompt and model always come from the
// stored row, and if the row changed since the pass snapshotted it, its
// dirty flag survives so the edit is picked up by the next trigger. A row
// deleted mid-item is not resurrected.
func (e *Engine) persist(ctx context.Context, s *snippet.Snippet, seen time.Time, copyContent bool) error {
	fresh, err := e.store.Get(ctx, s.Name)
	if errors.Is(err, store.ErrNotFound) || (err == nil && fresh.ID != s.ID) {
		// Renamed or replaced mid-item; locate the row by ID.
		fresh, err = e.findByID(ctx, s.ID)
	}
	if err != nil {
		return err
	}
	if fresh == nil {
		return nil
	}

	if copyContent {
		fresh.Content = s.Content
	}
	fresh.GenerationError = s.GenerationError
	if fresh.UpdatedAt.Equal(seen) {
		fresh.Dirty = s.Dirty
	}
	fresh.Touch()
	return e.store.Save(ctx, fresh)
}

// findByID scans the store for a snippet by ID. Returns nil, nil when the
// snippet no longer exists.
func (e *Engine) findByID(ctx context.Context, id string) (*snippet.Snippet, error) {
	snips, err := e.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range snips {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

// generate calls the completion provider and writes the result into the
// snippet. Returns an empty string on success, the failure message
// otherwise.
func (e *Engine) generate(ctx context.Context, s *snippet.Snippet, prompt string) string {
	client, err := e.registry.Get(e.cfg.Provider)
	if err != nil {
		return fmt.Sprintf("no completion provider available: %v", err)
	}

	model := s.Model
	if model == "" {
		model = e.cfg.Model
	}

	req := &providers.CompletionRequest{
		Prompt:    prompt,
		Model:     model,
		Timeout:   e.cfg.GenerationTimeout,
		RequestID: uuid.New().String(),
	}

	result, callErr := client.Complete(ctx, req)
	if result != nil {
		e.recorder.Record(ctx, s.Name, prompt, result)
	}
	if callErr != nil {
		return callErr.Error()
	}
	if !result.Success {
		if result.ErrorMessage != "" {
			return result.ErrorMessage
		}
		return "completion failed"
	}

	s.Content = result.Text
	return ""
}

func (e *Engine) setRegenerating(name string, active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if active {
		e.regenerating[name] = true
	} else {
		delete(e.regenerating, name)
	}
}
