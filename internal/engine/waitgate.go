package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/store"
)

// DefaultWaitTimeout bounds a wait when the caller supplies no timeout.
const DefaultWaitTimeout = 30 * time.Second

// WaitGate blocks a caller until a set of snippet names is no longer
// pending regeneration. Message submission uses it before resolving a
// prompt that references those names, so the prompt sees fresh content.
//
// A failure event for an awaited name rejects the whole wait immediately;
// the caller must abort rather than proceed with stale content. The timeout
// guarantees the wait cannot hang if an event is dropped.
type WaitGate struct {
	engine  *Engine
	store   store.Store
	timeout time.Duration
	logger  *slog.Logger
}

// NewWaitGate creates a gate over the engine's event bus. A zero timeout
// uses DefaultWaitTimeout; a nil logger uses slog.Default().
func NewWaitGate(e *Engine, st store.Store, timeout time.Duration, logger *slog.Logger) *WaitGate {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WaitGate{engine: e, store: st, timeout: timeout, logger: logger}
}

// WaitFor blocks until none of the named snippets is dirty or
// mid-regeneration. Returns immediately when all are already settled.
func (g *WaitGate) WaitFor(ctx context.Context, names []string) error {
	return g.WaitForTimeout(ctx, names, g.timeout)
}

// WaitForTimeout is WaitFor with a per-call timeout override; a
// non-positive timeout uses the gate's default.
func (g *WaitGate) WaitForTimeout(ctx context.Context, names []string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = g.timeout
	}
	if len(names) == 0 {
		return nil
	}

	// Subscribe before the snapshot so an item event landing between the
	// two cannot be missed.
	events, cancel := g.engine.Bus().Subscribe()
	defer cancel()

	pending, err := g.pendingSet(ctx, names)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	// Dirty names with no active pass would otherwise wait out the full
	// timeout for a pass nobody started.
	if !g.engine.Running() {
		g.engine.Trigger(ctx)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			return fmt.Errorf("timed out after %s waiting for snippets: %s",
				timeout, strings.Join(sortedNames(pending), ", "))

		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("event stream closed while waiting for snippets")
			}
			done, err := g.handleEvent(ctx, ev, pending)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (g *WaitGate) handleEvent(ctx context.Context, ev Event, pending map[string]bool) (bool, error) {
	switch ev.Type {
	case EventItemUpdate:
		if !pending[ev.Name] {
			return false, nil
		}
		if ev.Status == StatusFailure {
			return false, fmt.Errorf("snippet @%s failed to regenerate: %s", ev.Name, ev.Error)
		}
		delete(pending, ev.Name)
		return len(pending) == 0, nil

	case EventPassCompleted:
		for _, name := range ev.Cyclic {
			if pending[name] {
				return false, fmt.Errorf("snippet @%s cannot regenerate: it is part of a reference cycle", name)
			}
		}
		// An item event may have been dropped on a full channel; the store
		// is authoritative once the pass is over.
		return g.recheck(ctx, pending)

	default:
		return false, nil
	}
}

// pendingSet returns the subset of names still awaiting regeneration. A
// name absent from the collection fails the wait outright.
func (g *WaitGate) pendingSet(ctx context.Context, names []string) (map[string]bool, error) {
	snips, err := g.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snippets: %w", err)
	}
	byName := snippet.ByName(snips)

	pending := make(map[string]bool)
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, &snippet.MissingError{Name: name}
		}
		if s.Dirty || g.engine.IsRegenerating(name) {
			pending[name] = true
		}
	}
	return pending, nil
}

// recheck trims pending against the store after a pass. Reports done when
// nothing is pending, or an error when an awaited snippet ended the pass
// with a recorded failure.
func (g *WaitGate) recheck(ctx context.Context, pending map[string]bool) (bool, error) {
	snips, err := g.store.LoadAll(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load snippets: %w", err)
	}
	byName := snippet.ByName(snips)

	for _, name := range sortedNames(pending) {
		s, ok := byName[name]
		if !ok {
			return false, &snippet.MissingError{Name: name}
		}
		if s.Dirty || g.engine.IsRegenerating(name) {
			continue
		}
		if s.GenerationError != "" {
			return false, fmt.Errorf("snippet @%s failed to regenerate: %s", name, s.GenerationError)
		}
		delete(pending, name)
	}
	return len(pending) == 0, nil
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
