package history

import (
	"context"
	"log/slog"

	"github.com/snipd/snipd/internal/providers"
)

// Recorder writes call records without letting persistence failures
// disturb the caller. A failed write is logged and dropped.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a recorder backed by the given store. A nil logger
// uses slog.Default().
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record persists a call built from a completion result. Safe to call on a
// nil recorder or with a nil result.
func (r *Recorder) Record(ctx context.Context, snippetName, prompt string, result *providers.CompletionResult) {
	if r == nil || r.store == nil || result == nil {
		return
	}

	call := FromResult(snippetName, prompt, result)
	if err := r.store.SaveCall(ctx, call); err != nil {
		r.logger.Warn("failed to record llm call",
			"snippet", snippetName,
			"provider", result.Provider,
			"error", err)
	}
}
