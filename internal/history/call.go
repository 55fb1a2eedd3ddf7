// Package history records every completion call made by the regeneration
// engine, for traceability: which snippet, which model, the exact resolved
// prompt, and what came back.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/snipd/snipd/internal/providers"
)

// Call represents a recorded completion API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// The snippet this call regenerated.
	SnippetName string `json:"snippet_name"`

	// Model info
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// The exact resolved prompt sent to the service, and the response.
	Prompt   string `json:"prompt"`
	Response string `json:"response"`

	// Token usage
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FromResult creates a Call from a completion result.
// Returns nil if result is nil.
func FromResult(snippetName, prompt string, result *providers.CompletionResult) *Call {
	if result == nil {
		return nil
	}

	model := result.ModelUsed
	return &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		SnippetName:  snippetName,
		Provider:     result.Provider,
		Model:        model,
		Prompt:       prompt,
		Response:     result.Text,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Success:      result.Success,
		Error:        result.ErrorMessage,
	}
}
