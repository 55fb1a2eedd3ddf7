// Package providers implements completion-service clients used to generate
// snippet content from resolved prompts.
package providers

import (
	"context"
	"time"
)

// CompletionClient is the boundary to a text-completion service. Snippet
// generation is a single request/response call; streaming is not used here.
type CompletionClient interface {
	// Complete sends a resolved prompt and returns the completion text.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// Name returns the client identifier (e.g., "openrouter").
	Name() string
}

// CompletionRequest is a request to a completion service.
type CompletionRequest struct {
	// Prompt is the fully resolved prompt text; all @references have
	// already been substituted by the resolver.
	Prompt string `json:"prompt"`

	// Model selection (uses client default if empty).
	Model string `json:"model,omitempty"`

	// Generation parameters.
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"-"`

	// Request tracking.
	RequestID string `json:"-"`
}

// CompletionResult is the complete response from a completion call.
type CompletionResult struct {
	Text string `json:"text"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
