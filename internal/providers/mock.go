package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a CompletionClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string

	// FailFor makes requests whose prompt contains one of these substrings
	// fail, for per-item failure scenarios.
	FailFor []string

	// ResponseFor maps a prompt substring to a canned response, checked
	// before ResponseText.
	ResponseFor map[string]string

	// State
	requestCount atomic.Int64

	mu      sync.Mutex
	prompts []string
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Complete sends a mock completion request.
func (c *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.prompts = append(c.prompts, req.Prompt)
	c.mu.Unlock()

	result := &CompletionResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	fail := func(msg string) (*CompletionResult, error) {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = msg
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("%s", msg)
	}

	if c.ShouldFail {
		return fail("mock client configured to fail")
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return fail(fmt.Sprintf("mock client failed after %d requests", c.FailAfter))
	}
	for _, marker := range c.FailFor {
		if marker != "" && strings.Contains(req.Prompt, marker) {
			return fail(fmt.Sprintf("mock failure for prompt containing %q", marker))
		}
	}

	// Simulate latency
	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		result.ErrorType = "context_cancelled"
		result.ErrorMessage = ctx.Err().Error()
		result.ExecutionTime = time.Since(start)
		return result, ctx.Err()
	}

	text := c.ResponseText
	for marker, resp := range c.ResponseFor {
		if strings.Contains(req.Prompt, marker) {
			text = resp
			break
		}
	}

	result.Success = true
	result.Text = text
	result.ExecutionTime = time.Since(start)

	// Simulate token counting
	result.PromptTokens = len(req.Prompt) / 4
	result.CompletionTokens = len(text) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens

	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Prompts returns every prompt received, in order.
func (c *MockClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// Reset resets the request counter and recorded prompts.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.prompts = nil
	c.mu.Unlock()
}

// Verify interface
var _ CompletionClient = (*MockClient)(nil)
