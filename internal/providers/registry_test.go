package providers

import (
	"context"
	"testing"
)

func TestRegistry_RegisterGet(t *testing.T) {
	r := NewRegistry()

	mock := NewMockClient()
	r.Register("primary", mock)

	got, err := r.Get("primary")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != mock {
		t.Error("Get() returned a different client")
	}

	if _, err := r.Get("absent"); err == nil {
		t.Error("Get(absent) expected error")
	}
}

func TestRegistry_Reload(t *testing.T) {
	r := NewRegistry()
	r.Register("stale", NewMockClient())

	r.Reload(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"fresh":    {Type: "mock", Enabled: true},
			"disabled": {Type: "mock", Enabled: false},
			"broken":   {Type: "what", Enabled: true},
		},
	})

	if r.Has("stale") {
		t.Error("Reload() kept a client not in config")
	}
	if !r.Has("fresh") {
		t.Error("Reload() missing enabled mock client")
	}
	if r.Has("disabled") {
		t.Error("Reload() registered a disabled client")
	}
	if r.Has("broken") {
		t.Error("Reload() registered a client with unknown type")
	}
}

func TestMockClient_Complete(t *testing.T) {
	mock := NewMockClient()
	mock.ResponseText = "result"

	res, err := mock.Complete(context.Background(), &CompletionRequest{
		Prompt: "use v2",
		Model:  "test-model",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !res.Success || res.Text != "result" {
		t.Errorf("Complete() = %+v, want success with text %q", res, "result")
	}
	if got := mock.Prompts(); len(got) != 1 || got[0] != "use v2" {
		t.Errorf("Prompts() = %v, want the sent prompt recorded", got)
	}
}

func TestMockClient_FailFor(t *testing.T) {
	mock := NewMockClient()
	mock.FailFor = []string{"poison"}

	if _, err := mock.Complete(context.Background(), &CompletionRequest{Prompt: "has poison inside"}); err == nil {
		t.Error("Complete() expected failure for matching prompt")
	}
	if _, err := mock.Complete(context.Background(), &CompletionRequest{Prompt: "clean"}); err != nil {
		t.Errorf("Complete() error = %v for non-matching prompt", err)
	}
}
