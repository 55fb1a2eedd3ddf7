package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LLMProviderConfig configures one completion client in the registry.
type LLMProviderConfig struct {
	Type       string  // "openrouter", "openai", or "mock"
	Model      string  // Default model
	APIKey     string  // Already env-resolved
	RateLimit  float64 // Requests per minute
	MaxRetries int
	Enabled    bool
}

// RegistryConfig is the provider section of the application config in a
// form the registry can instantiate clients from.
type RegistryConfig struct {
	LLMProviders map[string]LLMProviderConfig
}

// Registry holds completion clients by name. It supports config-driven
// instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]CompletionClient
	logger  *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]CompletionClient),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers a completion client by name.
func (r *Registry) Register(name string, client CompletionClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	if r.logger != nil {
		r.logger.Info("registered completion client", "name", name, "type", client.Name())
	}
}

// Unregister removes a completion client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	if r.logger != nil {
		r.logger.Info("unregistered completion client", "name", name)
	}
}

// Get returns a completion client by name.
func (r *Registry) Get(name string) (CompletionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("completion client not found: %s", name)
	}
	return client, nil
}

// Has checks if a completion client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// List returns all registered client names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Reload replaces the registered clients with ones built from cfg.
// Disabled entries are skipped; unknown types are logged and skipped.
func (r *Registry) Reload(cfg RegistryConfig) {
	clients := make(map[string]CompletionClient, len(cfg.LLMProviders))

	for name, pc := range cfg.LLMProviders {
		if !pc.Enabled {
			continue
		}

		client, err := buildClient(pc)
		if err != nil {
			r.mu.RLock()
			logger := r.logger
			r.mu.RUnlock()
			if logger != nil {
				logger.Warn("skipping provider", "name", name, "error", err)
			}
			continue
		}
		clients[name] = client
	}

	r.mu.Lock()
	r.clients = clients
	logger := r.logger
	r.mu.Unlock()

	if logger != nil {
		logger.Info("provider registry reloaded", "count", len(clients))
	}
}

func buildClient(pc LLMProviderConfig) (CompletionClient, error) {
	switch pc.Type {
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       pc.APIKey,
			DefaultModel: pc.Model,
			RPM:          int(pc.RateLimit),
			MaxRetries:   pc.MaxRetries,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       pc.APIKey,
			DefaultModel: pc.Model,
			RPM:          int(pc.RateLimit),
			MaxRetries:   pc.MaxRetries,
		}), nil
	case "mock":
		mock := NewMockClient()
		mock.Latency = 10 * time.Millisecond
		return mock, nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", pc.Type)
	}
}
