package config

// Config holds snipd configuration.
// Stored at: ./config.yaml or ~/.snipd/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Store        StoreCfg                  `mapstructure:"store" yaml:"store"`
}

// LLMProviderCfg configures a completion provider.
type LLMProviderCfg struct {
	Type       string  `mapstructure:"type" yaml:"type"`             // "openrouter", "openai", "mock"
	Model      string  `mapstructure:"model" yaml:"model"`           // Model name
	APIKey     string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	RateLimit  float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	MaxRetries int     `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies generation defaults.
type DefaultsCfg struct {
	LLMProvider        string `mapstructure:"llm_provider" yaml:"llm_provider"` // Default completion provider
	Model              string `mapstructure:"model" yaml:"model"`               // Used when a snippet names no model
	WaitTimeoutSeconds int    `mapstructure:"wait_timeout_seconds" yaml:"wait_timeout_seconds"`

	// GenerationTimeoutSeconds bounds a single completion call; zero
	// disables the bound.
	GenerationTimeoutSeconds int `mapstructure:"generation_timeout_seconds" yaml:"generation_timeout_seconds"`
}

// ServerCfg holds HTTP server settings.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// StoreCfg holds snippet persistence settings.
type StoreCfg struct {
	// Path is the SQLite database file; empty means ~/.snipd/snipd.db.
	Path string `mapstructure:"path" yaml:"path"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:       "openrouter",
				Model:      "anthropic/claude-sonnet-4",
				APIKey:     "${OPENROUTER_API_KEY}",
				RateLimit:  60,
				MaxRetries: 3,
				Enabled:    true,
			},
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o-mini",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:              "openrouter",
			Model:                    "anthropic/claude-sonnet-4",
			WaitTimeoutSeconds:       30,
			GenerationTimeoutSeconds: 120,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8585,
		},
	}
}

// GetLLMProvider returns a provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
