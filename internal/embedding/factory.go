package embedding

import (
	"fmt"
	"time"
)

// ProviderConfig holds all configuration needed to create any embedding provider.
type ProviderConfig struct {
	Provider   string // "openai", "groq", "ollama", "together", "custom"
	APIKey     string
	Model      string // embedding model identifier; implicitly fixes the vector dimension
	BaseURL    string // override for self-hosted / custom endpoints
	Dimensions int    // requested output dimension (0 = model default)

	// Timeout and retry configuration
	Timeout    time.Duration // per-request timeout (default: 1 minute)
	MaxRetries int           // max retry attempts (default: 3)
	RetryDelay time.Duration // initial retry delay for exponential backoff (default: 1s)
}

// ProviderFactory creates Provider instances from config.
type ProviderFactory struct {
	constructors map[string]ProviderConstructor
}

// ProviderConstructor builds a Provider from config.
type ProviderConstructor func(cfg ProviderConfig) (Provider, error)

// NewFactory creates an empty factory; callers register constructors.
func NewFactory() *ProviderFactory {
	return &ProviderFactory{constructors: make(map[string]ProviderConstructor)}
}

// Register adds a provider constructor under the given name.
func (f *ProviderFactory) Register(name string, ctor ProviderConstructor) {
	f.constructors[name] = ctor
}

// Create builds a Provider from config, wrapped with retry logic when
// timeout or retries are configured.
func (f *ProviderFactory) Create(cfg ProviderConfig) (Provider, error) {
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q — registered: %v", cfg.Provider, f.names())
	}

	provider, err := ctor(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 || cfg.MaxRetries > 0 {
		retryDelay := cfg.RetryDelay
		if retryDelay == 0 {
			retryDelay = 1 * time.Second
		}
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 1 * time.Minute
		}
		provider = NewRetryProvider(provider, &RetryConfig{
			MaxRetries: cfg.MaxRetries,
			RetryDelay: retryDelay,
			MaxDelay:   30 * time.Second,
			Timeout:    timeout,
		})
	}

	return provider, nil
}

func (f *ProviderFactory) names() []string {
	var out []string
	for k := range f.constructors {
		out = append(out, k)
	}
	return out
}

// KnownProviders maps OpenAI-compatible provider presets to base URLs.
var KnownProviders = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"groq":     "https://api.groq.com/openai/v1",
	"ollama":   "http://localhost:11434/v1",
	"together": "https://api.together.xyz/v1",
}
