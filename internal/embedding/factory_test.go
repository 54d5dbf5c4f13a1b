package embedding

import (
	"testing"
	"time"
)

func TestNewFactory(t *testing.T) {
	f := NewFactory()
	if f == nil {
		t.Fatal("expected non-nil factory")
	}
	if f.constructors == nil {
		t.Fatal("expected constructors map to be initialized")
	}
	if len(f.constructors) != 0 {
		t.Fatalf("expected empty factory, got %d constructors", len(f.constructors))
	}
}

func TestFactoryRegister(t *testing.T) {
	f := NewFactory()
	called := false
	f.Register("test-provider", func(cfg ProviderConfig) (Provider, error) {
		called = true
		return &countingProvider{name: "test-provider"}, nil
	})

	if len(f.constructors) != 1 {
		t.Fatalf("expected 1 constructor, got %d", len(f.constructors))
	}

	f.constructors["test-provider"](ProviderConfig{})
	if !called {
		t.Fatal("constructor was not called")
	}
}

func TestFactoryCreate_UnknownProvider(t *testing.T) {
	f := NewFactory()
	if _, err := f.Create(ProviderConfig{Provider: "nope"}); err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}

func TestFactoryCreate_NoRetryWrapping(t *testing.T) {
	f := NewFactory()
	f.Register("plain", func(cfg ProviderConfig) (Provider, error) {
		return &countingProvider{name: "plain"}, nil
	})

	p, err := f.Create(ProviderConfig{Provider: "plain"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := p.(*countingProvider); !ok {
		t.Fatalf("expected unwrapped provider, got %T", p)
	}
}

func TestFactoryCreate_WrapsWithRetry(t *testing.T) {
	f := NewFactory()
	f.Register("wrapped", func(cfg ProviderConfig) (Provider, error) {
		return &countingProvider{name: "wrapped"}, nil
	})

	p, err := f.Create(ProviderConfig{
		Provider:   "wrapped",
		MaxRetries: 5,
		Timeout:    2 * time.Minute,
		RetryDelay: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	retry, ok := p.(*RetryProvider)
	if !ok {
		t.Fatalf("expected *RetryProvider, got %T", p)
	}
	if retry.config.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", retry.config.MaxRetries)
	}
	if retry.config.Timeout != 2*time.Minute {
		t.Errorf("expected 2 minute timeout, got %v", retry.config.Timeout)
	}
	if retry.config.RetryDelay != 2*time.Second {
		t.Errorf("expected 2s retry delay, got %v", retry.config.RetryDelay)
	}
}

func TestFactoryCreate_DefaultsRetryDelayAndTimeout(t *testing.T) {
	f := NewFactory()
	f.Register("wrapped", func(cfg ProviderConfig) (Provider, error) {
		return &countingProvider{name: "wrapped"}, nil
	})

	p, err := f.Create(ProviderConfig{Provider: "wrapped", MaxRetries: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	retry, ok := p.(*RetryProvider)
	if !ok {
		t.Fatalf("expected *RetryProvider, got %T", p)
	}
	if retry.config.RetryDelay != 1*time.Second {
		t.Errorf("expected default 1s retry delay, got %v", retry.config.RetryDelay)
	}
	if retry.config.Timeout != 1*time.Minute {
		t.Errorf("expected default 1 minute timeout, got %v", retry.config.Timeout)
	}
}

func TestKnownProviders(t *testing.T) {
	for _, name := range []string{"openai", "groq", "ollama", "together"} {
		if _, ok := KnownProviders[name]; !ok {
			t.Errorf("missing preset for %q", name)
		}
	}
}
