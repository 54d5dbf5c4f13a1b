// Package embedding turns text into fixed-dimension vectors via a remote
// provider, with retry and rate-limit wrappers around the raw client.
package embedding

import "context"

// Provider is the interface all embedding backends must implement.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name returns the provider identifier (e.g. "openai").
	Name() string
}
