package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/prismdev/prism/internal/config"
	"github.com/prismdev/prism/internal/embedding"
	"github.com/prismdev/prism/internal/embedding/openai"
	"github.com/prismdev/prism/internal/github"
	"github.com/prismdev/prism/internal/observability"
	"github.com/prismdev/prism/internal/pipeline"
	temporalmod "github.com/prismdev/prism/internal/temporal"
	"github.com/prismdev/prism/internal/vector/qdrant"
)

func main() {
	configPath := "configs/prism.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	tracing, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "prism-worker",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	defer tracing.Shutdown(ctx)

	factory := embedding.NewFactory()
	factory.Register("openai", func(c embedding.ProviderConfig) (embedding.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL, c.Dimensions), nil
	})
	for name, baseURL := range embedding.KnownProviders {
		if name == "openai" {
			continue
		}
		baseURL := baseURL
		factory.Register(name, func(c embedding.ProviderConfig) (embedding.Provider, error) {
			base := c.BaseURL
			if base == "" {
				base = baseURL
			}
			return openai.New(c.APIKey, c.Model, base, c.Dimensions), nil
		})
	}

	embedder, err := factory.Create(embedding.ProviderConfig{
		Provider:   cfg.Embedding.Provider,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
		MaxRetries: cfg.Embedding.MaxRetries,
		RetryDelay: cfg.Embedding.RetryDelay,
	})
	if err != nil {
		log.Fatalf("embedding provider: %v", err)
	}
	if cfg.Embedding.RequestsPerMinute > 0 {
		embedder = embedding.WithRateLimit(embedder, &embedding.RateLimitConfig{
			RequestsPerMinute: cfg.Embedding.RequestsPerMinute,
			BurstSize:         5,
		})
	}

	store, err := qdrant.New(qdrant.Config{
		Addr:       cfg.Vector.Addr,
		APIKey:     cfg.Vector.APIKey,
		Collection: cfg.Vector.Collection,
		Dimension:  cfg.Embedding.Dimensions,
		BatchSize:  cfg.Pipeline.BatchSize,
	})
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}
	defer store.Close()
	if err := store.Initialize(ctx); err != nil {
		log.Fatalf("vector store: %v", err)
	}

	ghClient, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.BaseURL, github.BackoffPolicy{
		Base:        cfg.GitHub.RetryDelay,
		Max:         cfg.GitHub.MaxDelay,
		MaxAttempts: cfg.GitHub.MaxRetries,
	})
	if err != nil {
		log.Fatalf("github client: %v", err)
	}

	processor := pipeline.New(source{ghClient}, embedder, store, cfg.Pipeline.BatchSize)

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Indexer: processor,
		Store:   store,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	w.Stop()
	fmt.Println("Worker stopped")
}

// source adapts the github client to the pipeline's Source interface.
type source struct {
	client *github.Client
}

func (s source) PullRequests(repoName string, opts pipeline.SourceOptions) pipeline.Iterator {
	return s.client.PullRequests(repoName, github.ListOptions(opts))
}
