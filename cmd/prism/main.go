package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/prismdev/prism/internal/config"
	"github.com/prismdev/prism/internal/embedding"
	"github.com/prismdev/prism/internal/embedding/openai"
	"github.com/prismdev/prism/internal/github"
	"github.com/prismdev/prism/internal/observability"
	"github.com/prismdev/prism/internal/pipeline"
	temporalmod "github.com/prismdev/prism/internal/temporal"
	"github.com/prismdev/prism/internal/vector"
	"github.com/prismdev/prism/internal/vector/qdrant"
)

func main() {
	var (
		configPath string
		state      string
		limit      int
		repoFilter string
		remote     bool
		rebuild    bool
		yes        bool
	)

	rootCmd := &cobra.Command{
		Use:   "prism",
		Short: "PR ingestion and similarity search over a vector store",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/prism.yaml", "Config file path")

	indexCmd := &cobra.Command{
		Use:   "index <owner/repo>",
		Short: "Fetch a repository's pull requests and index them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return submitIndex(cmd.Context(), configPath, args[0], state, limit, rebuild)
			}
			return runIndex(cmd.Context(), configPath, args[0], state, limit, rebuild)
		},
	}
	indexCmd.Flags().StringVar(&state, "state", "all", "PR state filter (open, closed, all)")
	indexCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of PRs to index (0 = all)")
	indexCmd.Flags().BoolVar(&remote, "remote", false, "Submit the sweep to a Temporal worker instead of running locally")
	indexCmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop and recreate the collection before indexing")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find pull requests similar to the query text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), configPath, strings.Join(args, " "), limit, repoFilter)
		},
	}
	searchCmd.Flags().IntVar(&limit, "limit", 5, "Maximum number of results")
	searchCmd.Flags().StringVar(&repoFilter, "repo", "", "Restrict results to one repository")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one indexed pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return runGet(cmd.Context(), configPath, id)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove one pull request from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return runDelete(cmd.Context(), configPath, id)
		},
	}

	wipeCmd := &cobra.Command{
		Use:   "wipe",
		Short: "Irreversibly delete the whole collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			return runWipe(cmd.Context(), configPath)
		},
	}
	wipeCmd.Flags().BoolVar(&yes, "yes", false, "Confirm collection deletion")

	rootCmd.AddCommand(indexCmd, searchCmd, getCmd, deleteCmd, wipeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired pipeline and the resources behind it.
type app struct {
	cfg       *config.Config
	processor *pipeline.Processor
	store     vector.Store
	tracing   *observability.TracerProvider
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)

	tracing, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "prism",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	store, err := qdrant.New(qdrant.Config{
		Addr:       cfg.Vector.Addr,
		APIKey:     cfg.Vector.APIKey,
		Collection: cfg.Vector.Collection,
		Dimension:  cfg.Embedding.Dimensions,
		BatchSize:  cfg.Pipeline.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}

	ghClient, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.BaseURL, github.BackoffPolicy{
		Base:        cfg.GitHub.RetryDelay,
		Max:         cfg.GitHub.MaxDelay,
		MaxAttempts: cfg.GitHub.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("github client: %w", err)
	}

	processor := pipeline.New(source{ghClient}, embedder, store, cfg.Pipeline.BatchSize)

	return &app{cfg: cfg, processor: processor, store: store, tracing: tracing}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing vector store", "error", err)
	}
	if err := a.tracing.Shutdown(ctx); err != nil {
		slog.Warn("shutting down tracing", "error", err)
	}
}

// source adapts the github client to the pipeline's Source interface.
type source struct {
	client *github.Client
}

func (s source) PullRequests(repoName string, opts pipeline.SourceOptions) pipeline.Iterator {
	return s.client.PullRequests(repoName, github.ListOptions(opts))
}

func buildEmbedder(cfg config.EmbeddingConfig) (embedding.Provider, error) {
	factory := embedding.NewFactory()
	factory.Register("openai", func(c embedding.ProviderConfig) (embedding.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL, c.Dimensions), nil
	})
	// All OpenAI-compatible providers
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

	provider, err := factory.Create(embedding.ProviderConfig{
		Provider:   cfg.Provider,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Dimensions: cfg.Dimensions,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		provider = embedding.WithRateLimit(provider, &embedding.RateLimitConfig{
			RequestsPerMinute: cfg.RequestsPerMinute,
			BurstSize:         5,
		})
	}
	return provider, nil
}

func setupLogging(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func runIndex(ctx context.Context, configPath, repoName, state string, limit int, rebuild bool) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if rebuild {
		if err := a.store.DeleteCollection(ctx); err != nil {
			return err
		}
		if err := a.store.Initialize(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	report, err := a.processor.ProcessRepository(ctx, repoName, pipeline.SourceOptions{State: state, Limit: limit})
	if report != nil {
		printReport(report, time.Since(start))
	}
	return err
}

func submitIndex(ctx context.Context, configPath, repoName, state string, limit int, rebuild bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	workflowID := fmt.Sprintf("index-%s-%d", strings.ReplaceAll(repoName, "/", "-"), time.Now().Unix())
	run, err := c.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, temporalmod.IndexRepositoryWorkflow, temporalmod.IndexInput{
		RepoName: repoName,
		State:    state,
		Limit:    limit,
		Rebuild:  rebuild,
	})
	if err != nil {
		return fmt.Errorf("starting workflow: %w", err)
	}

	slog.Info("workflow started", "workflow_id", workflowID, "run_id", run.GetRunID())

	var out temporalmod.IndexOutput
	if err := run.Get(ctx, &out); err != nil {
		return fmt.Errorf("workflow failed: %w", err)
	}

	fmt.Printf("Indexed %d pull request(s), %d failure(s)\n", len(out.Processed), len(out.Failed))
	for _, f := range out.Failed {
		fmt.Printf("  failed %s\n", f)
	}
	return nil
}

func runSearch(ctx context.Context, configPath, query string, limit int, repoFilter string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	matches, err := a.processor.SearchSimilar(ctx, query, limit, repoFilter)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Println("No matches")
		return nil
	}
	for _, m := range matches {
		fmt.Printf("%.4f  %s#%d  %s\n", m.Score, m.Record.RepoName, m.Record.ID, m.Record.Title)
	}
	return nil
}

func runGet(ctx context.Context, configPath string, id int64) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	rec, err := a.processor.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("pr #%d not found in the index", id)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runDelete(ctx context.Context, configPath string, id int64) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.processor.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted pr #%d\n", id)
	return nil
}

func runWipe(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.processor.DeleteAll(ctx); err != nil {
		return err
	}
	fmt.Println("Collection deleted")
	return nil
}

func printReport(report *pipeline.Report, elapsed time.Duration) {
	fmt.Printf("Indexed %d pull request(s), %d failure(s) in %s\n",
		len(report.Succeeded), len(report.Failures), elapsed.Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Printf("  failed #%d: %v\n", f.ID, f.Err)
	}
}
