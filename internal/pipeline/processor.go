// Package pipeline validates, transforms, and moves pull request records
// from the source client into the vector store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prismdev/prism/internal/pr"
	"github.com/prismdev/prism/internal/vector"
)

const tracerName = "github.com/prismdev/prism/internal/pipeline"

const defaultBatchSize = 100

// Iterator yields pull request records one at a time.
type Iterator interface {
	Next(ctx context.Context) bool
	PullRequest() pr.PullRequest
	Err() error
}

// SourceOptions bounds and orders a repository listing.
type SourceOptions struct {
	State     string
	Sort      string
	Direction string
	Limit     int
}

// Source produces pull request records from a remote repository.
type Source interface {
	PullRequests(repoName string, opts SourceOptions) Iterator
}

// Embedder computes one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Processor orchestrates validate → transform → embed → store. All
// collaborators are injected; the processor holds no mutable state beyond
// them, so it is safe for concurrent use.
type Processor struct {
	source    Source
	embedder  Embedder
	store     vector.Store
	batchSize int
	tracer    trace.Tracer
}

// New creates a Processor. batchSize <= 0 falls back to the default of 100.
func New(source Source, embedder Embedder, store vector.Store, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Processor{
		source:    source,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		tracer:    otel.Tracer(tracerName),
	}
}

// Validate checks a record against the storage contract.
func (p *Processor) Validate(rec pr.PullRequest) error {
	if fields := rec.Validate(); len(fields) > 0 {
		return &ValidationError{ID: rec.ID, Fields: fields}
	}
	return nil
}

// Transform returns a storage-ready copy of the record: Labels and Comments
// are normalized to non-nil slices and ProcessedAt is stamped. The input is
// never mutated; slices are cloned to prevent aliasing across retries.
func Transform(in pr.PullRequest) pr.PullRequest {
	out := in
	out.Labels = cloneOrEmpty(in.Labels)
	out.Comments = cloneOrEmpty(in.Comments)
	out.ProcessedAt = time.Now().UTC()
	return out
}

func cloneOrEmpty(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Process runs the single-item pipeline: validate → transform → embed →
// upsert. Any failure surfaces as a *ProcessingError naming the record.
func (p *Processor) Process(ctx context.Context, rec pr.PullRequest) error {
	ctx, span := p.tracer.Start(ctx, "Processor.Process",
		trace.WithAttributes(attribute.Int64("pr.id", rec.ID), attribute.String("pr.repo", rec.RepoName)))
	defer span.End()

	if err := p.Validate(rec); err != nil {
		return &ProcessingError{ID: rec.ID, Op: "validate", Err: err}
	}

	transformed := Transform(rec)

	vectors, err := p.embedder.Embed(ctx, []string{transformed.EmbeddingText()})
	if err != nil {
		return &ProcessingError{ID: rec.ID, Op: "embed", Err: err}
	}
	if len(vectors) != 1 {
		return &ProcessingError{ID: rec.ID, Op: "embed", Err: fmt.Errorf("got %d vectors for one text", len(vectors))}
	}

	point := vector.Point{ID: transformed.ID, Vector: vectors[0], Record: transformed}
	if err := p.store.Upsert(ctx, point); err != nil {
		return &ProcessingError{ID: rec.ID, Op: "store", Err: err}
	}
	return nil
}

// ProcessBatch applies validate+transform to every record; records failing
// validation are excluded and reported, not fatal. Survivors are embedded in
// a single provider call and stored via UpsertBatch. Zero survivors is a
// no-op success. The returned error marks a total (store-level) failure;
// partial failures live in the report.
func (p *Processor) ProcessBatch(ctx context.Context, recs []pr.PullRequest) (*Report, error) {
	ctx, span := p.tracer.Start(ctx, "Processor.ProcessBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(recs))))
	defer span.End()

	report := &Report{}

	survivors := make([]pr.PullRequest, 0, len(recs))
	for _, rec := range recs {
		if err := p.Validate(rec); err != nil {
			report.fail(rec.ID, err)
			continue
		}
		survivors = append(survivors, Transform(rec))
	}

	if len(survivors) == 0 {
		return report, nil
	}

	texts := make([]string, len(survivors))
	for i, rec := range survivors {
		texts[i] = rec.EmbeddingText()
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return report, &ProcessingError{Op: "embed", Err: err}
	}
	if len(vectors) != len(texts) {
		return report, &ProcessingError{Op: "embed", Err: fmt.Errorf("got %d vectors for %d texts", len(vectors), len(texts))}
	}

	points := make([]vector.Point, len(survivors))
	for i, rec := range survivors {
		points[i] = vector.Point{ID: rec.ID, Vector: vectors[i], Record: rec}
	}

	err = p.store.UpsertBatch(ctx, points)
	var batchErr *vector.BatchError
	switch {
	case err == nil:
		for _, pt := range points {
			report.success(pt.ID)
		}
	case errors.As(err, &batchErr):
		for _, pt := range points {
			if itemErr, failed := batchErr.Failed[pt.ID]; failed {
				report.fail(pt.ID, itemErr)
			} else {
				report.success(pt.ID)
			}
		}
	default:
		return report, &ProcessingError{Op: "store", Err: err}
	}

	return report, nil
}

// ProcessRepository pulls records from the source in chunks of the batch
// size and processes each chunk independently: a failing chunk is recorded
// in the report and the sweep continues. A fetch failure ends the sweep
// after committing what was already pulled.
func (p *Processor) ProcessRepository(ctx context.Context, repoName string, opts SourceOptions) (*Report, error) {
	ctx, span := p.tracer.Start(ctx, "Processor.ProcessRepository",
		trace.WithAttributes(attribute.String("pr.repo", repoName)))
	defer span.End()

	it := p.source.PullRequests(repoName, opts)

	report := &Report{}
	chunk := make([]pr.PullRequest, 0, p.batchSize)

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		chunkReport, err := p.ProcessBatch(ctx, chunk)
		report.Merge(chunkReport)
		if err != nil {
			// Survivors of a totally-failed chunk are neither stored nor
			// reported by ProcessBatch; account for them here.
			seen := chunkReport.seen()
			for _, rec := range chunk {
				if !seen[rec.ID] {
					report.fail(rec.ID, err)
				}
			}
		}
		chunk = chunk[:0]
	}

	for it.Next(ctx) {
		chunk = append(chunk, it.PullRequest())
		if len(chunk) >= p.batchSize {
			flush()
		}
	}
	flush()

	if err := it.Err(); err != nil {
		return report, &ProcessingError{Op: "fetch", Err: err}
	}
	return report, nil
}

// SearchSimilar embeds the query text and returns the nearest stored
// records, highest similarity first. repoFilter optionally restricts hits
// to one repository.
func (p *Processor) SearchSimilar(ctx context.Context, query string, limit int, repoFilter string) ([]vector.Match, error) {
	ctx, span := p.tracer.Start(ctx, "Processor.SearchSimilar",
		trace.WithAttributes(attribute.String("query", query), attribute.Int("limit", limit)))
	defer span.End()

	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &ProcessingError{Op: "embed", Err: err}
	}
	if len(vectors) != 1 {
		return nil, &ProcessingError{Op: "embed", Err: fmt.Errorf("got %d vectors for one text", len(vectors))}
	}

	return p.store.Search(ctx, vectors[0], limit, repoFilter)
}

// Get retrieves one stored record by id, or nil when absent.
func (p *Processor) Get(ctx context.Context, id int64) (*pr.PullRequest, error) {
	return p.store.Get(ctx, id)
}

// Delete removes one record. Deleting a missing id is a no-op success.
func (p *Processor) Delete(ctx context.Context, id int64) error {
	ctx, span := p.tracer.Start(ctx, "Processor.Delete",
		trace.WithAttributes(attribute.Int64("pr.id", id)))
	defer span.End()

	return p.store.Delete(ctx, id)
}

// DeleteAll irreversibly drops the whole collection.
func (p *Processor) DeleteAll(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "Processor.DeleteAll")
	defer span.End()

	return p.store.DeleteCollection(ctx)
}
