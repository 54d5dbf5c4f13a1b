package temporal

import (
	"context"
	"fmt"

	"github.com/prismdev/prism/internal/pipeline"
	"github.com/prismdev/prism/internal/vector"
)

// Indexer is the slice of the pipeline the activities need.
type Indexer interface {
	ProcessRepository(ctx context.Context, repoName string, opts pipeline.SourceOptions) (*pipeline.Report, error)
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Indexer Indexer
	Store   vector.Store
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// IndexRepositoryActivity runs the repository sweep and reports per-record
// outcomes. Partial failures are data in the output, not activity errors.
func IndexRepositoryActivity(ctx context.Context, input IndexInput) (IndexOutput, error) {
	report, err := deps.Indexer.ProcessRepository(ctx, input.RepoName, pipeline.SourceOptions{
		State: input.State,
		Limit: input.Limit,
	})

	var out IndexOutput
	if report != nil {
		out.Processed = report.Succeeded
		for _, f := range report.Failures {
			out.Failed = append(out.Failed, fmt.Sprintf("#%d: %v", f.ID, f.Err))
		}
	}
	if err != nil {
		return out, err
	}
	return out, nil
}

// RebuildCollectionActivity drops and recreates the collection.
func RebuildCollectionActivity(ctx context.Context) error {
	if err := deps.Store.DeleteCollection(ctx); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := deps.Store.Initialize(ctx); err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	return nil
}
