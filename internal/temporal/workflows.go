// Package temporal runs repository indexing sweeps as Temporal workflows.
package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"
)

// IndexInput holds the workflow parameters. Chunking is governed by the
// worker's configured batch size, not per run.
type IndexInput struct {
	RepoName string // "owner/repo"
	State    string // open, closed, all
	Limit    int    // 0 = no limit

	// Rebuild drops and recreates the collection before indexing. This is
	// the caller-triggered path for embedding-model changes.
	Rebuild bool
}

// IndexOutput holds the workflow result.
type IndexOutput struct {
	Processed []int64  // record ids stored
	Failed    []string // per-record failure descriptions
}

// IndexRepositoryWorkflow sweeps one repository into the vector store.
func IndexRepositoryWorkflow(ctx workflow.Context, input IndexInput) (*IndexOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 1 * time.Hour,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	if input.Rebuild {
		if err := workflow.ExecuteActivity(ctx, RebuildCollectionActivity).Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("rebuild collection: %w", err)
		}
	}

	var out IndexOutput
	if err := workflow.ExecuteActivity(ctx, IndexRepositoryActivity, input).Get(ctx, &out); err != nil {
		return nil, fmt.Errorf("index %s: %w", input.RepoName, err)
	}
	return &out, nil
}
