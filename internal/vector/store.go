// Package vector defines the storage contract for indexed pull requests.
package vector

import (
	"context"

	"github.com/prismdev/prism/internal/pr"
)

// Point is a stored (id, vector, payload) triple. ID mirrors the pull
// request number; the full record travels as the payload.
type Point struct {
	ID     int64
	Vector []float32
	Record pr.PullRequest
}

// Match is a single similarity-search hit, highest-similarity first.
type Match struct {
	Record pr.PullRequest
	Score  float32
}

// Store provides durable storage and similarity search over PR vectors.
// Implementations must tolerate concurrent calls once initialized.
type Store interface {
	// Initialize creates the backing collection if absent. Idempotent.
	Initialize(ctx context.Context) error

	// Upsert inserts or fully replaces the point for its id.
	Upsert(ctx context.Context, p Point) error

	// UpsertBatch applies Upsert semantics per item. Partial failures are
	// reported via *BatchError; the remaining items are still stored.
	UpsertBatch(ctx context.Context, points []Point) error

	// Search returns up to limit nearest neighbors. repoFilter, when
	// non-empty, restricts hits to that repository. An empty collection
	// yields an empty slice, not an error.
	Search(ctx context.Context, vector []float32, limit int, repoFilter string) ([]Match, error)

	// Get retrieves one record by id, or nil when absent.
	Get(ctx context.Context, id int64) (*pr.PullRequest, error)

	// Delete removes one point. Deleting a missing id is a no-op success.
	Delete(ctx context.Context, id int64) error

	// DeleteCollection irreversibly removes all points and the collection.
	// Subsequent operations require Initialize again.
	DeleteCollection(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
