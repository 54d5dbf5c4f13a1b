package temporal

import (
	"context"
	"errors"
	"testing"

	"github.com/prismdev/prism/internal/pipeline"
	"github.com/prismdev/prism/internal/pr"
	"github.com/prismdev/prism/internal/vector"
)

type fakeIndexer struct {
	report  *pipeline.Report
	err     error
	gotRepo string
	gotOpts pipeline.SourceOptions
}

func (f *fakeIndexer) ProcessRepository(_ context.Context, repoName string, opts pipeline.SourceOptions) (*pipeline.Report, error) {
	f.gotRepo = repoName
	f.gotOpts = opts
	return f.report, f.err
}

type fakeCollectionStore struct {
	deleted     bool
	initialized bool
	deleteErr   error
}

func (f *fakeCollectionStore) Initialize(context.Context) error {
	f.initialized = true
	return nil
}
func (f *fakeCollectionStore) Upsert(context.Context, vector.Point) error        { return nil }
func (f *fakeCollectionStore) UpsertBatch(context.Context, []vector.Point) error { return nil }
func (f *fakeCollectionStore) Search(context.Context, []float32, int, string) ([]vector.Match, error) {
	return nil, nil
}
func (f *fakeCollectionStore) Get(context.Context, int64) (*pr.PullRequest, error) {
	return nil, nil
}
func (f *fakeCollectionStore) Delete(context.Context, int64) error { return nil }
func (f *fakeCollectionStore) DeleteCollection(context.Context) error {
	f.deleted = true
	return f.deleteErr
}
func (f *fakeCollectionStore) Close() error { return nil }

func TestIndexRepositoryActivity(t *testing.T) {
	indexer := &fakeIndexer{
		report: &pipeline.Report{
			Succeeded: []int64{1, 2},
			Failures:  []pipeline.Failure{{ID: 3, Err: errors.New("bad state")}},
		},
	}
	SetDependencies(&Dependencies{Indexer: indexer})

	out, err := IndexRepositoryActivity(context.Background(), IndexInput{
		RepoName: "acme/widgets",
		State:    "open",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("activity: %v", err)
	}

	if indexer.gotRepo != "acme/widgets" {
		t.Errorf("repo = %q", indexer.gotRepo)
	}
	if indexer.gotOpts.State != "open" || indexer.gotOpts.Limit != 10 {
		t.Errorf("opts = %+v", indexer.gotOpts)
	}
	if len(out.Processed) != 2 {
		t.Errorf("Processed = %v", out.Processed)
	}
	if len(out.Failed) != 1 {
		t.Fatalf("Failed = %v", out.Failed)
	}
}

func TestIndexRepositoryActivity_PartialReportOnError(t *testing.T) {
	indexer := &fakeIndexer{
		report: &pipeline.Report{Succeeded: []int64{1}},
		err:    errors.New("rate limited"),
	}
	SetDependencies(&Dependencies{Indexer: indexer})

	out, err := IndexRepositoryActivity(context.Background(), IndexInput{RepoName: "acme/widgets"})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	// The partial outcome still travels with the error.
	if len(out.Processed) != 1 {
		t.Errorf("Processed = %v", out.Processed)
	}
}

func TestRebuildCollectionActivity(t *testing.T) {
	store := &fakeCollectionStore{}
	SetDependencies(&Dependencies{Store: store})

	if err := RebuildCollectionActivity(context.Background()); err != nil {
		t.Fatalf("activity: %v", err)
	}
	if !store.deleted || !store.initialized {
		t.Errorf("expected delete then initialize, got deleted=%v initialized=%v", store.deleted, store.initialized)
	}
}

func TestRebuildCollectionActivity_DeleteFails(t *testing.T) {
	store := &fakeCollectionStore{deleteErr: errors.New("unavailable")}
	SetDependencies(&Dependencies{Store: store})

	if err := RebuildCollectionActivity(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if store.initialized {
		t.Error("initialize must not run after a failed delete")
	}
}
