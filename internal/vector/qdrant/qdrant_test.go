package qdrant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prismdev/prism/internal/pr"
	"github.com/prismdev/prism/internal/vector"
)

func TestNew_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{"missing addr", Config{Collection: "prs", Dimension: 3}, "addr"},
		{"missing collection", Config{Addr: "localhost:6334", Dimension: 3}, "collection"},
		{"zero dimension", Config{Addr: "localhost:6334", Collection: "prs"}, "dimension"},
		{"negative dimension", Config{Addr: "localhost:6334", Collection: "prs", Dimension: -1}, "dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			var cfgErr *vector.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestNew_DefaultsBatchSize(t *testing.T) {
	s, err := New(Config{Addr: "localhost:6334", Collection: "prs", Dimension: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if s.cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", s.cfg.BatchSize, DefaultBatchSize)
	}
}

func TestOperationsFailBeforeInitialize(t *testing.T) {
	s, err := New(Config{Addr: "localhost:6334", Collection: "prs", Dimension: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	point := vector.Point{ID: 1, Vector: []float32{1, 2, 3}}

	checks := map[string]error{
		"upsert": s.Upsert(ctx, point),
		"batch":  s.UpsertBatch(ctx, []vector.Point{point}),
		"delete": s.Delete(ctx, 1),
		"wipe":   s.DeleteCollection(ctx),
	}
	if _, err := s.Search(ctx, []float32{1, 2, 3}, 5, ""); err != nil {
		checks["search"] = err
	} else {
		t.Error("Search on an uninitialized store must fail")
	}
	if _, err := s.Get(ctx, 1); err != nil {
		checks["get"] = err
	} else {
		t.Error("Get on an uninitialized store must fail")
	}

	for op, err := range checks {
		var connErr *vector.ConnectionError
		if !errors.As(err, &connErr) {
			t.Errorf("%s: expected *ConnectionError, got %v", op, err)
		}
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	s, err := New(Config{Addr: "localhost:6334", Collection: "prs", Dimension: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	s.initialized.Store(true) // skip the network round-trip

	err = s.Upsert(context.Background(), vector.Point{ID: 1, Vector: []float32{1, 2}})
	var dimErr *vector.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected *DimensionMismatchError, got %v", err)
	}
	if dimErr.Want != 3 || dimErr.Got != 2 {
		t.Errorf("unexpected mismatch detail: %+v", dimErr)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	s, err := New(Config{Addr: "localhost:6334", Collection: "prs", Dimension: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	s.initialized.Store(true)

	_, err = s.Search(context.Background(), []float32{1, 2, 3, 4}, 5, "")
	var dimErr *vector.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected *DimensionMismatchError, got %v", err)
	}
}

func TestSearch_NonPositiveLimit(t *testing.T) {
	s, err := New(Config{Addr: "localhost:6334", Collection: "prs", Dimension: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	s.initialized.Store(true)

	// Must short-circuit before any RPC: a negative limit would otherwise
	// wrap into a huge uint64 request limit.
	for _, limit := range []int{0, -1} {
		matches, err := s.Search(context.Background(), []float32{1, 2, 3}, limit, "")
		if err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}
		if len(matches) != 0 {
			t.Errorf("limit %d: expected no matches, got %d", limit, len(matches))
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := pr.PullRequest{
		ID:          42,
		RepoName:    "acme/widgets",
		Title:       "Fix crash",
		Body:        "Guards the decoder.",
		State:       pr.StateMerged,
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
		Author:      "octocat",
		Labels:      []string{"bug", "crash"},
		Comments:    []string{"LGTM", "ship it"},
		ProcessedAt: created.Add(2 * time.Hour),
	}

	got := recordFromPayload(payloadFromRecord(rec))

	if got.ID != rec.ID || got.RepoName != rec.RepoName || got.Title != rec.Title ||
		got.Body != rec.Body || got.State != rec.State || got.Author != rec.Author {
		t.Errorf("scalar fields changed in round trip:\n got %+v\nwant %+v", got, rec)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) || !got.UpdatedAt.Equal(rec.UpdatedAt) || !got.ProcessedAt.Equal(rec.ProcessedAt) {
		t.Errorf("timestamps changed in round trip: %+v", got)
	}
	if len(got.Labels) != 2 || got.Labels[1] != "crash" {
		t.Errorf("labels changed: %v", got.Labels)
	}
	if len(got.Comments) != 2 || got.Comments[0] != "LGTM" {
		t.Errorf("comments changed: %v", got.Comments)
	}
}

func TestPayloadRoundTrip_ZeroTimesAndEmptySlices(t *testing.T) {
	rec := pr.PullRequest{ID: 1, RepoName: "a/b", State: pr.StateOpen}

	got := recordFromPayload(payloadFromRecord(rec))

	if !got.CreatedAt.IsZero() || !got.ProcessedAt.IsZero() {
		t.Errorf("zero times not preserved: %+v", got)
	}
	if got.Labels == nil || got.Comments == nil {
		t.Error("nil slices should decode as empty, not nil")
	}
	if len(got.Labels) != 0 || len(got.Comments) != 0 {
		t.Errorf("expected empty slices, got %v / %v", got.Labels, got.Comments)
	}
}

func TestPayloadKeysMatchJSONNames(t *testing.T) {
	payload := payloadFromRecord(pr.PullRequest{ID: 1, RepoName: "a/b"})
	for _, key := range []string{"id", "repo_name", "title", "body", "state",
		"created_at", "updated_at", "author", "labels", "comments", "processed_at"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}
}
