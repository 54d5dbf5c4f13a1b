// Package qdrant implements vector.Store backed by a Qdrant collection.
package qdrant

import (
	"context"
	"fmt"
	"sync/atomic"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/prismdev/prism/internal/pr"
	"github.com/prismdev/prism/internal/vector"
)

// DefaultBatchSize bounds the number of points sent per upsert request.
const DefaultBatchSize = 100

// Config holds the connection parameters for a Qdrant-backed store.
type Config struct {
	Addr       string // host:port of the Qdrant gRPC endpoint
	APIKey     string // optional, sent as the api-key metadata header
	Collection string
	Dimension  int // fixed vector dimension for the collection
	BatchSize  int // defaults to DefaultBatchSize
}

// Store implements vector.Store using Qdrant's points and collections APIs.
// The gRPC connection is shared across calls and safe for concurrent use.
type Store struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	cfg         Config

	initialized atomic.Bool
}

// New creates a Qdrant-backed store. The collection is not touched until
// Initialize is called.
func New(cfg Config) (*Store, error) {
	switch {
	case cfg.Addr == "":
		return nil, &vector.ConfigurationError{Field: "addr"}
	case cfg.Collection == "":
		return nil, &vector.ConfigurationError{Field: "collection"}
	case cfg.Dimension <= 0:
		return nil, &vector.ConfigurationError{Field: "dimension"}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, &vector.ConnectionError{Op: "connect", Err: err}
	}

	return &Store{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		cfg:         cfg,
	}, nil
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Initialize creates the collection if it does not exist yet. Safe to call
// repeatedly; the dimension and distance metric are fixed on first creation.
func (s *Store) Initialize(ctx context.Context) error {
	resp, err := s.collections.List(ctx, &pb.ListCollections{})
	if err != nil {
		return &vector.ConnectionError{Op: "initialize", Err: err}
	}

	exists := false
	for _, c := range resp.GetCollections() {
		if c.GetName() == s.cfg.Collection {
			exists = true
			break
		}
	}

	if !exists {
		_, err = s.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: s.cfg.Collection,
			VectorsConfig: &pb.VectorsConfig{
				Config: &pb.VectorsConfig_Params{
					Params: &pb.VectorParams{
						Size:     uint64(s.cfg.Dimension),
						Distance: pb.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return &vector.ConnectionError{Op: "initialize", Err: err}
		}
	}

	s.initialized.Store(true)
	return nil
}

func (s *Store) ready(op string) error {
	if !s.initialized.Load() {
		return &vector.ConnectionError{Op: op}
	}
	return nil
}

func (s *Store) checkDimension(vec []float32) error {
	if len(vec) != s.cfg.Dimension {
		return &vector.DimensionMismatchError{Want: s.cfg.Dimension, Got: len(vec)}
	}
	return nil
}

// Upsert inserts or fully replaces the point for p.ID.
func (s *Store) Upsert(ctx context.Context, p vector.Point) error {
	if err := s.ready("upsert"); err != nil {
		return err
	}
	if err := s.checkDimension(p.Vector); err != nil {
		return err
	}

	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         []*pb.PointStruct{pointStruct(p)},
	})
	if err != nil {
		return &vector.StoreError{Op: "upsert", Err: err}
	}
	return nil
}

// UpsertBatch stores points in chunks of BatchSize. Items with a bad
// dimension never leave the process; a failed chunk marks all of its ids
// failed without aborting the remaining chunks.
func (s *Store) UpsertBatch(ctx context.Context, points []vector.Point) error {
	if err := s.ready("upsert batch"); err != nil {
		return err
	}

	failed := make(map[int64]error)
	valid := make([]vector.Point, 0, len(points))
	for _, p := range points {
		if err := s.checkDimension(p.Vector); err != nil {
			failed[p.ID] = err
			continue
		}
		valid = append(valid, p)
	}

	for start := 0; start < len(valid); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(valid))
		chunk := valid[start:end]

		structs := make([]*pb.PointStruct, len(chunk))
		for i, p := range chunk {
			structs[i] = pointStruct(p)
		}

		_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: s.cfg.Collection,
			Points:         structs,
		})
		if err != nil {
			for _, p := range chunk {
				failed[p.ID] = &vector.StoreError{Op: "upsert batch", Err: err}
			}
		}
	}

	if len(failed) > 0 {
		return &vector.BatchError{Failed: failed}
	}
	return nil
}

// Search returns up to limit nearest neighbors ordered by similarity.
func (s *Store) Search(ctx context.Context, vec []float32, limit int, repoFilter string) ([]vector.Match, error) {
	if err := s.ready("search"); err != nil {
		return nil, err
	}
	if err := s.checkDimension(vec); err != nil {
		return nil, err
	}
	// uint64(limit) would wrap a negative value into a huge request.
	if limit <= 0 {
		return []vector.Match{}, nil
	}

	req := &pb.SearchPoints{
		CollectionName: s.cfg.Collection,
		Vector:         vec,
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if repoFilter != "" {
		req.Filter = &pb.Filter{
			Must: []*pb.Condition{{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key:   "repo_name",
						Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: repoFilter}},
					},
				},
			}},
		}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, &vector.StoreError{Op: "search", Err: err}
	}

	matches := make([]vector.Match, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		matches = append(matches, vector.Match{
			Record: recordFromPayload(hit.GetPayload()),
			Score:  hit.GetScore(),
		})
	}
	return matches, nil
}

// Get retrieves a single record by point id, or nil when absent.
func (s *Store) Get(ctx context.Context, id int64) (*pr.PullRequest, error) {
	if err := s.ready("get"); err != nil {
		return nil, err
	}

	resp, err := s.points.Get(ctx, &pb.GetPoints{
		CollectionName: s.cfg.Collection,
		Ids:            []*pb.PointId{pointID(id)},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, &vector.StoreError{Op: "get", Err: err}
	}
	if len(resp.GetResult()) == 0 {
		return nil, nil
	}

	rec := recordFromPayload(resp.GetResult()[0].GetPayload())
	return &rec, nil
}

// Delete removes one point. Missing ids are a no-op success.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.ready("delete"); err != nil {
		return err
	}

	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: []*pb.PointId{pointID(id)}},
			},
		},
	})
	if err != nil {
		return &vector.StoreError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteCollection drops the whole collection. Further operations require
// Initialize again.
func (s *Store) DeleteCollection(ctx context.Context) error {
	if err := s.ready("delete collection"); err != nil {
		return err
	}

	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.cfg.Collection})
	if err != nil {
		return &vector.StoreError{Op: "delete collection", Err: err}
	}

	s.initialized.Store(false)
	return nil
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func pointID(id int64) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(id)}}
}

func pointStruct(p vector.Point) *pb.PointStruct {
	return &pb.PointStruct{
		Id:      pointID(p.ID),
		Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
		Payload: payloadFromRecord(p.Record),
	}
}

var _ vector.Store = (*Store)(nil)
