package vector

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigurationError reports a missing or invalid construction parameter.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("vector store configuration: missing or invalid %s", e.Field)
}

// ConnectionError reports an unreachable or uninitialized store. Mutating
// and search operations on an uninitialized store fail fast with this.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("vector store %s: store not initialized", e.Op)
	}
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a vector whose length disagrees with the
// collection's configured dimension.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: collection expects %d, got %d", e.Want, e.Got)
}

// StoreError reports a remote-side failure on a well-formed request.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// BatchError collects per-item failures from a batch upsert. Items not
// listed were stored successfully.
type BatchError struct {
	Failed map[int64]error
}

func (e *BatchError) Error() string {
	ids := make([]int64, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("#%d: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("batch upsert: %d item(s) failed: %s", len(ids), strings.Join(parts, "; "))
}
