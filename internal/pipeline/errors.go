package pipeline

import (
	"fmt"
	"strings"
)

// ValidationError identifies the fields of a record that failed validation.
type ValidationError struct {
	ID     int64
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pr #%d: invalid fields: %s", e.ID, strings.Join(e.Fields, ", "))
}

// ProcessingError wraps a lower-layer failure with the operation and the
// offending record's id for traceability.
type ProcessingError struct {
	ID  int64 // 0 for failures not tied to a single record
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("processing pr #%d: %s: %v", e.ID, e.Op, e.Err)
	}
	return fmt.Sprintf("processing: %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
