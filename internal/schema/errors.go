package schema

import (
	"errors"
	"fmt"
)

// ErrMalformedResult is wrapped by a DataSourceError when a partial result
// streamed back from the store cannot be read as field/type records.
var ErrMalformedResult = errors.New("malformed partial result")

// ErrAggregationUnsupported is returned when server mode is requested from a
// source that cannot run the aggregation itself.
var ErrAggregationUnsupported = errors.New("source does not support server-side aggregation")

// DataSourceError is a failure of the external document store. It aborts
// the run.
type DataSourceError struct {
	Op  string // estimate_count, sample, aggregate, stream
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

func sourceError(op string, err error) error {
	var dse *DataSourceError
	if errors.As(err, &dse) {
		return err
	}
	return &DataSourceError{Op: op, Err: err}
}

// MalformedDocumentError reports a sampled document that is not a
// field/value mapping. The document is treated as having an empty shape.
type MalformedDocumentError struct {
	Index  int
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("document %d is malformed: %s", e.Index, e.Reason)
}

// InvariantViolationError reports a completed shape that does not cover the
// global key set exactly. It always indicates a bug.
type InvariantViolationError struct {
	Field    string
	Expected int
	Got      int
}

func (e *InvariantViolationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema invariant violated: field %q outside the global key set", e.Field)
	}
	return fmt.Sprintf("schema invariant violated: completed shape has %d fields, key set has %d", e.Got, e.Expected)
}
