package extract

import (
	"errors"
	"fmt"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

var (
	ErrTaskNotCompleted = errors.New("task is not completed")
	ErrEmptyBatch       = errors.New("no paths to extract")
)

// NotFoundError means the path does not name an existing regular file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "File not found: " + e.Path
}

// BaseStatError means the file exists but could not be stat'ed.
type BaseStatError struct {
	Path string
	Err  error
}

func (e *BaseStatError) Error() string {
	return fmt.Sprintf("Failed to extract basic metadata: %v", e.Err)
}

func (e *BaseStatError) Unwrap() error { return e.Err }

// ProbeError is a content probe failure. It is recorded on the file's record
// as <namespace>_error and never aborts extraction.
type ProbeError struct {
	Probe     string
	Namespace models.Namespace
	Err       error
}

func (e *ProbeError) Error() string {
	return e.Err.Error()
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Field returns the error marker for the record.
func (e *ProbeError) Field() models.Field {
	return models.Field{Namespace: e.Namespace, Name: models.FieldError, Value: e.Error()}
}

// IsTerminal reports whether err prevented a record from being built.
func IsTerminal(err error) bool {
	var nf *NotFoundError
	var bs *BaseStatError
	return errors.As(err, &nf) || errors.As(err, &bs)
}
