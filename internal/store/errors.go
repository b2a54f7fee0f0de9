package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("student not found")

// ErrUnknownColumn reports a column name that is not in the schema.
var ErrUnknownColumn = errors.New("unknown column")

// NotFoundError reports a lookup or delete for an absent id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no student found with id %q", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// WriteError reports a failed write to the roster file. The file on disk is
// left as it was before the write.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
