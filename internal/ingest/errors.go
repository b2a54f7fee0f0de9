package ingest

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by ValidationError; match them with errors.Is.
var (
	ErrEmptyIdentifier = errors.New("cannot be empty")
	ErrDigitInName     = errors.New("cannot contain digits")
	ErrNotANumber      = errors.New("must be a number")
	ErrOutOfRange      = errors.New("must be between 0 and 100")
	ErrFieldCount      = errors.New("wrong number of fields")
)

// ValidationError reports a single field that violates its rule.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v (got %q)", e.Field, e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DuplicateIdentifierError reports a student id that is already taken.
type DuplicateIdentifierError struct {
	ID string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("student id %q already taken", e.ID)
}

// MalformedFileError reports a roster file that could not be opened or read.
// Loads that hit it yield zero valid records.
type MalformedFileError struct {
	Path string
	Err  error
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("cannot read roster %s: %v", e.Path, e.Err)
}

func (e *MalformedFileError) Unwrap() error { return e.Err }
