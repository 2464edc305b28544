package engine

import (
	"errors"
	"fmt"
)

// The engine surfaces four error kinds at the operation boundary.
// All carry a machine-readable kind plus a human-readable message and
// match with errors.As. ConflictAdvisory is not among them: advisories
// ride on successful retrieval results.

// ValidationError reports malformed, oversized or empty input. It names
// the offending field and is never worth retrying.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// NotFoundError reports a referenced id that does not exist.
type NotFoundError struct {
	Entity string // "task context" or "artifact"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %s", e.Entity, e.ID)
}

// ReferentialError reports an operation that violates a foreign
// relationship, such as creating an artifact under an archived context.
type ReferentialError struct {
	Message string
}

func (e *ReferentialError) Error() string {
	return "referential error: " + e.Message
}

// StorageError reports a failure of the persistence layer itself. The
// enclosing transaction has been rolled back: no partial writes survive,
// so re-issuing the operation is safe.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// isDomainErr reports whether err already carries one of the engine's
// error kinds, so transaction helpers don't re-wrap it as StorageError.
func isDomainErr(err error) bool {
	var ve *ValidationError
	var nf *NotFoundError
	var re *ReferentialError
	var se *StorageError
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &re) || errors.As(err, &se)
}
