package store

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing entity by kind and identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func errNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// VersionConflictError reports that a version-guarded mutation lost the race:
// the caller expected one version, the row held another.
type VersionConflictError struct {
	Expected int64
	Actual   int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected version %d but page is at version %d", e.Expected, e.Actual)
}

// IsVersionConflict reports whether err is a VersionConflictError, returning
// it when so.
func IsVersionConflict(err error) (*VersionConflictError, bool) {
	var vc *VersionConflictError
	if errors.As(err, &vc) {
		return vc, true
	}
	return nil, false
}

// InvalidInputError reports caller-supplied data the store refuses to write.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Msg)
}

func errInvalidInput(format string, args ...any) error {
	return &InvalidInputError{Msg: fmt.Sprintf(format, args...)}
}

// StorageError wraps a database failure, including constraint violations
// such as deleting a space that still holds pages.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func errStorage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IOError wraps a filesystem failure (database path creation and the like).
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error at %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
