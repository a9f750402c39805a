package db

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrConcurrentModification means another transaction changed the same order
// first. The caller may reload and retry with the same input.
var ErrConcurrentModification = errors.New("concurrent modification, retry")

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// Classify maps driver errors that signal a lost race onto
// ErrConcurrentModification and returns every other error unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return fmt.Errorf("%w: %s", ErrConcurrentModification, pqErr.Message)
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique violation on the named
// constraint (any constraint when name is empty).
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
