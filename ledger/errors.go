/*
errors.go - Centralized error types for the ledger packages

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy mirrors how failures surface to the user:

  1. Validation errors - bad input, operation aborted, no state change
  2. Storage errors    - reads degrade to empty results with a logged
                         error; writes propagate to the caller
  3. Not-found errors  - referenced records that don't exist

USAGE:
  Callers branch with errors.Is:

    if errors.Is(err, ledger.ErrInvalidPeriod) {
        // 400 to the client
    }

SEE ALSO:
  - payroll/engine.go: wraps these with settlement-specific context
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrKeyNotFound is returned by Storage.Get for keys never written.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidPeriod is returned when a date range ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrNoWorkers is returned when a report targets a folder with no workers.
	ErrNoWorkers = errors.New("folder has no workers")

	// ErrNoDefaultRate is returned when the mandatory Default rate entry
	// is missing from the rate book.
	ErrNoDefaultRate = errors.New("no Default wage rate configured")

	// ErrAdvanceNotFound is returned when a referenced advance doesn't exist.
	ErrAdvanceNotFound = errors.New("advance not found")

	// ErrReportNotFound is returned when a referenced report artifact
	// doesn't exist.
	ErrReportNotFound = errors.New("report not found")

	// ErrDuplicateName is returned by registry CRUD when a name collides.
	ErrDuplicateName = errors.New("duplicate name")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RecordError describes a malformed persisted record. Rows failing
// validation at the storage boundary are dropped with a logged error
// rather than trusted.
type RecordError struct {
	Field  string
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid record: %s %s", e.Field, e.Reason)
}

// StorageError wraps a failure at the Storage boundary with the key and
// operation that hit it.
type StorageError struct {
	Op  string // "get", "set", "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a client-side input problem.
func IsValidation(err error) bool {
	var recErr *RecordError
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrNoWorkers) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.As(err, &recErr)
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrAdvanceNotFound) ||
		errors.Is(err, ErrReportNotFound)
}
