/*
errors.go - Centralized error types

PURPOSE:
  All sentinel errors in one place. The calculation functions themselves
  never return errors - expected business variation (missing times, unset
  optional settings) is represented by nil/zero defaults. These errors
  belong to the storage contract and its callers.

USAGE:
  The API layer maps these to HTTP statuses:

    if tracking.IsNotFound(err) { ... 404 ... }
    if errors.Is(err, tracking.ErrDuplicateDate) { ... 409 ... }
*/
package tracking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("time record not found")

	// ErrSettingsNotFound is returned when a user has no settings row yet.
	ErrSettingsNotFound = errors.New("account settings not found")

	// ErrDuplicateDate is returned when a write would create a second record
	// for the same (user, date). This enforces the one-record-per-day invariant.
	ErrDuplicateDate = errors.New("record already exists for this date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateDateError reports which day already has a record.
type DuplicateDateError struct {
	UserID int64
	Date   Date
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("record already exists for user %d on %s", e.UserID, e.Date)
}

func (e *DuplicateDateError) Unwrap() error { return ErrDuplicateDate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrSettingsNotFound)
}

// IsConflict returns true if the error is a one-record-per-day violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateDate)
}
