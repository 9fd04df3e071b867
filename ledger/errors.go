/*
errors.go - Centralized error types for the sales tracker

PURPOSE:
  All error categories in one place for consistency and discoverability.
  Domain packages wrap these with additional context; the interaction layer
  maps them onto user-facing replies.

ERROR CATEGORIES:
  1. Access errors    - Wrong channel, missing privileges
  2. Validation errors - Rejected user input
  3. Identity errors  - Invoker not resolvable to a rep identity
  4. Store errors     - Spreadsheet backend failures
  5. Session errors   - Capture flow expired or missing

USAGE:
  Callers branch with errors.Is():

    if errors.Is(err, ledger.ErrStoreUnavailable) {
        // tell the user the sheet is unreachable, keep their session
    }

SEE ALSO:
  - store.go:       returns store errors
  - wizard package: returns session and validation errors
  - bot package:    maps all of these onto interaction replies
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
	// ErrAccessDenied is returned when a command arrives from a channel it
	// is not allowed in, or from a user without the required privileges.
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation is returned when user input is rejected. The reply goes
	// only to the invoker; nothing is persisted.
	ErrValidation = errors.New("validation failed")

	// ErrIdentityUnresolved is returned when the invoker cannot be resolved
	// to a rep identity and the operation requires one.
	ErrIdentityUnresolved = errors.New("identity unresolved")

	// ErrStoreUnavailable is returned when the spreadsheet backend cannot be
	// reached or rejects a call. Expected to succeed on retry.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrSessionExpired is returned when a capture step arrives after the
	// session idle deadline has passed.
	ErrSessionExpired = errors.New("capture session expired")

	// ErrNoSession is returned when a capture step arrives with no live
	// session at all, for example after a restart.
	ErrNoSession = errors.New("no capture session")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string // e.g. "customer", "count", "isp"
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StoreError wraps a spreadsheet backend failure with the attempted
// operation.
type StoreError struct {
	Op  string // "append" or "read"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return ErrStoreUnavailable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUserError returns true if the error is caused by the invoker and should
// be reported back privately rather than logged as a system failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrIdentityUnresolved) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrNoSession)
}

// IsRetryable returns true if the error might succeed on retry without any
// change from the user.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
