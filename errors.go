package fundledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ledger's closed failure taxonomy.
var (
	ErrNotAuthorized                     = errors.New("fundledger: not authorized")
	ErrCauseNotFound                     = errors.New("fundledger: cause not found")
	ErrCauseNotActive                    = errors.New("fundledger: cause is not active")
	ErrInsufficientFunds                 = errors.New("fundledger: insufficient funds")
	ErrWithdrawalRequestNotFound         = errors.New("fundledger: withdrawal request not found")
	ErrWithdrawalRequestAlreadyProcessed = errors.New("fundledger: withdrawal request already processed")

	// Lifecycle errors
	ErrAlreadyInitialized = errors.New("fundledger: already initialized")
	ErrNotInitialized     = errors.New("fundledger: not initialized")

	// Input and arithmetic errors
	ErrInvalidInput   = errors.New("fundledger: invalid input")
	ErrAmountOverflow = errors.New("fundledger: amount overflow")
	ErrIDExhausted    = errors.New("fundledger: id space exhausted")

	// Store errors
	ErrNotFound             = errors.New("fundledger: not found")
	ErrContributionNotFound = errors.New("fundledger: contribution not found")
	ErrAlreadyExists        = errors.New("fundledger: already exists")
	ErrStoreClosed          = errors.New("fundledger: store is closed")
)

// Numeric codes of the core taxonomy, stable across releases.
const (
	CodeNone                              = 0
	CodeNotAuthorized                     = 1
	CodeCauseNotFound                     = 2
	CodeCauseNotActive                    = 3
	CodeInsufficientFunds                 = 4
	CodeWithdrawalRequestNotFound         = 5
	CodeWithdrawalRequestAlreadyProcessed = 6
	CodeOther                             = -1
)

// Code maps err onto the numeric code of the core taxonomy. nil maps to
// CodeNone and errors outside the taxonomy to CodeOther.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrNotAuthorized):
		return CodeNotAuthorized
	case errors.Is(err, ErrCauseNotFound):
		return CodeCauseNotFound
	case errors.Is(err, ErrCauseNotActive):
		return CodeCauseNotActive
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrWithdrawalRequestNotFound):
		return CodeWithdrawalRequestNotFound
	case errors.Is(err, ErrWithdrawalRequestAlreadyProcessed):
		return CodeWithdrawalRequestAlreadyProcessed
	default:
		return CodeOther
	}
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("fundledger: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "fundledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("fundledger: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the wrapped errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCauseNotFound) ||
		errors.Is(err, ErrContributionNotFound) ||
		errors.Is(err, ErrWithdrawalRequestNotFound)
}

// IsAuthorizationError returns true if the caller failed a proof of control
// or acted outside its role.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

// IsRejection returns true if err is a domain rejection that left the ledger
// unchanged, as opposed to an infrastructure failure.
func IsRejection(err error) bool {
	return Code(err) > CodeNone ||
		errors.Is(err, ErrAlreadyInitialized) ||
		errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrAmountOverflow) ||
		errors.Is(err, ErrIDExhausted)
}
