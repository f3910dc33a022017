// Package error defines domain-specific errors for the dashboard summary service.
package error

import "errors"

// Dashboard domain errors.
var (
	// ErrInvalidIdentifier is returned when the caller's user ID is not a valid record key.
	ErrInvalidIdentifier = errors.New("invalid user id")

	// ErrStoreUnavailable is returned when any query against the data store fails.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DashboardErrorCode defines error codes for dashboard errors.
// Format: DSH-XXYYYY where XX is category and YYYY is specific error.
type DashboardErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidIdentifier DashboardErrorCode = "DSH-010007"

	// Internal errors (99XXXX)
	ErrCodeStoreUnavailable DashboardErrorCode = "DSH-990002"
)

// Stage names the step of the summary pipeline where an error happened.
type Stage string

const (
	StageValidate         Stage = "validate"
	StageAggregateIncome  Stage = "aggregate_income"
	StageAggregateExpense Stage = "aggregate_expense"
	StageRecentActivity   Stage = "recent_activity"
)

// DashboardError represents a dashboard error with code and message.
type DashboardError struct {
	Code    DashboardErrorCode
	Message string
	Stage   Stage
	Err     error
}

// Error implements the error interface.
func (e *DashboardError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *DashboardError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error code, so callers can use
// errors.Is(err, ErrStoreUnavailable) without caring about the wrapped store error.
func (e *DashboardError) Is(target error) bool {
	switch e.Code {
	case ErrCodeInvalidIdentifier:
		return target == ErrInvalidIdentifier
	case ErrCodeStoreUnavailable:
		return target == ErrStoreUnavailable
	}
	return false
}

// NewInvalidIdentifierError creates the error returned for a malformed user ID.
func NewInvalidIdentifierError() *DashboardError {
	return &DashboardError{
		Code:    ErrCodeInvalidIdentifier,
		Message: "Invalid User ID",
		Stage:   StageValidate,
	}
}

// NewStoreUnavailableError wraps a store failure that happened during stage.
func NewStoreUnavailableError(stage Stage, err error) *DashboardError {
	return &DashboardError{
		Code:    ErrCodeStoreUnavailable,
		Message: "store query failed",
		Stage:   stage,
		Err:     err,
	}
}
