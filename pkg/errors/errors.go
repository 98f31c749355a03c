package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Enrollment lifecycle errors. Each carries the business-rule reason so the
// portal can surface it verbatim.
var (
	ErrAlreadyEnrolled        = New("ALREADY_ENROLLED", http.StatusConflict, "student already enrolled in class")
	ErrAlreadyCancelled       = New("ALREADY_CANCELLED", http.StatusConflict, "enrollment already cancelled")
	ErrClassFull              = New("CLASS_FULL", http.StatusConflict, "class has no remaining seats")
	ErrClassNotSameCourse     = New("CLASS_NOT_SAME_COURSE", http.StatusUnprocessableEntity, "target class belongs to a different course")
	ErrClassNotOpen           = New("CLASS_NOT_OPEN", http.StatusUnprocessableEntity, "class is not open for registration")
	ErrIneligibleReservation  = New("INELIGIBLE_RESERVATION", http.StatusUnprocessableEntity, "remaining sessions below the reservation minimum")
	ErrReservationNotApproved = New("RESERVATION_NOT_APPROVED", http.StatusUnprocessableEntity, "reservation has not been approved")
	ErrReservationExpired     = New("RESERVATION_EXPIRED", http.StatusUnprocessableEntity, "reservation has expired")
	ErrReservationUsed        = New("RESERVATION_ALREADY_USED", http.StatusConflict, "reservation has already been used")
	ErrNotEligibleToRetake    = New("NOT_ELIGIBLE_TO_RETAKE", http.StatusUnprocessableEntity, "enrollment is not eligible for a retake")
	ErrNotEligibleToChange    = New("NOT_ELIGIBLE_TO_CHANGE", http.StatusUnprocessableEntity, "enrollment is not eligible for a class change")
	ErrProviderUnavailable    = New("PROVIDER_UNAVAILABLE", http.StatusServiceUnavailable, "payment provider unavailable, try again later")
	ErrInsufficientBalance    = New("INSUFFICIENT_BALANCE", http.StatusUnprocessableEntity, "wallet balance is insufficient")
)

// ErrCacheMiss signals a cache lookup that found nothing. It is a plain
// sentinel, not an HTTP error.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
