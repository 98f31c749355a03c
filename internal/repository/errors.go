package repository

import "errors"

// Sentinel errors raised by transactional guards. They are re-checked under
// row locks, so services translate them into domain errors after their own
// friendlier pre-checks.
var (
	// ErrNoSeat is returned when the locked capacity check finds the class full.
	ErrNoSeat = errors.New("class capacity exhausted")
	// ErrReservationConsumed is returned when a reservation was marked used
	// by a concurrent request.
	ErrReservationConsumed = errors.New("reservation already consumed")
	// ErrReservationUnavailable is returned when a locked reservation is not
	// in an approved, unexpired state.
	ErrReservationUnavailable = errors.New("reservation not available")
	// ErrInsufficientFunds is returned when a wallet debit would drive the
	// balance negative.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	// ErrEnrollmentNotStudying is returned when the locked enrollment row is
	// no longer STUDYING at write time.
	ErrEnrollmentNotStudying = errors.New("enrollment is not studying")
)
