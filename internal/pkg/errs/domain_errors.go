package errs

import "errors"

// Domain-specific sentinel errors shared by the usecase layers
var (
	// Admission errors
	ErrInvalidInput         = errors.New("invalid reservation input")
	ErrDateNotAvailable     = errors.New("date is not open for reservations")
	ErrDuplicateBooking     = errors.New("patient already booked for this date")
	ErrPatientQuotaExceeded = errors.New("patient quota exceeded for this date")
	ErrSeatQuotaExceeded    = errors.New("seat quota exceeded for this date")

	// Cancellation errors
	ErrReservationNotFound = errors.New("no reservation matches the credential pair")

	// Open-date registry errors
	ErrDateAlreadyExists = errors.New("date is already open")
	ErrDateNotFound      = errors.New("date is not open")
	ErrInvalidDateRange  = errors.New("invalid date range")

	// Operation errors
	ErrConcurrencyConflict = errors.New("admission conflicted with concurrent requests")
	ErrStorageFailure      = errors.New("storage operation failed")
)
