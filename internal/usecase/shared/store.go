package shared

import (
	"context"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
)

// Store is the persistence contract every backend implements. The engine
// depends on this interface only; consistency guarantees differ per backend
// and are documented on WithinDate.
type Store interface {
	// ListDates returns every open date in ascending order.
	ListDates(ctx context.Context) ([]schedule.Date, error)
	// AddDate inserts an open date; an already present date surfaces as a
	// DUPLICATE_KEY repository error.
	AddDate(ctx context.Context, d schedule.Date) error
	// RemoveDate deletes an open date unconditionally; reservations on the
	// date are neither cascaded nor protected. An absent date surfaces as a
	// NOT_FOUND repository error.
	RemoveDate(ctx context.Context, d schedule.Date) error
	// HasDate reports open-date membership.
	HasDate(ctx context.Context, d schedule.Date) (bool, error)

	// ListByDate returns the ledger for a date in insertion order.
	ListByDate(ctx context.Context, d schedule.Date) ([]*reservation.Reservation, error)
	// FindByPatientAndDate returns nil without error when no row matches.
	FindByPatientAndDate(ctx context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error)
	// DeleteByCredential removes every reservation matching the credential
	// pair exactly, across all dates, and returns the number removed.
	DeleteByCredential(ctx context.Context, mrn, phone string) (int64, error)

	// WithinDate runs fn atomically with respect to every other WithinDate
	// call for the same date. The check-then-act sequence of an admission
	// must run entirely inside fn, or two concurrent requests can both
	// observe spare capacity and both insert.
	//
	// Backends provide this as a serializable transaction with bounded
	// retry (postgres), a single-writer immediate transaction (sqlite), or
	// a per-date mutex (memory). Retry exhaustion surfaces as a CONFLICT
	// repository error.
	WithinDate(ctx context.Context, d schedule.Date, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the ledger view handed to a WithinDate callback. Reads observe a
// state no concurrent admission for the same date can invalidate before
// Insert commits.
type Tx interface {
	HasDate(ctx context.Context, d schedule.Date) (bool, error)
	ListByDate(ctx context.Context, d schedule.Date) ([]*reservation.Reservation, error)
	FindByPatientAndDate(ctx context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error)
	// Insert appends a reservation. Backends with a unique index on
	// (date, mrn) also surface duplicates here as DUPLICATE_KEY.
	Insert(ctx context.Context, r *reservation.Reservation) error
}
