package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/pkg/clock"
	"shuttle-booking/internal/pkg/errs"
	"shuttle-booking/internal/usecase/shared"
)

// SeatQuotaError carries the seat arithmetic of a rejected admission so the
// caller can render it. It is always marked with errs.ErrSeatQuotaExceeded.
type SeatQuotaError struct {
	RemainingSeats int
	NeededSeats    int
}

func (e *SeatQuotaError) Error() string {
	return fmt.Sprintf("not enough seats: %d remaining, %d needed", e.RemainingSeats, e.NeededSeats)
}

type AdmitParams struct {
	Date        schedule.Date
	MRN         string
	PatientName string
	Phone       string
	FamilyCount int
}

type ReservationCommands interface {
	// Admit decides whether a new reservation may enter the ledger and, on
	// success, appends it. Every failure is a typed sentinel; no partial
	// mutation happens on rejection.
	Admit(ctx context.Context, params AdmitParams) (*reservation.Reservation, error)
	// Cancel removes every reservation matching the credential pair, across
	// all dates, and returns the number removed.
	Cancel(ctx context.Context, mrn, phone string) (int64, error)
}

type reservationCommandsImpl struct {
	store shared.Store
	clock clock.Clock
}

func NewReservationCommands(store shared.Store, clock clock.Clock) ReservationCommands {
	return &reservationCommandsImpl{
		store: store,
		clock: clock,
	}
}

// Admit runs the full rule chain against a consistent ledger read for the
// target date. The guards run cheapest first: open-date membership, then the
// duplicate check, then the patient ceiling, then the seat arithmetic. Both
// ceilings are independent; a date can be seat-full with fewer than four
// patients.
func (c *reservationCommandsImpl) Admit(ctx context.Context, params AdmitParams) (*reservation.Reservation, error) {
	res, err := reservation.NewReservation(
		params.Date,
		params.MRN,
		params.PatientName,
		params.Phone,
		params.FamilyCount,
		c.clock.Now(),
	)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	err = c.store.WithinDate(ctx, params.Date, func(ctx context.Context, tx shared.Tx) error {
		open, err := tx.HasDate(ctx, params.Date)
		if err != nil {
			return errs.Mark(err, errs.ErrStorageFailure)
		}
		if !open {
			return errs.ErrDateNotAvailable
		}

		existing, err := tx.FindByPatientAndDate(ctx, params.Date, res.MRN().String())
		if err != nil {
			return errs.Mark(err, errs.ErrStorageFailure)
		}
		if existing != nil {
			return errs.ErrDuplicateBooking
		}

		ledger, err := tx.ListByDate(ctx, params.Date)
		if err != nil {
			return errs.Mark(err, errs.ErrStorageFailure)
		}
		snap := reservation.SnapshotOf(ledger)

		if snap.PatientsFull() {
			return errs.ErrPatientQuotaExceeded
		}

		needed := res.SeatsNeeded()
		if !snap.HasSeatsFor(needed) {
			quotaErr := &SeatQuotaError{
				RemainingSeats: snap.RemainingSeats(),
				NeededSeats:    needed,
			}
			return errs.Mark(quotaErr, errs.ErrSeatQuotaExceeded)
		}

		if insertErr := tx.Insert(ctx, res); insertErr != nil {
			// The unique index closes the race window on backends that
			// cannot serialize the whole check-then-act sequence.
			if infra.IsKind(insertErr, infra.KindDuplicateKey) {
				return errs.ErrDuplicateBooking
			}
			return errs.Mark(insertErr, errs.ErrStorageFailure)
		}
		return nil
	})
	if err != nil {
		return nil, mapAdmissionError(err)
	}

	return res, nil
}

func (c *reservationCommandsImpl) Cancel(ctx context.Context, mrn, phone string) (int64, error) {
	mrn = strings.TrimSpace(mrn)
	phone = strings.TrimSpace(phone)
	if mrn == "" || phone == "" {
		return 0, errs.ErrInvalidInput
	}

	deleted, err := c.store.DeleteByCredential(ctx, mrn, phone)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrStorageFailure)
	}
	if deleted == 0 {
		return 0, errs.ErrReservationNotFound
	}
	return deleted, nil
}

// mapAdmissionError separates rule verdicts from infrastructure trouble.
// A storage failure must never masquerade as a capacity decision.
func mapAdmissionError(err error) error {
	switch {
	case errors.Is(err, errs.ErrDateNotAvailable),
		errors.Is(err, errs.ErrDuplicateBooking),
		errors.Is(err, errs.ErrPatientQuotaExceeded),
		errors.Is(err, errs.ErrSeatQuotaExceeded),
		errors.Is(err, errs.ErrStorageFailure):
		return err
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(err, errs.ErrConcurrencyConflict)
	default:
		return errs.Mark(err, errs.ErrStorageFailure)
	}
}
