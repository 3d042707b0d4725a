package queries

import (
	"context"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/pkg/errs"
	"shuttle-booking/internal/usecase/shared"
)

type ReservationQueries interface {
	// ListByDate returns the day's ledger in insertion order together with
	// the derived capacity counters (the admin sidebar view).
	ListByDate(ctx context.Context, d schedule.Date) (*DayLedgerView, error)
	// CapacityFor returns only the counters; the public availability
	// preview uses this without exposing other patients' rows.
	CapacityFor(ctx context.Context, d schedule.Date) (*CapacityView, error)
}

type reservationQueriesImpl struct {
	store shared.Store
}

func NewReservationQueries(store shared.Store) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) ListByDate(ctx context.Context, d schedule.Date) (*DayLedgerView, error) {
	ledger, err := q.store.ListByDate(ctx, d)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageFailure)
	}

	views := make([]ReservationView, len(ledger))
	for i, r := range ledger {
		views[i] = toReservationView(r)
	}

	return &DayLedgerView{
		Date:         d,
		Reservations: views,
		Capacity:     toCapacityView(d, reservation.SnapshotOf(ledger)),
	}, nil
}

func (q *reservationQueriesImpl) CapacityFor(ctx context.Context, d schedule.Date) (*CapacityView, error) {
	ledger, err := q.store.ListByDate(ctx, d)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageFailure)
	}

	view := toCapacityView(d, reservation.SnapshotOf(ledger))
	return &view, nil
}
