package queries

import (
	"context"

	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/pkg/clock"
	"shuttle-booking/internal/pkg/errs"
	"shuttle-booking/internal/usecase/shared"
)

type ScheduleQueries interface {
	// ListDates returns every open date, ascending, including past ones.
	ListDates(ctx context.Context) ([]schedule.Date, error)
	// ListUpcomingDates filters out dates before today; this is what the
	// public booking surface shows.
	ListUpcomingDates(ctx context.Context) ([]schedule.Date, error)
}

type scheduleQueriesImpl struct {
	store shared.Store
	clock clock.Clock
}

func NewScheduleQueries(store shared.Store, clock clock.Clock) ScheduleQueries {
	return &scheduleQueriesImpl{
		store: store,
		clock: clock,
	}
}

func (q *scheduleQueriesImpl) ListDates(ctx context.Context) ([]schedule.Date, error) {
	dates, err := q.store.ListDates(ctx)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageFailure)
	}
	return dates, nil
}

func (q *scheduleQueriesImpl) ListUpcomingDates(ctx context.Context) ([]schedule.Date, error) {
	dates, err := q.store.ListDates(ctx)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageFailure)
	}

	today := schedule.NewDate(q.clock.Now())
	upcoming := make([]schedule.Date, 0, len(dates))
	for _, d := range dates {
		if !d.Before(today) {
			upcoming = append(upcoming, d)
		}
	}
	return upcoming, nil
}
