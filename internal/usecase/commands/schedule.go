package commands

import (
	"context"
	"time"

	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/pkg/errs"
	"shuttle-booking/internal/usecase/shared"
)

type ScheduleCommands interface {
	// AddDate opens a single date for reservations.
	AddDate(ctx context.Context, d schedule.Date) error
	// RemoveDate closes a date unconditionally. Existing reservations on the
	// date are left in the ledger untouched.
	RemoveDate(ctx context.Context, d schedule.Date) error
	// BatchAddByWeekday opens every date in [start, end] whose weekday
	// matches and returns how many were actually added. Dates already open
	// are skipped silently.
	BatchAddByWeekday(ctx context.Context, start, end schedule.Date, weekday time.Weekday) (int, error)
}

type scheduleCommandsImpl struct {
	store shared.Store
}

func NewScheduleCommands(store shared.Store) ScheduleCommands {
	return &scheduleCommandsImpl{store: store}
}

func (c *scheduleCommandsImpl) AddDate(ctx context.Context, d schedule.Date) error {
	if d.IsZero() {
		return errs.Mark(schedule.ErrInvalidDate, errs.ErrInvalidInput)
	}

	if err := c.store.AddDate(ctx, d); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return errs.Mark(err, errs.ErrDateAlreadyExists)
		}
		return errs.Mark(err, errs.ErrStorageFailure)
	}
	return nil
}

func (c *scheduleCommandsImpl) RemoveDate(ctx context.Context, d schedule.Date) error {
	if d.IsZero() {
		return errs.Mark(schedule.ErrInvalidDate, errs.ErrInvalidInput)
	}

	if err := c.store.RemoveDate(ctx, d); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrDateNotFound)
		}
		return errs.Mark(err, errs.ErrStorageFailure)
	}
	return nil
}

func (c *scheduleCommandsImpl) BatchAddByWeekday(ctx context.Context, start, end schedule.Date, weekday time.Weekday) (int, error) {
	dates, err := schedule.DatesForWeekday(start, end, weekday)
	if err != nil {
		// Validation failure: nothing was touched.
		return 0, errs.Mark(err, errs.ErrInvalidDateRange)
	}

	added := 0
	for _, d := range dates {
		if err := c.store.AddDate(ctx, d); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				continue
			}
			return added, errs.Mark(err, errs.ErrStorageFailure)
		}
		added++
	}
	return added, nil
}
