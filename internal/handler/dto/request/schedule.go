package request

import (
	"time"

	"shuttle-booking/internal/domain/schedule"
)

type AddDateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (r AddDateRequest) ParseDate() (schedule.Date, error) {
	return schedule.ParseDate(r.Date)
}

type BatchAddByWeekdayRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	// Weekday follows time.Weekday numbering: 0 is Sunday. Pointer so
	// Sunday still satisfies the required binding.
	Weekday *int `json:"weekday" binding:"required,min=0,max=6"`
}

func (r BatchAddByWeekdayRequest) ParseRange() (start, end schedule.Date, weekday time.Weekday, err error) {
	start, err = schedule.ParseDate(r.StartDate)
	if err != nil {
		return schedule.Date{}, schedule.Date{}, 0, err
	}
	end, err = schedule.ParseDate(r.EndDate)
	if err != nil {
		return schedule.Date{}, schedule.Date{}, 0, err
	}
	return start, end, time.Weekday(*r.Weekday), nil
}
