// Package schedule holds the open-date domain: the calendar dates on which
// shuttle reservations may currently be submitted.
package schedule

import (
	"encoding/json"
	"errors"
	"time"
)

const Layout = "2006-01-02"

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("start date must not be after end date")
)

// Date is a calendar day. The wall-clock part is always normalized away so
// two Dates compare equal iff they name the same day.
type Date struct {
	t time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t), nil
}

func (d Date) Time() time.Time        { return d.t }
func (d Date) String() string         { return d.t.Format(Layout) }
func (d Date) Weekday() time.Weekday  { return d.t.Weekday() }
func (d Date) IsZero() bool           { return d.t.IsZero() }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }

func (d Date) AddDays(n int) Date {
	return NewDate(d.t.AddDate(0, 0, n))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DatesForWeekday expands [start, end] to the dates whose weekday matches.
// The range is inclusive on both ends.
func DatesForWeekday(start, end Date, weekday time.Weekday) ([]Date, error) {
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	var dates []Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		if d.Weekday() == weekday {
			dates = append(dates, d)
		}
	}
	return dates, nil
}
