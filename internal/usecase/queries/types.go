package queries

import (
	"time"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"

	"github.com/google/uuid"
)

// Read-side views returned to the presentation layer (no domain entities
// cross the usecase boundary)
type ReservationView struct {
	ID          uuid.UUID
	Date        schedule.Date
	MRN         string
	PatientName string
	Phone       string
	FamilyCount int
	CreatedAt   time.Time
}

type DayLedgerView struct {
	Date         schedule.Date
	Reservations []ReservationView
	Capacity     CapacityView
}

type CapacityView struct {
	Date           schedule.Date
	PatientCount   int
	PatientLimit   int
	TotalSeats     int
	SeatLimit      int
	RemainingSeats int
}

func toReservationView(r *reservation.Reservation) ReservationView {
	return ReservationView{
		ID:          r.ID(),
		Date:        r.Date(),
		MRN:         r.MRN().String(),
		PatientName: r.PatientName().String(),
		Phone:       r.Phone().String(),
		FamilyCount: r.FamilyCount().Int(),
		CreatedAt:   r.CreatedAt(),
	}
}

func toCapacityView(d schedule.Date, snap reservation.CapacitySnapshot) CapacityView {
	return CapacityView{
		Date:           d,
		PatientCount:   snap.PatientCount,
		PatientLimit:   reservation.PatientLimit,
		TotalSeats:     snap.TotalSeats,
		SeatLimit:      reservation.SeatLimit,
		RemainingSeats: snap.RemainingSeats(),
	}
}
