package response

import (
	"time"

	"shuttle-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	MRN         string    `json:"mrn"`
	PatientName string    `json:"patientName"`
	Phone       string    `json:"phone"`
	FamilyCount int       `json:"familyCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type DayLedgerResponse struct {
	Date         string                `json:"date"`
	Reservations []ReservationResponse `json:"reservations"`
	Capacity     CapacityResponse      `json:"capacity"`
}

type CapacityResponse struct {
	Date           string `json:"date"`
	PatientCount   int    `json:"patientCount"`
	PatientLimit   int    `json:"patientLimit"`
	TotalSeats     int    `json:"totalSeats"`
	SeatLimit      int    `json:"seatLimit"`
	RemainingSeats int    `json:"remainingSeats"`
}

type CancelResponse struct {
	Deleted int64 `json:"deleted"`
}

func FromReservationView(v queries.ReservationView) ReservationResponse {
	return ReservationResponse{
		ID:          v.ID,
		Date:        v.Date.String(),
		MRN:         v.MRN,
		PatientName: v.PatientName,
		Phone:       v.Phone,
		FamilyCount: v.FamilyCount,
		CreatedAt:   v.CreatedAt,
	}
}

func FromDayLedgerView(v *queries.DayLedgerView) DayLedgerResponse {
	reservations := make([]ReservationResponse, len(v.Reservations))
	for i, r := range v.Reservations {
		reservations[i] = FromReservationView(r)
	}
	return DayLedgerResponse{
		Date:         v.Date.String(),
		Reservations: reservations,
		Capacity:     FromCapacityView(&v.Capacity),
	}
}

func FromCapacityView(v *queries.CapacityView) CapacityResponse {
	return CapacityResponse{
		Date:           v.Date.String(),
		PatientCount:   v.PatientCount,
		PatientLimit:   v.PatientLimit,
		TotalSeats:     v.TotalSeats,
		SeatLimit:      v.SeatLimit,
		RemainingSeats: v.RemainingSeats,
	}
}
