package request

import (
	"shuttle-booking/internal/domain/schedule"
)

type AdmitReservationRequest struct {
	Date        string `json:"date" binding:"required"`
	MRN         string `json:"mrn" binding:"required"`
	PatientName string `json:"patientName" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	// Pointer so a literal 0 still satisfies the required binding.
	FamilyCount *int `json:"familyCount" binding:"required"`
}

func (r AdmitReservationRequest) ParseDate() (schedule.Date, error) {
	return schedule.ParseDate(r.Date)
}

type CancelReservationRequest struct {
	MRN   string `json:"mrn" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}
