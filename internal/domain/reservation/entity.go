package reservation

import (
	"time"

	"shuttle-booking/internal/domain/schedule"

	"github.com/google/uuid"
)

type Reservation struct {
	id          uuid.UUID
	date        schedule.Date
	mrn         MRN
	patientName PatientName
	phone       Phone
	familyCount FamilyCount
	createdAt   time.Time
}

// NewReservation validates the boundary input and builds a reservation to be
// admitted. Capacity rules are not checked here; that is the admission
// engine's job against a consistent ledger read.
func NewReservation(
	date schedule.Date,
	mrn string,
	patientName string,
	phone string,
	familyCount int,
	now time.Time,
) (*Reservation, error) {
	if date.IsZero() {
		return nil, schedule.ErrInvalidDate
	}

	mrnVO, err := NewMRN(mrn)
	if err != nil {
		return nil, err
	}
	nameVO, err := NewPatientName(patientName)
	if err != nil {
		return nil, err
	}
	phoneVO, err := NewPhone(phone)
	if err != nil {
		return nil, err
	}
	familyVO, err := NewFamilyCount(familyCount)
	if err != nil {
		return nil, err
	}

	return &Reservation{
		id:          uuid.New(),
		date:        date,
		mrn:         mrnVO,
		patientName: nameVO,
		phone:       phoneVO,
		familyCount: familyVO,
		createdAt:   now,
	}, nil
}

// ReconstructReservation rehydrates a stored row. Storage adapters are the
// only callers; rows already passed boundary validation when admitted.
func ReconstructReservation(
	id uuid.UUID,
	date schedule.Date,
	mrn MRN,
	patientName PatientName,
	phone Phone,
	familyCount FamilyCount,
	createdAt time.Time,
) *Reservation {
	return &Reservation{
		id:          id,
		date:        date,
		mrn:         mrn,
		patientName: patientName,
		phone:       phone,
		familyCount: familyCount,
		createdAt:   createdAt,
	}
}

func (r *Reservation) ID() uuid.UUID            { return r.id }
func (r *Reservation) Date() schedule.Date      { return r.date }
func (r *Reservation) MRN() MRN                 { return r.mrn }
func (r *Reservation) PatientName() PatientName { return r.patientName }
func (r *Reservation) Phone() Phone             { return r.phone }
func (r *Reservation) FamilyCount() FamilyCount { return r.familyCount }
func (r *Reservation) CreatedAt() time.Time     { return r.createdAt }

// SeatsNeeded is the seats this reservation occupies: the patient plus any
// accompanying family member.
func (r *Reservation) SeatsNeeded() int { return r.familyCount.Seats() }

// MatchesCredential reports whether the cancellation credential pair matches
// this reservation exactly.
func (r *Reservation) MatchesCredential(mrn, phone string) bool {
	return r.mrn.String() == mrn && r.phone.String() == phone
}
