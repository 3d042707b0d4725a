package reservation

import (
	"errors"
	"strings"
)

var (
	ErrInvalidMRN         = errors.New("medical record number is required")
	ErrInvalidPatientName = errors.New("patient name is required")
	ErrInvalidPhone       = errors.New("phone number is required")
	ErrInvalidFamilyCount = errors.New("family count must be 0 or 1")
)

// MRN is the medical record number identifying a patient. It is opaque to
// this system: uniqueness per date is the only rule attached to it.
type MRN struct {
	value string
}

func NewMRN(value string) (MRN, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return MRN{}, ErrInvalidMRN
	}
	return MRN{value: trimmed}, nil
}

func (m MRN) String() string { return m.value }
func (m MRN) IsZero() bool   { return m.value == "" }

type PatientName struct {
	value string
}

func NewPatientName(value string) (PatientName, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return PatientName{}, ErrInvalidPatientName
	}
	return PatientName{value: trimmed}, nil
}

func (n PatientName) String() string { return n.value }

// Phone forms the cancellation credential together with the MRN. No format
// check beyond non-empty: the original registry accepts free-form numbers.
type Phone struct {
	value string
}

func NewPhone(value string) (Phone, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Phone{}, ErrInvalidPhone
	}
	return Phone{value: trimmed}, nil
}

func (p Phone) String() string { return p.value }

// FamilyCount is the number of accompanying family members, at most one per
// patient. The original app only enforced this in its input widget; here it
// is a stored invariant.
type FamilyCount int

const MaxFamilyPerPatient = 1

func NewFamilyCount(n int) (FamilyCount, error) {
	if n < 0 || n > MaxFamilyPerPatient {
		return 0, ErrInvalidFamilyCount
	}
	return FamilyCount(n), nil
}

func (f FamilyCount) Int() int { return int(f) }

// Seats is the number of shuttle seats this party occupies.
func (f FamilyCount) Seats() int { return 1 + int(f) }
