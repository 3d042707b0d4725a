package reservation

// Daily shuttle capacity. Both ceilings hold independently: a date can be
// seat-full with fewer than PatientLimit patients when family members ride
// along, and patient-full with seats to spare.
const (
	PatientLimit = 4
	SeatLimit    = 6
)

// CapacitySnapshot is the derived per-date occupancy, recomputed from the
// full ledger on every read. Recomputing instead of keeping incremental
// counters removes a second source of drift.
type CapacitySnapshot struct {
	PatientCount int
	TotalSeats   int
}

func SnapshotOf(reservations []*Reservation) CapacitySnapshot {
	snap := CapacitySnapshot{}
	for _, r := range reservations {
		snap.PatientCount++
		snap.TotalSeats += r.SeatsNeeded()
	}
	return snap
}

func (s CapacitySnapshot) RemainingSeats() int {
	remaining := SeatLimit - s.TotalSeats
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s CapacitySnapshot) PatientsFull() bool {
	return s.PatientCount >= PatientLimit
}

// HasSeatsFor reports whether a party needing the given seats still fits
// under the seat ceiling.
func (s CapacitySnapshot) HasSeatsFor(seats int) bool {
	return s.TotalSeats+seats <= SeatLimit
}
