//go:build unit

package queries_test

import (
	"context"
	"testing"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra/memstore"
	"shuttle-booking/internal/usecase/queries"
	"shuttle-booking/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReservation(t *testing.T, store *memstore.Store, date schedule.Date, mrn string, familyCount int) {
	t.Helper()
	r, err := reservation.NewReservation(date, mrn, "Patient "+mrn, "0911-"+mrn, familyCount, testNow)
	require.NoError(t, err)
	err = store.WithinDate(context.Background(), date, func(ctx context.Context, tx shared.Tx) error {
		return tx.Insert(ctx, r)
	})
	require.NoError(t, err)
}

func TestListByDate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	q := queries.NewReservationQueries(store)
	date := mustDate(t, "2026-03-05")

	seedReservation(t, store, date, "MRN-1", 1)
	seedReservation(t, store, date, "MRN-2", 0)

	ledger, err := q.ListByDate(ctx, date)
	require.NoError(t, err)

	assert.True(t, ledger.Date.Equal(date))
	require.Len(t, ledger.Reservations, 2)

	expected := queries.ReservationView{
		ID:          ledger.Reservations[0].ID,
		Date:        date,
		MRN:         "MRN-1",
		PatientName: "Patient MRN-1",
		Phone:       "0911-MRN-1",
		FamilyCount: 1,
		CreatedAt:   testNow,
	}
	if diff := cmp.Diff(expected, ledger.Reservations[0], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("ReservationView mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "MRN-2", ledger.Reservations[1].MRN)

	assert.Equal(t, 2, ledger.Capacity.PatientCount)
	assert.Equal(t, 3, ledger.Capacity.TotalSeats)
	assert.Equal(t, 3, ledger.Capacity.RemainingSeats)
}

func TestCapacityFor(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	q := queries.NewReservationQueries(store)
	date := mustDate(t, "2026-03-05")

	t.Run("empty date reports full availability", func(t *testing.T) {
		view, err := q.CapacityFor(ctx, date)
		require.NoError(t, err)
		assert.Zero(t, view.PatientCount)
		assert.Zero(t, view.TotalSeats)
		assert.Equal(t, reservation.PatientLimit, view.PatientLimit)
		assert.Equal(t, reservation.SeatLimit, view.SeatLimit)
		assert.Equal(t, reservation.SeatLimit, view.RemainingSeats)
	})

	t.Run("counters derive from the ledger", func(t *testing.T) {
		seedReservation(t, store, date, "MRN-1", 1)
		seedReservation(t, store, date, "MRN-2", 1)

		view, err := q.CapacityFor(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, 2, view.PatientCount)
		assert.Equal(t, 4, view.TotalSeats)
		assert.Equal(t, 2, view.RemainingSeats)
	})
}
