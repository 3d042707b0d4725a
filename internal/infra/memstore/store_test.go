//go:build unit

package memstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/infra/memstore"
	"shuttle-booking/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newReservation(t *testing.T, date schedule.Date, mrn, phone string, familyCount int) *reservation.Reservation {
	t.Helper()
	r, err := reservation.NewReservation(date, mrn, "Patient "+mrn, phone, familyCount, testNow)
	require.NoError(t, err)
	return r
}

func insert(t *testing.T, store *memstore.Store, r *reservation.Reservation) {
	t.Helper()
	err := store.WithinDate(context.Background(), r.Date(), func(ctx context.Context, tx shared.Tx) error {
		return tx.Insert(ctx, r)
	})
	require.NoError(t, err)
}

func TestDateRegistry(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	d1 := mustDate(t, "2026-03-12")
	d2 := mustDate(t, "2026-03-05")

	require.NoError(t, store.AddDate(ctx, d1))
	require.NoError(t, store.AddDate(ctx, d2))

	t.Run("duplicate add reports duplicate key", func(t *testing.T) {
		err := store.AddDate(ctx, d1)
		assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
	})

	t.Run("list is chronological", func(t *testing.T) {
		dates, err := store.ListDates(ctx)
		require.NoError(t, err)
		require.Len(t, dates, 2)
		assert.Equal(t, "2026-03-05", dates[0].String())
		assert.Equal(t, "2026-03-12", dates[1].String())
	})

	t.Run("has and remove", func(t *testing.T) {
		ok, err := store.HasDate(ctx, d1)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, store.RemoveDate(ctx, d1))

		ok, err = store.HasDate(ctx, d1)
		require.NoError(t, err)
		assert.False(t, ok)

		err = store.RemoveDate(ctx, d1)
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

func TestLedgerInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	date := mustDate(t, "2026-03-05")

	insert(t, store, newReservation(t, date, "MRN-1", "0911", 0))
	insert(t, store, newReservation(t, date, "MRN-2", "0922", 1))
	insert(t, store, newReservation(t, date, "MRN-3", "0933", 0))

	rows, err := store.ListByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "MRN-1", rows[0].MRN().String())
	assert.Equal(t, "MRN-2", rows[1].MRN().String())
	assert.Equal(t, "MRN-3", rows[2].MRN().String())
}

func TestFindByPatientAndDate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	date := mustDate(t, "2026-03-05")
	other := mustDate(t, "2026-03-12")

	insert(t, store, newReservation(t, date, "MRN-1", "0911", 0))

	found, err := store.FindByPatientAndDate(ctx, date, "MRN-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "MRN-1", found.MRN().String())

	missing, err := store.FindByPatientAndDate(ctx, other, "MRN-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDuplicateInsertRejected(t *testing.T) {
	store := memstore.New()
	date := mustDate(t, "2026-03-05")

	insert(t, store, newReservation(t, date, "MRN-1", "0911", 0))

	err := store.WithinDate(context.Background(), date, func(ctx context.Context, tx shared.Tx) error {
		return tx.Insert(ctx, newReservation(t, date, "MRN-1", "0999", 0))
	})
	assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
}

func TestDeleteByCredential(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	d1 := mustDate(t, "2026-03-05")
	d2 := mustDate(t, "2026-03-12")

	// Same credential on two dates, plus an unrelated row.
	insert(t, store, newReservation(t, d1, "MRN-1", "0911", 0))
	insert(t, store, newReservation(t, d2, "MRN-1", "0911", 1))
	insert(t, store, newReservation(t, d1, "MRN-2", "0922", 0))

	t.Run("removes every matching row across dates", func(t *testing.T) {
		deleted, err := store.DeleteByCredential(ctx, "MRN-1", "0911")
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		rows, err := store.ListByDate(ctx, d1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "MRN-2", rows[0].MRN().String())
	})

	t.Run("both credentials must match", func(t *testing.T) {
		deleted, err := store.DeleteByCredential(ctx, "MRN-2", "wrong-phone")
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func TestWithinDateSerializesWriters(t *testing.T) {
	store := memstore.New()
	date := mustDate(t, "2026-03-05")
	ctx := context.Background()
	require.NoError(t, store.AddDate(ctx, date))

	// Fifty writers race check-then-act on the same date; the per-date lock
	// must make each snapshot consistent so exactly SeatLimit solo patients
	// get through the seat check.
	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			mrn := "MRN-" + string(rune('A'+n%26)) + string(rune('a'+n/26))
			_ = store.WithinDate(ctx, date, func(ctx context.Context, tx shared.Tx) error {
				ledger, err := tx.ListByDate(ctx, date)
				if err != nil {
					return err
				}
				if !reservation.SnapshotOf(ledger).HasSeatsFor(1) {
					return nil
				}
				r, err := reservation.NewReservation(date, mrn, "Patient "+mrn, "0911", 0, testNow)
				if err != nil {
					return err
				}
				return tx.Insert(ctx, r)
			})
		}(i)
	}
	wg.Wait()

	rows, err := store.ListByDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, rows, reservation.SeatLimit)
}

func TestWithinDateCanceledContext(t *testing.T) {
	store := memstore.New()
	date := mustDate(t, "2026-03-05")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.WithinDate(ctx, date, func(_ context.Context, _ shared.Tx) error {
		t.Fatal("fn must not run after cancellation")
		return nil
	})
	assert.True(t, infra.IsKind(err, infra.KindTimeout))
}
