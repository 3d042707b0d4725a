//go:build e2e

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/infra/postgres"
	"shuttle-booking/internal/pkg/config"
	"shuttle-booking/internal/usecase/shared"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testUser     = "test"
	testPassword = "testpass"
	testDBName   = "shuttle_test"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func startPostgres(t *testing.T) config.DBConfig {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
			"POSTGRES_DB":       testDBName,
		},
		Tmpfs: map[string]string{
			"/var/lib/postgresql/data": "rw,size=256m",
		},
		Cmd: []string{"postgres", "-c", "fsync=off", "-c", "synchronous_commit=off"},
		WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				testUser, testPassword, host, port.Port(), testDBName)
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DBConfig{
		Host:     host,
		Port:     port.Port(),
		User:     testUser,
		Password: testPassword,
		DBName:   testDBName,
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
}

func setupStore(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	pool, cleanup, err := postgres.Connect(ctx, startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	store := postgres.NewStore(pool, 5*time.Second)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

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

func insert(t *testing.T, store *postgres.Store, r *reservation.Reservation) {
	t.Helper()
	err := store.WithinDate(context.Background(), r.Date(), func(ctx context.Context, tx shared.Tx) error {
		return tx.Insert(ctx, r)
	})
	require.NoError(t, err)
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	d1 := mustDate(t, "2026-03-05")
	d2 := mustDate(t, "2026-03-12")

	t.Run("date registry", func(t *testing.T) {
		require.NoError(t, store.AddDate(ctx, d2))
		require.NoError(t, store.AddDate(ctx, d1))

		err := store.AddDate(ctx, d1)
		assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))

		dates, err := store.ListDates(ctx)
		require.NoError(t, err)
		require.Len(t, dates, 2)
		assert.Equal(t, "2026-03-05", dates[0].String())
		assert.Equal(t, "2026-03-12", dates[1].String())

		ok, err := store.HasDate(ctx, d1)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("reservation round trip preserves order", func(t *testing.T) {
		insert(t, store, newReservation(t, d1, "MRN-1", "0911", 1))
		insert(t, store, newReservation(t, d1, "MRN-2", "0922", 0))

		rows, err := store.ListByDate(ctx, d1)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "MRN-1", rows[0].MRN().String())
		assert.Equal(t, 2, rows[0].SeatsNeeded())
		assert.Equal(t, testNow, rows[0].CreatedAt())
		assert.Equal(t, "MRN-2", rows[1].MRN().String())
	})

	t.Run("unique index rejects duplicate patient", func(t *testing.T) {
		err := store.WithinDate(ctx, d1, func(ctx context.Context, tx shared.Tx) error {
			return tx.Insert(ctx, newReservation(t, d1, "MRN-1", "0999", 0))
		})
		assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
	})

	t.Run("delete by credential spans dates", func(t *testing.T) {
		insert(t, store, newReservation(t, d2, "MRN-1", "0911", 0))

		deleted, err := store.DeleteByCredential(ctx, "MRN-1", "0911")
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		deleted, err = store.DeleteByCredential(ctx, "MRN-2", "wrong")
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func TestPostgresWithinDateSerializes(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	date := mustDate(t, "2026-03-05")
	require.NoError(t, store.AddDate(ctx, date))

	// Concurrent solo admissions race check-then-act; the serializable
	// transaction plus retry keeps the ledger at the seat ceiling.
	const racers = 20
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(n int) {
			defer wg.Done()
			mrn := fmt.Sprintf("RACE-%02d", n)
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
	assert.LessOrEqual(t, len(rows), reservation.SeatLimit)
}
