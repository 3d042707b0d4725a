//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra/memstore"
	"shuttle-booking/internal/pkg/clock"
	"shuttle-booking/internal/usecase/queries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestScheduleQueries(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	mock := clock.NewMockClock(testNow)
	q := queries.NewScheduleQueries(store, mock)

	for _, s := range []string{"2026-03-12", "2026-03-05", "2026-03-10", "2026-02-26"} {
		require.NoError(t, store.AddDate(ctx, mustDate(t, s)))
	}

	t.Run("list all is ascending", func(t *testing.T) {
		dates, err := q.ListDates(ctx)
		require.NoError(t, err)

		var got []string
		for _, d := range dates {
			got = append(got, d.String())
		}
		assert.Equal(t, []string{"2026-02-26", "2026-03-05", "2026-03-10", "2026-03-12"}, got)
	})

	t.Run("upcoming keeps today and later", func(t *testing.T) {
		dates, err := q.ListUpcomingDates(ctx)
		require.NoError(t, err)

		var got []string
		for _, d := range dates {
			got = append(got, d.String())
		}
		assert.Equal(t, []string{"2026-03-10", "2026-03-12"}, got)
	})

	t.Run("upcoming follows the clock", func(t *testing.T) {
		mock.Set(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC))
		defer mock.Set(testNow)

		dates, err := q.ListUpcomingDates(ctx)
		require.NoError(t, err)
		assert.Empty(t, dates)
	})
}
