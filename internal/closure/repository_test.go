package closure_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heejin0702/anpetna-care/internal/closure"
	"github.com/heejin0702/anpetna-care/internal/db/dbtest"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

func TestPgxRepository(t *testing.T) {
	pool := dbtest.Open(t)
	repo := closure.NewPgxRepository(pool)
	ctx := context.Background()

	venueID := dbtest.SeedVenue(t, pool, "Anpetna Animal Hospital")
	doctorID := dbtest.SeedDoctor(t, pool, venueID, "Dr. Kim")

	toggle := func(times ...schedule.TimeOfDay) closure.UpdateFunc {
		return func(current schedule.TimeSet) (schedule.TimeSet, error) {
			return current.SymmetricDifference(schedule.NewTimeSet(times...)), nil
		}
	}

	t.Run("Empty ledger", func(t *testing.T) {
		closed, err := repo.GetClosed(ctx, doctorID, day)
		require.NoError(t, err)
		assert.Zero(t, closed.Len())
	})

	t.Run("Update stores the returned set", func(t *testing.T) {
		closed, err := repo.Update(ctx, doctorID, day, toggle(hm(10, 0), hm(10, 30)))
		require.NoError(t, err)
		assert.Equal(t, []string{"10:00", "10:30"}, closed.Strings())

		closed, err = repo.Update(ctx, doctorID, day, toggle(hm(10, 30), hm(11, 0)))
		require.NoError(t, err)
		assert.Equal(t, []string{"10:00", "11:00"}, closed.Strings())

		stored, err := repo.GetClosed(ctx, doctorID, day)
		require.NoError(t, err)
		assert.True(t, stored.Equal(closed))
	})

	t.Run("Failed update writes nothing", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repo.Update(ctx, doctorID, day, func(schedule.TimeSet) (schedule.TimeSet, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		stored, err := repo.GetClosed(ctx, doctorID, day)
		require.NoError(t, err)
		assert.Equal(t, []string{"10:00", "11:00"}, stored.Strings())
	})

	t.Run("Concurrent updates are serialized", func(t *testing.T) {
		other := day.AddDays(1)
		slots := schedule.DefaultCatalog().Slots(schedule.ServiceHospital)

		var wg sync.WaitGroup
		for _, slot := range slots {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, doctorID, other, toggle(slot))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.GetClosed(ctx, doctorID, other)
		require.NoError(t, err)
		assert.Equal(t, len(slots), stored.Len())
	})
}
