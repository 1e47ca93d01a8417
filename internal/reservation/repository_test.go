package reservation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heejin0702/anpetna-care/internal/closure"
	"github.com/heejin0702/anpetna-care/internal/db/dbtest"
	"github.com/heejin0702/anpetna-care/internal/reservation"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

func newHospitalReservation(venueID, doctorID string, date schedule.Date, slot schedule.TimeOfDay) *reservation.Reservation {
	return &reservation.Reservation{
		ServiceType:     schedule.ServiceHospital,
		VenueID:         venueID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: slot,
		MemberID:        "member-1",
		ReserverName:    "Hong Gildong",
		PrimaryPhone:    "010-1234-5678",
		PetName:         "Choco",
		PetBirthYear:    2020,
		Status:          reservation.StatusPending,
	}
}

func newHotelReservation(venueID string, in, out schedule.Date) *reservation.Reservation {
	return &reservation.Reservation{
		ServiceType:  schedule.ServiceHotel,
		VenueID:      venueID,
		CheckIn:      in,
		CheckOut:     out,
		MemberID:     "member-1",
		ReserverName: "Hong Gildong",
		PrimaryPhone: "010-1234-5678",
		PetName:      "Choco",
		PetBirthYear: 2020,
		Status:       reservation.StatusPending,
	}
}

func TestPgxRepository(t *testing.T) {
	pool := dbtest.Open(t)
	repo := reservation.NewPgxRepository(pool)
	ctx := context.Background()

	hospitalID := dbtest.SeedVenue(t, pool, "Anpetna Animal Hospital")
	hotelID := dbtest.SeedVenue(t, pool, "Anpetna Pet Hotel")
	doctorID := dbtest.SeedDoctor(t, pool, hospitalID, "Dr. Kim")
	day := schedule.Date{Year: 2025, Month: time.March, Day: 10}

	var created *reservation.Reservation

	t.Run("Create and read back", func(t *testing.T) {
		r := newHospitalReservation(hospitalID, doctorID, day, schedule.NewTimeOfDay(10, 0))
		r.PetSpecies = "dog"
		require.NoError(t, repo.Create(ctx, r))
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Anpetna Animal Hospital", got.VenueName)
		assert.Equal(t, "Dr. Kim", got.DoctorName)
		assert.Equal(t, day, got.AppointmentDate)
		assert.Equal(t, "10:00", got.AppointmentTime.String())
		assert.Equal(t, "dog", got.PetSpecies)
		assert.True(t, got.CheckIn.IsZero())
		created = got
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, reservation.ErrNotFound)
	})

	t.Run("Concurrent creates on one slot", func(t *testing.T) {
		const n = 20
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Create(ctx, newHospitalReservation(hospitalID, doctorID, day, schedule.NewTimeOfDay(15, 0)))
				if err != nil {
					assert.ErrorIs(t, err, reservation.ErrSlotConflict)
					return
				}
				mu.Lock()
				successes++
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, successes)
	})

	t.Run("Stay exclusivity is inclusive", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newHotelReservation(hotelID, day, day.AddDays(2))))

		err := repo.Create(ctx, newHotelReservation(hotelID, day.AddDays(2), day.AddDays(4)))
		assert.ErrorIs(t, err, reservation.ErrStayConflict)

		require.NoError(t, repo.Create(ctx, newHotelReservation(hotelID, day.AddDays(3), day.AddDays(4))))

		overlap, err := repo.HasStayOverlap(ctx, hotelID, day.AddDays(-1), day, "")
		require.NoError(t, err)
		assert.True(t, overlap)
	})

	t.Run("Idempotency key is unique per member", func(t *testing.T) {
		r := newHospitalReservation(hospitalID, doctorID, day, schedule.NewTimeOfDay(16, 0))
		r.IdempotencyKey = "key-1"
		require.NoError(t, repo.Create(ctx, r))

		again := newHospitalReservation(hospitalID, doctorID, day, schedule.NewTimeOfDay(16, 30))
		again.IdempotencyKey = "key-1"
		assert.ErrorIs(t, repo.Create(ctx, again), reservation.ErrDuplicateRequest)

		got, err := repo.GetByIdempotencyKey(ctx, "member-1", "key-1")
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.ID)
	})

	t.Run("Update status and occupancy", func(t *testing.T) {
		updated, prev, err := repo.UpdateStatus(ctx, created.ID, func(cur *reservation.Reservation) (reservation.Status, error) {
			return reservation.StatusConfirmed, nil
		})
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusPending, prev)
		assert.Equal(t, reservation.StatusConfirmed, updated.Status)

		locked, err := repo.OccupiedTimes(ctx, doctorID, day, reservation.LockedStatuses...)
		require.NoError(t, err)
		assert.Equal(t, []string{"10:00"}, locked.Strings())

		active, err := repo.OccupiedTimes(ctx, doctorID, day, reservation.ActiveStatuses...)
		require.NoError(t, err)
		assert.Equal(t, []string{"10:00", "15:00", "16:00"}, active.Strings())

		_, _, err = repo.UpdateStatus(ctx, created.ID, func(cur *reservation.Reservation) (reservation.Status, error) {
			return "", reservation.ErrInvalidTransition
		})
		assert.ErrorIs(t, err, reservation.ErrInvalidTransition)
	})

	t.Run("Canceled slot can be booked again", func(t *testing.T) {
		_, _, err := repo.UpdateStatus(ctx, created.ID, func(*reservation.Reservation) (reservation.Status, error) {
			return reservation.StatusCanceled, nil
		})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, newHospitalReservation(hospitalID, doctorID, day, schedule.NewTimeOfDay(10, 0))))
	})

	t.Run("List filters", func(t *testing.T) {
		list, total, err := repo.List(ctx, reservation.Filter{ServiceType: schedule.ServiceHotel})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, list, 2)

		d := day.AddDays(1)
		_, total, err = repo.List(ctx, reservation.Filter{Date: &d})
		require.NoError(t, err)
		assert.Equal(t, 1, total, "only the stay spans the next day")

		list, total, err = repo.List(ctx, reservation.Filter{Status: reservation.StatusCanceled})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, created.ID, list[0].ID)

		list, _, err = repo.List(ctx, reservation.Filter{
			DoctorID:  doctorID,
			SortBy:    reservation.SortByEventDate,
			SortOrder: "asc",
			PageSize:  2,
		})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestPgxCreateWaitsForClosureOnSameDay(t *testing.T) {
	pool := dbtest.Open(t)
	repo := reservation.NewPgxRepository(pool)
	ledger := closure.NewPgxRepository(pool)
	ctx := context.Background()

	hospitalID := dbtest.SeedVenue(t, pool, "Anpetna Animal Hospital")
	doctorID := dbtest.SeedDoctor(t, pool, hospitalID, "Dr. Kim")
	day := schedule.Date{Year: 2025, Month: time.March, Day: 12}
	slot := schedule.NewTimeOfDay(11, 0)

	closing := make(chan struct{})
	release := make(chan struct{})
	merged := make(chan error, 1)
	go func() {
		_, err := ledger.Update(ctx, doctorID, day, func(current schedule.TimeSet) (schedule.TimeSet, error) {
			close(closing)
			<-release
			current.Add(slot)
			return current, nil
		})
		merged <- err
	}()
	<-closing

	created := make(chan error, 1)
	go func() {
		created <- repo.Create(ctx, newHospitalReservation(hospitalID, doctorID, day, slot))
	}()

	select {
	case err := <-created:
		t.Fatalf("create finished while a closure for the same day was in progress: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-merged)
	assert.ErrorIs(t, <-created, reservation.ErrSlotClosed)

	err := repo.Create(ctx, newHospitalReservation(hospitalID, doctorID, day, slot))
	assert.ErrorIs(t, err, reservation.ErrSlotClosed)
	require.NoError(t, repo.Create(ctx, newHospitalReservation(hospitalID, doctorID, day, schedule.NewTimeOfDay(11, 30))))
}
