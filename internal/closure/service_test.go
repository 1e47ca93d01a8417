package closure_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/closure"
	"github.com/heejin0702/anpetna-care/internal/directory"
	"github.com/heejin0702/anpetna-care/internal/pkg/apperror"
	"github.com/heejin0702/anpetna-care/internal/pkg/clock"
	"github.com/heejin0702/anpetna-care/internal/reservation"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

var (
	admin  = auth.Principal{MemberID: "admin-1", Role: auth.RoleAdmin}
	member = auth.Principal{MemberID: "member-1", Role: auth.RoleMember}
	day    = schedule.Date{Year: 2025, Month: time.March, Day: 10}
)

type fixture struct {
	svc          closure.Service
	reservations reservation.Service
	hospitalID   string
	doctorID     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := directory.NewMemoryRepository()
	hospital := dir.AddVenue("Anpetna Animal Hospital", "")
	doc, err := dir.AddDoctor(hospital.ID, "Dr. Kim", "")
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	resRepo := reservation.NewMemoryRepository(dir, clk)
	dirService := directory.NewService(dir)
	svc := closure.NewService(closure.NewMemoryRepository(), resRepo, dirService, nil, nil)
	resService := reservation.NewService(resRepo, dirService, svc, reservation.Options{Clock: clk})

	return &fixture{svc: svc, reservations: resService, hospitalID: hospital.ID, doctorID: doc.ID}
}

func (f *fixture) reserve(t *testing.T, slot schedule.TimeOfDay, status reservation.Status) {
	t.Helper()
	ctx := context.Background()
	res, _, err := f.reservations.Create(ctx, member, reservation.CreateRequest{
		ServiceType:     schedule.ServiceHospital,
		VenueID:         f.hospitalID,
		DoctorID:        f.doctorID,
		AppointmentDate: day,
		AppointmentTime: &slot,
		ReserverName:    "Hong Gildong",
		PrimaryPhone:    "010-1234-5678",
		PetName:         "Choco",
		PetBirthYear:    2021,
	})
	require.NoError(t, err)
	if status != reservation.StatusPending {
		_, err = f.reservations.SetStatus(ctx, admin, res.ID, status)
		require.NoError(t, err)
	}
}

func (f *fixture) merge(t *testing.T, toggled ...schedule.TimeOfDay) *closure.MergeResult {
	t.Helper()
	result, err := f.svc.Merge(context.Background(), admin, closure.MergeRequest{
		DoctorID: f.doctorID,
		Date:     day,
		Toggled:  schedule.NewTimeSet(toggled...),
	})
	require.NoError(t, err)
	return result
}

func hm(hour, minute int) schedule.TimeOfDay {
	return schedule.NewTimeOfDay(hour, minute)
}

func TestMergeIsSymmetricDifference(t *testing.T) {
	f := newFixture(t)

	result := f.merge(t, hm(10, 0), hm(10, 30))
	assert.Equal(t, []string{"10:00", "10:30"}, result.Closed.Strings())
	assert.Zero(t, result.Ignored.Len())

	result = f.merge(t, hm(10, 30), hm(11, 0))
	assert.Equal(t, []string{"10:00", "11:00"}, result.Closed.Strings())

	closed, err := f.svc.GetClosed(context.Background(), f.doctorID, day)
	require.NoError(t, err)
	assert.True(t, closed.Equal(result.Closed))
}

func TestMergeTwiceRestoresLedger(t *testing.T) {
	f := newFixture(t)
	f.merge(t, hm(12, 0))

	before, err := f.svc.GetClosed(context.Background(), f.doctorID, day)
	require.NoError(t, err)

	f.merge(t, hm(12, 0), hm(15, 30), hm(18, 30))
	after := f.merge(t, hm(12, 0), hm(15, 30), hm(18, 30))

	assert.True(t, after.Closed.Equal(before))
}

func TestMergeEmptyToggleChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.merge(t, hm(13, 0))

	result := f.merge(t)
	assert.Equal(t, []string{"13:00"}, result.Closed.Strings())
}

func TestMergeSkipsLockedSlots(t *testing.T) {
	f := newFixture(t)
	f.reserve(t, hm(10, 0), reservation.StatusConfirmed)
	f.reserve(t, hm(10, 30), reservation.StatusNoShow)
	f.reserve(t, hm(11, 0), reservation.StatusPending)

	result := f.merge(t, hm(10, 0), hm(10, 30), hm(11, 0), hm(11, 30))

	assert.Equal(t, []string{"10:00", "10:30"}, result.Ignored.Strings())
	assert.Equal(t, []string{"11:00", "11:30"}, result.Closed.Strings(), "pending reservations do not pin a slot")
}

func TestMergeRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("members cannot edit closures", func(t *testing.T) {
		_, err := f.svc.Merge(ctx, member, closure.MergeRequest{DoctorID: f.doctorID, Date: day, Toggled: schedule.NewTimeSet(hm(10, 0))})
		assert.ErrorIs(t, err, closure.ErrPermissionDenied)
	})

	t.Run("off-catalog times", func(t *testing.T) {
		_, err := f.svc.Merge(ctx, admin, closure.MergeRequest{DoctorID: f.doctorID, Date: day, Toggled: schedule.NewTimeSet(hm(10, 0), hm(9, 45))})
		require.ErrorIs(t, err, closure.ErrInvalidInput)

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "not bookable slots: 09:45", appErr.Details["toggled"])

		closed, err := f.svc.GetClosed(ctx, f.doctorID, day)
		require.NoError(t, err)
		assert.Zero(t, closed.Len(), "a rejected merge applies nothing")
	})

	t.Run("missing date", func(t *testing.T) {
		_, err := f.svc.Merge(ctx, admin, closure.MergeRequest{DoctorID: f.doctorID, Toggled: schedule.NewTimeSet()})
		assert.ErrorIs(t, err, closure.ErrInvalidInput)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		_, err := f.svc.Merge(ctx, admin, closure.MergeRequest{DoctorID: "nobody", Date: day, Toggled: schedule.NewTimeSet(hm(10, 0))})
		assert.ErrorIs(t, err, directory.ErrDoctorNotFound)
	})
}

func TestConcurrentMergesAreSerialized(t *testing.T) {
	f := newFixture(t)
	slots := schedule.DefaultCatalog().Slots(schedule.ServiceHospital)

	var wg sync.WaitGroup
	for _, slot := range slots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Merge(context.Background(), admin, closure.MergeRequest{
				DoctorID: f.doctorID,
				Date:     day,
				Toggled:  schedule.NewTimeSet(slot),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	closed, err := f.svc.GetClosed(context.Background(), f.doctorID, day)
	require.NoError(t, err)
	assert.Equal(t, len(slots), closed.Len(), "no toggle is lost")
}

func TestLedgerIsPerDoctorAndDate(t *testing.T) {
	f := newFixture(t)
	f.merge(t, hm(14, 0))

	closed, err := f.svc.GetClosed(context.Background(), f.doctorID, day.AddDays(1))
	require.NoError(t, err)
	assert.Zero(t, closed.Len())

	closed, err = f.svc.GetClosed(context.Background(), "other-doctor", day)
	require.NoError(t, err)
	assert.Zero(t, closed.Len())
}
