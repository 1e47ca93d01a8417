package reservation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heejin0702/anpetna-care/internal/notify"
	"github.com/heejin0702/anpetna-care/internal/reservation"
)

func TestApplyBulk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, member, f.hospitalRequest(t, "2025-03-10", at(10, 0)))
	b := f.book(t, member, f.hospitalRequest(t, "2025-03-10", at(10, 30)))
	done := f.book(t, other, f.hospitalRequest(t, "2025-03-10", at(11, 0)))
	_, err := f.svc.SetStatus(ctx, admin, done.ID, reservation.StatusRejected)
	require.NoError(t, err)
	f.events.Events()

	missing := uuid.NewString()
	result, err := f.svc.ApplyBulk(ctx, admin, []string{a.ID, missing, b.ID, a.ID, done.ID}, reservation.StatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID, b.ID}, result.Applied, "input order is kept and duplicates collapse")
	assert.Equal(t, map[string]string{
		missing: reservation.ErrNotFound.Message,
		done.ID: reservation.ErrInvalidTransition.Message,
	}, result.Failed)

	for _, id := range []string{a.ID, b.ID} {
		got, err := f.svc.GetByID(ctx, admin, id)
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, got.Status)
	}
	rejected, err := f.svc.GetByID(ctx, admin, done.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusRejected, rejected.Status, "failures leave the row untouched")

	events := f.events.Events()
	assert.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, notify.EventReservationStatusChanged, e.Type)
		assert.Equal(t, "CONFIRMED", e.To)
	}

	t.Run("reapplying is a no-op success", func(t *testing.T) {
		again, err := f.svc.ApplyBulk(ctx, admin, []string{a.ID, b.ID}, reservation.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, b.ID}, again.Applied)
		assert.Empty(t, again.Failed)
		assert.Empty(t, f.events.Events())
	})
}

func TestApplyBulkRejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyBulk(ctx, member, []string{uuid.NewString()}, reservation.StatusConfirmed)
	assert.ErrorIs(t, err, reservation.ErrPermissionDenied)

	_, err = f.svc.ApplyBulk(ctx, admin, []string{uuid.NewString()}, "ARCHIVED")
	assert.ErrorIs(t, err, reservation.ErrInvalidStatus)

	_, err = f.svc.ApplyBulk(ctx, admin, []string{"", ""}, reservation.StatusConfirmed)
	assert.ErrorIs(t, err, reservation.ErrInvalidInput)
}

func TestApplyBulkManyIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for _, slot := range f.catalogSlots() {
		res := f.book(t, member, f.hospitalRequest(t, "2025-03-11", &slot))
		ids = append(ids, res.ID)
	}

	result, err := f.svc.ApplyBulk(ctx, admin, ids, reservation.StatusNoShow)
	require.NoError(t, err)
	assert.Equal(t, ids, result.Applied)
	assert.Empty(t, result.Failed)
}
