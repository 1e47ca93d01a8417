package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorderDropsWhenFull(t *testing.T) {
	r := NewRecorder(1)
	r.Notify(context.Background(), Event{ReservationID: "a"})
	r.Notify(context.Background(), Event{ReservationID: "b"})

	events := r.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].ReservationID)
	assert.Empty(t, r.Events())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	n.Notify(context.Background(), Event{
		Type:          EventReservationStatusChanged,
		ReservationID: "r1",
		From:          "PENDING",
		To:            "CONFIRMED",
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "r1", fields["reservation_id"])
	assert.Equal(t, "CONFIRMED", fields["to"])
}

func TestEventJSON(t *testing.T) {
	e := Event{
		Type:          EventReservationCreated,
		ReservationID: "r1",
		MemberID:      "m1",
		VenueID:       "v1",
		To:            "PENDING",
		OccurredAt:    time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "reservation.created",
		"reservation_id": "r1",
		"member_id": "m1",
		"venue_id": "v1",
		"to": "PENDING",
		"occurred_at": "2025-03-09T09:00:00Z"
	}`, string(b))
}
