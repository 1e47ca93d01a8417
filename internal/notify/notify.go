package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type EventType string

const (
	EventReservationCreated       EventType = "reservation.created"
	EventReservationStatusChanged EventType = "reservation.status_changed"
)

// Event describes a reservation change for downstream delivery (push, SMS, mail).
// Delivery itself happens outside this service.
type Event struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	MemberID      string    `json:"member_id"`
	VenueID       string    `json:"venue_id"`
	DoctorID      string    `json:"doctor_id,omitempty"`
	From          string    `json:"from,omitempty"`
	To            string    `json:"to"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier dispatches events fire-and-forget. Implementations must not block the caller on delivery
// failures and never return an error to it.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// LogNotifier only records events. It is used when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) {
	n.logger.Info("reservation event",
		zap.String("type", string(e.Type)),
		zap.String("reservation_id", e.ReservationID),
		zap.String("from", e.From),
		zap.String("to", e.To),
	)
}

// Recorder keeps every event in memory.
type Recorder struct {
	ch chan Event
}

// NewRecorder buffers up to size events; further events are dropped.
func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Event, size)}
}

func (r *Recorder) Notify(_ context.Context, e Event) {
	select {
	case r.ch <- e:
	default:
	}
}

// Events drains and returns what has been recorded so far.
func (r *Recorder) Events() []Event {
	var out []Event
	for {
		select {
		case e := <-r.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}
