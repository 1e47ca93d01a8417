package reservation

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heejin0702/anpetna-care/internal/pkg/clock"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

// DirectoryNames resolves display names for the memory store. The Postgres store joins them instead.
type DirectoryNames interface {
	VenueName(id string) string
	DoctorName(id string) string
}

// ClosureGuard holds a doctor's day against closure changes while fn runs with its closed times.
type ClosureGuard interface {
	Guard(ctx context.Context, doctorID string, date schedule.Date, fn func(closed schedule.TimeSet) error) error
}

// MemoryRepository keeps reservations in process. One mutex covers every write, so the exclusivity
// check and the insert are a single critical section.
type MemoryRepository struct {
	mu           sync.RWMutex
	reservations map[string]*Reservation
	names        DirectoryNames
	clock        clock.Clock
	closures     ClosureGuard
}

// NewMemoryRepository stamps CreatedAt/UpdatedAt from clk (the real clock when nil).
func NewMemoryRepository(names DirectoryNames, clk clock.Clock) *MemoryRepository {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MemoryRepository{
		reservations: make(map[string]*Reservation),
		names:        names,
		clock:        clk,
	}
}

// WithClosureGuard makes hospital creates check the closure ledger under g, so a closure committed
// for the same doctor day is either seen by the create or waits for it.
func (m *MemoryRepository) WithClosureGuard(g ClosureGuard) *MemoryRepository {
	m.closures = g
	return m
}

func (m *MemoryRepository) now() time.Time {
	return m.clock.Now().UTC()
}

func (m *MemoryRepository) Create(ctx context.Context, r *Reservation) error {
	if m.closures == nil || r.ServiceType != schedule.ServiceHospital {
		return m.insert(r, nil)
	}
	return m.closures.Guard(ctx, r.DoctorID, r.AppointmentDate, func(closed schedule.TimeSet) error {
		return m.insert(r, closed)
	})
}

func (m *MemoryRepository) insert(r *Reservation, closed schedule.TimeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.reservations {
		if r.IdempotencyKey != "" && existing.MemberID == r.MemberID && existing.IdempotencyKey == r.IdempotencyKey {
			return ErrDuplicateRequest
		}
	}

	for _, existing := range m.reservations {
		if !existing.Status.IsActive() || existing.ServiceType != r.ServiceType {
			continue
		}
		switch r.ServiceType {
		case schedule.ServiceHospital:
			if existing.DoctorID == r.DoctorID &&
				existing.AppointmentDate == r.AppointmentDate &&
				existing.AppointmentTime == r.AppointmentTime {
				return ErrSlotConflict
			}
		case schedule.ServiceHotel:
			if existing.VenueID == r.VenueID &&
				schedule.StayOverlaps(existing.CheckIn, existing.CheckOut, r.CheckIn, r.CheckOut) {
				return ErrStayConflict
			}
		}
	}

	if closed.Has(r.AppointmentTime) {
		return ErrSlotClosed
	}

	now := m.now()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	if m.names != nil {
		r.VenueName = m.names.VenueName(r.VenueID)
		if r.DoctorID != "" {
			r.DoctorName = m.names.DoctorName(r.DoctorID)
		}
	}

	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryRepository) GetByIdempotencyKey(_ context.Context, memberID, key string) (*Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reservations {
		if r.MemberID == memberID && r.IdempotencyKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) List(_ context.Context, filter Filter) ([]*Reservation, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Reservation
	for _, r := range m.reservations {
		if matches(r, filter) {
			cp := *r
			matched = append(matched, &cp)
		}
	}

	desc := !strings.EqualFold(filter.SortOrder, "asc")
	slices.SortFunc(matched, func(a, b *Reservation) int {
		c := compareBy(filter.SortBy, a, b)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})

	total := len(matched)
	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := min(start+pageSize, total)
	return matched[start:end], total, nil
}

func matches(r *Reservation, f Filter) bool {
	switch {
	case f.VenueID != "" && r.VenueID != f.VenueID:
		return false
	case f.ServiceType != "" && r.ServiceType != f.ServiceType:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.DoctorID != "" && r.DoctorID != f.DoctorID:
		return false
	case f.MemberID != "" && r.MemberID != f.MemberID:
		return false
	}
	if f.Date != nil {
		if r.ServiceType == schedule.ServiceHotel {
			return !f.Date.Before(r.CheckIn) && !f.Date.After(r.CheckOut)
		}
		return r.AppointmentDate == *f.Date
	}
	return true
}

func compareBy(sortBy string, a, b *Reservation) int {
	switch sortBy {
	case SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortByEventDate:
		return a.EventDate().Compare(b.EventDate())
	case SortByStatus:
		return cmp.Compare(a.Status, b.Status)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, id string, fn StatusFunc) (*Reservation, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.reservations[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	prev := stored.Status

	cp := *stored
	next, err := fn(&cp)
	if err != nil {
		return nil, prev, err
	}
	if next != prev {
		stored.Status = next
		stored.UpdatedAt = m.now()
	}

	out := *stored
	return &out, prev, nil
}

func (m *MemoryRepository) OccupiedTimes(_ context.Context, doctorID string, date schedule.Date, statuses ...Status) (schedule.TimeSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	times := schedule.NewTimeSet()
	for _, r := range m.reservations {
		if r.ServiceType == schedule.ServiceHospital &&
			r.DoctorID == doctorID &&
			r.AppointmentDate == date &&
			slices.Contains(statuses, r.Status) {
			times.Add(r.AppointmentTime)
		}
	}
	return times, nil
}

func (m *MemoryRepository) HasStayOverlap(_ context.Context, venueID string, checkIn, checkOut schedule.Date, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reservations {
		if r.ID == excludeID || r.ServiceType != schedule.ServiceHotel || r.VenueID != venueID || !r.Status.IsActive() {
			continue
		}
		if schedule.StayOverlaps(r.CheckIn, r.CheckOut, checkIn, checkOut) {
			return true, nil
		}
	}
	return false, nil
}
