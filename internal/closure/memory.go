package closure

import (
	"context"
	"sync"

	"github.com/heejin0702/anpetna-care/internal/pkg/keylock"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

type key struct {
	doctorID string
	date     schedule.Date
}

// MemoryRepository keeps the ledger in process. Update and Guard hold the doctor's day for their
// whole duration; mu only protects the map.
type MemoryRepository struct {
	days keylock.Locker

	mu     sync.Mutex
	closed map[key]schedule.TimeSet
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{closed: make(map[key]schedule.TimeSet)}
}

func (m *MemoryRepository) GetClosed(_ context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error) {
	return m.load(key{doctorID, date}), nil
}

func (m *MemoryRepository) Update(_ context.Context, doctorID string, date schedule.Date, fn UpdateFunc) (schedule.TimeSet, error) {
	unlock := m.days.Lock(schedule.DoctorDayKey(doctorID, date))
	defer unlock()

	k := key{doctorID, date}
	next, err := fn(m.load(k))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if next.Len() == 0 {
		delete(m.closed, k)
	} else {
		m.closed[k] = next.Clone()
	}
	return next, nil
}

// Guard runs fn with the closed times of the doctor's day while no Update for that day can run.
func (m *MemoryRepository) Guard(_ context.Context, doctorID string, date schedule.Date, fn func(closed schedule.TimeSet) error) error {
	unlock := m.days.Lock(schedule.DoctorDayKey(doctorID, date))
	defer unlock()

	return fn(m.load(key{doctorID, date}))
}

func (m *MemoryRepository) load(k key) schedule.TimeSet {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.closed[k]; ok {
		return s.Clone()
	}
	return schedule.NewTimeSet()
}
