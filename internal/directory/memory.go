package directory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process directory used by the memory store driver and by tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	venues  map[string]*Venue
	doctors map[string]*Doctor
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		venues:  make(map[string]*Venue),
		doctors: make(map[string]*Doctor),
	}
}

// AddVenue registers a venue; an empty ID is filled with a new UUID.
func (r *MemoryRepository) AddVenue(name, id string) *Venue {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	v := &Venue{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	r.venues[id] = v
	cp := *v
	return &cp
}

// AddDoctor registers a doctor under an existing venue.
func (r *MemoryRepository) AddDoctor(venueID, name, id string) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.venues[venueID]
	if !ok {
		return nil, ErrVenueNotFound
	}
	if id == "" {
		id = uuid.NewString()
	}
	d := &Doctor{ID: id, VenueID: venueID, VenueName: v.Name, Name: name, CreatedAt: time.Now().UTC()}
	r.doctors[id] = d
	cp := *d
	return &cp, nil
}

func (r *MemoryRepository) GetVenue(_ context.Context, id string) (*Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.venues[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *MemoryRepository) ListVenues(_ context.Context, filter VenueFilter) ([]*Venue, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Venue
	for _, v := range r.venues {
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(filter.Keyword)) {
			continue
		}
		cp := *v
		all = append(all, &cp)
	}
	slices.SortFunc(all, func(a, b *Venue) int { return strings.Compare(a.Name, b.Name) })

	return paginate(all, filter.Page, filter.PageSize), len(all), nil
}

func (r *MemoryRepository) GetDoctor(_ context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *MemoryRepository) ListDoctors(_ context.Context, filter DoctorFilter) ([]*Doctor, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Doctor
	for _, d := range r.doctors {
		if filter.VenueID != "" && d.VenueID != filter.VenueID {
			continue
		}
		cp := *d
		all = append(all, &cp)
	}
	slices.SortFunc(all, func(a, b *Doctor) int { return strings.Compare(a.Name, b.Name) })

	return paginate(all, filter.Page, filter.PageSize), len(all), nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	page, pageSize = normalizePage(page, pageSize)
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

// VenueName returns the name of a known venue or "".
func (r *MemoryRepository) VenueName(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.venues[id]; ok {
		return v.Name
	}
	return ""
}

// DoctorName returns the name of a known doctor or "".
func (r *MemoryRepository) DoctorName(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.doctors[id]; ok {
		return d.Name
	}
	return ""
}
