package directory

import (
	"context"
)

type Service interface {
	GetVenue(ctx context.Context, id string) (*Venue, error)
	ListVenues(ctx context.Context, filter VenueFilter) ([]*Venue, int, error)
	GetDoctor(ctx context.Context, id string) (*Doctor, error)
	ListDoctors(ctx context.Context, filter DoctorFilter) ([]*Doctor, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetVenue(ctx context.Context, id string) (*Venue, error) {
	return s.repo.GetVenue(ctx, id)
}

func (s *service) ListVenues(ctx context.Context, filter VenueFilter) ([]*Venue, int, error) {
	return s.repo.ListVenues(ctx, filter)
}

func (s *service) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

// ListDoctors checks the venue first so that an unknown venue is a 404 rather than an empty page.
func (s *service) ListDoctors(ctx context.Context, filter DoctorFilter) ([]*Doctor, int, error) {
	if filter.VenueID != "" {
		if _, err := s.repo.GetVenue(ctx, filter.VenueID); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.ListDoctors(ctx, filter)
}
