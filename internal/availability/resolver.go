package availability

import (
	"context"
	"time"

	"github.com/heejin0702/anpetna-care/internal/directory"
	"github.com/heejin0702/anpetna-care/internal/pkg/apperror"
	"github.com/heejin0702/anpetna-care/internal/pkg/clock"
	"github.com/heejin0702/anpetna-care/internal/reservation"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

var (
	ErrDateRequired = apperror.Validation("date is required")
	ErrInvalidStay  = apperror.Validation("check_out must be after check_in")
)

// ReservationReader is the read side of the reservation store needed to compute availability.
type ReservationReader interface {
	OccupiedTimes(ctx context.Context, doctorID string, date schedule.Date, statuses ...reservation.Status) (schedule.TimeSet, error)
	HasStayOverlap(ctx context.Context, venueID string, checkIn, checkOut schedule.Date, excludeID string) (bool, error)
}

type ClosureReader interface {
	GetClosed(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error)
}

// DayView breaks a doctor's day down the way the admin closure screen shows it.
type DayView struct {
	Date    schedule.Date
	Catalog schedule.TimeSet
	// Reserved holds pending and confirmed reservations.
	Reserved schedule.TimeSet
	// Locked holds confirmed and no-show reservations; these cannot be toggled.
	Locked schedule.TimeSet
	// Closed is the closure ledger minus Reserved.
	Closed    schedule.TimeSet
	Past      schedule.TimeSet
	Available schedule.TimeSet
}

type Service interface {
	// Resolve returns the bookable hospital slots of a doctor on date.
	Resolve(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error)
	DayView(ctx context.Context, doctorID string, date schedule.Date) (*DayView, error)
	// StayAvailable reports whether the venue can take a hotel stay over [checkIn, checkOut].
	StayAvailable(ctx context.Context, venueID string, checkIn, checkOut schedule.Date) (bool, error)
}

type service struct {
	reservations ReservationReader
	closures     ClosureReader
	directory    directory.Service
	catalog      *schedule.Catalog
	clock        clock.Clock
	loc          *time.Location
}

func NewService(reservations ReservationReader, closures ClosureReader, dirService directory.Service, catalog *schedule.Catalog, clk clock.Clock, loc *time.Location) Service {
	if catalog == nil {
		catalog = schedule.DefaultCatalog()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		reservations: reservations,
		closures:     closures,
		directory:    dirService,
		catalog:      catalog,
		clock:        clk,
		loc:          loc,
	}
}

func (s *service) Resolve(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error) {
	view, err := s.DayView(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return view.Available, nil
}

func (s *service) DayView(ctx context.Context, doctorID string, date schedule.Date) (*DayView, error) {
	if date.IsZero() {
		return nil, ErrDateRequired
	}
	if _, err := s.directory.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	reserved, err := s.reservations.OccupiedTimes(ctx, doctorID, date, reservation.ActiveStatuses...)
	if err != nil {
		return nil, err
	}
	locked, err := s.reservations.OccupiedTimes(ctx, doctorID, date, reservation.LockedStatuses...)
	if err != nil {
		return nil, err
	}
	closed, err := s.closures.GetClosed(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	catalog := s.catalog.Set()
	preClosed := closed.Minus(reserved)

	// Evaluated per call, never cached.
	now := s.clock.Now().In(s.loc)
	past := schedule.NewTimeSet()
	for t := range catalog {
		if date.At(t, s.loc).Before(now) {
			past.Add(t)
		}
	}

	return &DayView{
		Date:      date,
		Catalog:   catalog,
		Reserved:  reserved,
		Locked:    locked,
		Closed:    preClosed,
		Past:      past,
		Available: catalog.Minus(reserved).Minus(preClosed).Minus(past),
	}, nil
}

func (s *service) StayAvailable(ctx context.Context, venueID string, checkIn, checkOut schedule.Date) (bool, error) {
	if !schedule.ValidStay(checkIn, checkOut) {
		return false, ErrInvalidStay
	}
	if _, err := s.directory.GetVenue(ctx, venueID); err != nil {
		return false, err
	}
	if checkIn.Before(schedule.DateOf(s.clock.Now().In(s.loc))) {
		return false, nil
	}

	overlap, err := s.reservations.HasStayOverlap(ctx, venueID, checkIn, checkOut, "")
	if err != nil {
		return false, err
	}
	return !overlap, nil
}
