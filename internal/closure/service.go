package closure

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/directory"
	"github.com/heejin0702/anpetna-care/internal/reservation"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

// OccupancyReader reports which of a doctor's slots are held by reservations in the given statuses.
type OccupancyReader interface {
	OccupiedTimes(ctx context.Context, doctorID string, date schedule.Date, statuses ...reservation.Status) (schedule.TimeSet, error)
}

type Service interface {
	GetClosed(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error)
	// Merge flips every toggled time except those pinned by a confirmed or no-show reservation.
	Merge(ctx context.Context, p auth.Principal, req MergeRequest) (*MergeResult, error)
}

type service struct {
	repo      Repository
	occupancy OccupancyReader
	directory directory.Service
	catalog   *schedule.Catalog
	logger    *zap.Logger
}

func NewService(repo Repository, occupancy OccupancyReader, dirService directory.Service, catalog *schedule.Catalog, logger *zap.Logger) Service {
	if catalog == nil {
		catalog = schedule.DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:      repo,
		occupancy: occupancy,
		directory: dirService,
		catalog:   catalog,
		logger:    logger,
	}
}

func (s *service) GetClosed(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error) {
	return s.repo.GetClosed(ctx, doctorID, date)
}

func (s *service) Merge(ctx context.Context, p auth.Principal, req MergeRequest) (*MergeResult, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	details := map[string]string{}
	if req.Date.IsZero() {
		details["date"] = "required"
	}
	var offCatalog []string
	for _, t := range req.Toggled.Sorted() {
		if !s.catalog.Contains(t) {
			offCatalog = append(offCatalog, t.String())
		}
	}
	if len(offCatalog) > 0 {
		details["toggled"] = "not bookable slots: " + strings.Join(offCatalog, ", ")
	}
	if len(details) > 0 {
		return nil, ErrInvalidInput.WithDetails(details)
	}

	if _, err := s.directory.GetDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	var ignored schedule.TimeSet
	closed, err := s.repo.Update(ctx, req.DoctorID, req.Date, func(current schedule.TimeSet) (schedule.TimeSet, error) {
		locked, err := s.occupancy.OccupiedTimes(ctx, req.DoctorID, req.Date, reservation.LockedStatuses...)
		if err != nil {
			return nil, err
		}
		ignored = req.Toggled.Intersect(locked)
		return current.SymmetricDifference(req.Toggled.Minus(locked)), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("closures merged",
		zap.String("doctor_id", req.DoctorID),
		zap.Stringer("date", req.Date),
		zap.Strings("toggled", req.Toggled.Strings()),
		zap.Strings("ignored", ignored.Strings()),
		zap.Strings("closed", closed.Strings()),
		zap.String("admin_id", p.MemberID),
	)

	return &MergeResult{Closed: closed, Ignored: ignored}, nil
}
