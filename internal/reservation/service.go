package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/directory"
	"github.com/heejin0702/anpetna-care/internal/notify"
	"github.com/heejin0702/anpetna-care/internal/pkg/clock"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

const (
	minPetBirthYear        = 1980
	defaultBulkConcurrency = 8
)

// ClosureReader exposes the closed times of a doctor's day.
type ClosureReader interface {
	GetClosed(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error)
}

type CreateRequest struct {
	ServiceType     schedule.ServiceType
	VenueID         string
	DoctorID        string
	AppointmentDate schedule.Date
	AppointmentTime *schedule.TimeOfDay
	CheckIn         schedule.Date
	CheckOut        schedule.Date
	ReserverName    string
	PrimaryPhone    string
	SecondaryPhone  string
	PetName         string
	PetBirthYear    int
	PetSpecies      string
	PetGender       string
	Memo            string
	IdempotencyKey  string
}

type Service interface {
	// Create books a slot or a stay for the principal. The boolean is true when an earlier
	// reservation with the same idempotency key is returned instead of a new one.
	Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Reservation, bool, error)
	GetByID(ctx context.Context, p auth.Principal, id string) (*Reservation, error)
	// List returns every reservation for admins and only their own for members.
	List(ctx context.Context, p auth.Principal, filter Filter) ([]*Reservation, int, error)
	Cancel(ctx context.Context, p auth.Principal, id string) (*Reservation, error)
	SetStatus(ctx context.Context, p auth.Principal, id string, status Status) (*Reservation, error)
	ApplyBulk(ctx context.Context, p auth.Principal, ids []string, status Status) (*BulkResult, error)
	// IsCancelable evaluates the member cancellation rule against today's date.
	IsCancelable(r *Reservation) bool
}

type Options struct {
	Catalog         *schedule.Catalog
	Location        *time.Location
	Clock           clock.Clock
	Notifier        notify.Notifier
	Logger          *zap.Logger
	BulkConcurrency int
}

type service struct {
	repo      Repository
	directory directory.Service
	closures  ClosureReader

	catalog         *schedule.Catalog
	loc             *time.Location
	clock           clock.Clock
	notifier        notify.Notifier
	logger          *zap.Logger
	bulkConcurrency int
}

func NewService(repo Repository, dirService directory.Service, closures ClosureReader, opts Options) Service {
	s := &service{
		repo:            repo,
		directory:       dirService,
		closures:        closures,
		catalog:         opts.Catalog,
		loc:             opts.Location,
		clock:           opts.Clock,
		notifier:        opts.Notifier,
		logger:          opts.Logger,
		bulkConcurrency: opts.BulkConcurrency,
	}
	if s.catalog == nil {
		s.catalog = schedule.DefaultCatalog()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	if s.bulkConcurrency < 1 {
		s.bulkConcurrency = defaultBulkConcurrency
	}
	return s
}

func (s *service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *service) today() schedule.Date {
	return schedule.DateOf(s.now())
}

func (s *service) Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Reservation, bool, error) {
	// 1. Replayed request
	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, p.MemberID, req.IdempotencyKey)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}

	// 2. Field validation and directory lookup
	now := s.now()
	details := s.validate(req, schedule.DateOf(now))
	if len(details) == 0 {
		if err := s.checkDirectory(ctx, req, details); err != nil {
			return nil, false, err
		}
	}
	if len(details) > 0 {
		return nil, false, ErrInvalidInput.WithDetails(details)
	}

	// 3. No retroactive bookings
	switch req.ServiceType {
	case schedule.ServiceHospital:
		if req.AppointmentDate.At(*req.AppointmentTime, s.loc).Before(now) {
			return nil, false, ErrPastDate
		}
	case schedule.ServiceHotel:
		if req.CheckIn.Before(schedule.DateOf(now)) {
			return nil, false, ErrPastDate
		}
	}

	// 4. Administratively closed slot
	if req.ServiceType == schedule.ServiceHospital {
		closed, err := s.closures.GetClosed(ctx, req.DoctorID, req.AppointmentDate)
		if err != nil {
			return nil, false, err
		}
		if closed.Has(*req.AppointmentTime) {
			return nil, false, ErrSlotClosed
		}
	}

	// 5. Atomic insert
	res := &Reservation{
		ServiceType:    req.ServiceType,
		VenueID:        req.VenueID,
		MemberID:       p.MemberID,
		ReserverName:   strings.TrimSpace(req.ReserverName),
		PrimaryPhone:   strings.TrimSpace(req.PrimaryPhone),
		SecondaryPhone: strings.TrimSpace(req.SecondaryPhone),
		PetName:        strings.TrimSpace(req.PetName),
		PetBirthYear:   req.PetBirthYear,
		Memo:           req.Memo,
		Status:         StatusPending,
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.ServiceType == schedule.ServiceHospital {
		res.DoctorID = req.DoctorID
		res.AppointmentDate = req.AppointmentDate
		res.AppointmentTime = *req.AppointmentTime
		res.PetSpecies = strings.TrimSpace(req.PetSpecies)
		res.PetGender = strings.TrimSpace(req.PetGender)
	} else {
		res.CheckIn = req.CheckIn
		res.CheckOut = req.CheckOut
	}

	if err := s.repo.Create(ctx, res); err != nil {
		if errors.Is(err, ErrDuplicateRequest) {
			existing, getErr := s.repo.GetByIdempotencyKey(ctx, p.MemberID, req.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, true, nil
		}
		return nil, false, err
	}

	s.logger.Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("service_type", string(res.ServiceType)),
		zap.String("venue_id", res.VenueID),
		zap.String("doctor_id", res.DoctorID),
		zap.Stringer("event_date", res.EventDate()),
		zap.String("member_id", res.MemberID),
	)
	s.notifier.Notify(ctx, notify.Event{
		Type:          notify.EventReservationCreated,
		ReservationID: res.ID,
		MemberID:      res.MemberID,
		VenueID:       res.VenueID,
		DoctorID:      res.DoctorID,
		To:            string(res.Status),
		OccurredAt:    s.clock.Now(),
	})

	return res, false, nil
}

// validate collects field-level problems without touching storage.
func (s *service) validate(req CreateRequest, today schedule.Date) map[string]string {
	details := map[string]string{}
	required := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			details[field] = "required"
		}
	}

	required("venue_id", req.VenueID)
	required("reserver_name", req.ReserverName)
	required("primary_phone", req.PrimaryPhone)
	required("pet_name", req.PetName)
	if req.PetBirthYear < minPetBirthYear || req.PetBirthYear > today.Year {
		details["pet_birth_year"] = fmt.Sprintf("must be between %d and %d", minPetBirthYear, today.Year)
	}

	switch req.ServiceType {
	case schedule.ServiceHospital:
		required("doctor_id", req.DoctorID)
		if req.AppointmentDate.IsZero() {
			details["appointment_date"] = "required"
		}
		switch {
		case req.AppointmentTime == nil:
			details["appointment_time"] = "required"
		case !s.catalog.Contains(*req.AppointmentTime):
			details["appointment_time"] = "not a bookable slot"
		}
		if !req.CheckIn.IsZero() {
			details["check_in"] = "hotel only"
		}
		if !req.CheckOut.IsZero() {
			details["check_out"] = "hotel only"
		}
	case schedule.ServiceHotel:
		if req.DoctorID != "" {
			details["doctor_id"] = "hospital only"
		}
		if !req.AppointmentDate.IsZero() {
			details["appointment_date"] = "hospital only"
		}
		if req.AppointmentTime != nil {
			details["appointment_time"] = "hospital only"
		}
		if req.PetSpecies != "" {
			details["pet_species"] = "hospital only"
		}
		if req.PetGender != "" {
			details["pet_gender"] = "hospital only"
		}
		switch {
		case req.CheckIn.IsZero() || req.CheckOut.IsZero():
			if req.CheckIn.IsZero() {
				details["check_in"] = "required"
			}
			if req.CheckOut.IsZero() {
				details["check_out"] = "required"
			}
		case !schedule.ValidStay(req.CheckIn, req.CheckOut):
			details["check_out"] = "must be after check_in"
		}
	default:
		details["service_type"] = "must be HOSPITAL or HOTEL"
	}

	return details
}

// checkDirectory records unknown venues and doctors as field errors.
func (s *service) checkDirectory(ctx context.Context, req CreateRequest, details map[string]string) error {
	if _, err := s.directory.GetVenue(ctx, req.VenueID); err != nil {
		if !errors.Is(err, directory.ErrVenueNotFound) {
			return err
		}
		details["venue_id"] = "not found"
	}

	if req.ServiceType != schedule.ServiceHospital {
		return nil
	}
	doc, err := s.directory.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		if !errors.Is(err, directory.ErrDoctorNotFound) {
			return err
		}
		details["doctor_id"] = "not found"
		return nil
	}
	if doc.VenueID != req.VenueID {
		details["doctor_id"] = "does not belong to venue"
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, p auth.Principal, id string) (*Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && res.MemberID != p.MemberID {
		return nil, ErrPermissionDenied
	}
	return res, nil
}

func (s *service) List(ctx context.Context, p auth.Principal, filter Filter) ([]*Reservation, int, error) {
	if !p.IsAdmin() {
		filter.MemberID = p.MemberID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Cancel(ctx context.Context, p auth.Principal, id string) (*Reservation, error) {
	today := s.today()

	res, prev, err := s.repo.UpdateStatus(ctx, id, func(cur *Reservation) (Status, error) {
		if cur.MemberID != p.MemberID {
			return "", ErrPermissionDenied
		}
		if !CanCancel(cur.Status, cur.EventDate(), today) {
			return "", cancelError(cur.Status)
		}
		return StatusCanceled, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation canceled by member",
		zap.String("reservation_id", res.ID),
		zap.String("member_id", p.MemberID),
		zap.String("from", string(prev)),
	)
	s.notifyStatus(ctx, res, prev)
	return res, nil
}

func (s *service) SetStatus(ctx context.Context, p auth.Principal, id string, status Status) (*Reservation, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.setStatus(ctx, id, status)
}

// setStatus applies an admin status change. Re-applying the current status succeeds without a write.
func (s *service) setStatus(ctx context.Context, id string, status Status) (*Reservation, error) {
	res, prev, err := s.repo.UpdateStatus(ctx, id, func(cur *Reservation) (Status, error) {
		if !CanAdminSet(cur.Status, status) {
			return "", ErrInvalidTransition
		}
		return status, nil
	})
	if err != nil {
		return nil, err
	}
	if prev == res.Status {
		return res, nil
	}

	fields := []zap.Field{
		zap.String("reservation_id", res.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(res.Status)),
	}
	if !prev.CanTransitionTo(res.Status) {
		s.logger.Warn("admin status change outside the reservation lifecycle", fields...)
	} else {
		s.logger.Info("reservation status changed", fields...)
	}
	s.notifyStatus(ctx, res, prev)
	return res, nil
}

func (s *service) notifyStatus(ctx context.Context, res *Reservation, prev Status) {
	s.notifier.Notify(ctx, notify.Event{
		Type:          notify.EventReservationStatusChanged,
		ReservationID: res.ID,
		MemberID:      res.MemberID,
		VenueID:       res.VenueID,
		DoctorID:      res.DoctorID,
		From:          string(prev),
		To:            string(res.Status),
		OccurredAt:    s.clock.Now(),
	})
}

func (s *service) IsCancelable(r *Reservation) bool {
	return CanCancel(r.Status, r.EventDate(), s.today())
}
