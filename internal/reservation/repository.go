package reservation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heejin0702/anpetna-care/internal/db"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

// StatusFunc decides the next status of a locked reservation. Returning the current status leaves
// the row untouched.
type StatusFunc func(current *Reservation) (Status, error)

type Repository interface {
	// Create inserts r with slot or stay exclusivity enforced in the same atomic step. A hospital
	// create also fails with ErrSlotClosed when the closure ledger visible to the store has the slot.
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	GetByIdempotencyKey(ctx context.Context, memberID, key string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)

	// UpdateStatus locks the reservation, asks fn for the next status and stores it.
	// It returns the stored reservation and the status it had before.
	UpdateStatus(ctx context.Context, id string, fn StatusFunc) (*Reservation, Status, error)

	// OccupiedTimes lists the appointment times of the doctor's reservations on date in any of statuses.
	OccupiedTimes(ctx context.Context, doctorID string, date schedule.Date, statuses ...Status) (schedule.TimeSet, error)

	// HasStayOverlap checks for an active stay at the venue sharing a day with [checkIn, checkOut].
	// excludeID is ignored when empty.
	HasStayOverlap(ctx context.Context, venueID string, checkIn, checkOut schedule.Date, excludeID string) (bool, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	slotUniqueIndex        = "reservations_slot_uniq"
	idempotencyUniqueIndex = "reservations_idempotency_uniq"
)

var selectColumns = []string{
	"r.id", "r.service_type", "r.venue_id", "v.name", "r.doctor_id", "d.name",
	"r.appointment_date", "r.appointment_time", "r.check_in", "r.check_out",
	"r.member_id", "r.reserver_name", "r.primary_phone", "r.secondary_phone",
	"r.pet_name", "r.pet_birth_year", "r.pet_species", "r.pet_gender", "r.memo",
	"r.status", "r.idempotency_key", "r.created_at", "r.updated_at",
}

var sortColumns = map[string]string{
	SortByCreatedAt: "r.created_at",
	SortByUpdatedAt: "r.updated_at",
	SortByEventDate: "COALESCE(r.appointment_date, r.check_in)",
	SortByStatus:    "r.status",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func baseSelect(extra ...string) squirrel.SelectBuilder {
	return psql().Select(slices.Concat(selectColumns, extra)...).
		From("public.reservations r").
		Join("public.venues v ON r.venue_id = v.id").
		LeftJoin("public.doctors d ON r.doctor_id = d.id")
}

// lockKey serializes creates competing for the same venue's stays, or for the same doctor day
// together with closure changes on it.
func lockKey(r *Reservation) string {
	if r.ServiceType == schedule.ServiceHotel {
		return "venue-stays:" + r.VenueID
	}
	return schedule.DoctorDayKey(r.DoctorID, r.AppointmentDate)
}

func (r *pgxRepository) Create(ctx context.Context, res *Reservation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := db.AdvisoryLock(ctx, tx, lockKey(res)); err != nil {
		return err
	}

	if res.IdempotencyKey != "" {
		if _, err := getByIdempotencyKey(ctx, tx, res.MemberID, res.IdempotencyKey); err == nil {
			return ErrDuplicateRequest
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	switch res.ServiceType {
	case schedule.ServiceHospital:
		taken, err := slotTaken(ctx, tx, res.DoctorID, res.AppointmentDate, res.AppointmentTime)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotConflict
		}

		closed, err := slotClosed(ctx, tx, res.DoctorID, res.AppointmentDate, res.AppointmentTime)
		if err != nil {
			return err
		}
		if closed {
			return ErrSlotClosed
		}
	case schedule.ServiceHotel:
		overlap, err := hasStayOverlap(ctx, tx, res.VenueID, res.CheckIn, res.CheckOut, "")
		if err != nil {
			return err
		}
		if overlap {
			return ErrStayConflict
		}
	}

	query, args, err := psql().Insert("public.reservations").
		Columns(
			"service_type", "venue_id", "doctor_id",
			"appointment_date", "appointment_time", "check_in", "check_out",
			"member_id", "reserver_name", "primary_phone", "secondary_phone",
			"pet_name", "pet_birth_year", "pet_species", "pet_gender", "memo",
			"status", "idempotency_key",
		).
		Values(
			res.ServiceType, res.VenueID, nullText(res.DoctorID),
			db.Date(res.AppointmentDate), appointmentTime(res), db.Date(res.CheckIn), db.Date(res.CheckOut),
			res.MemberID, res.ReserverName, res.PrimaryPhone, nullText(res.SecondaryPhone),
			res.PetName, res.PetBirthYear, nullText(res.PetSpecies), nullText(res.PetGender), nullText(res.Memo),
			res.Status, nullText(res.IdempotencyKey),
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return mapWriteError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// mapWriteError turns constraint violations raised by the schema into domain errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			switch pgErr.ConstraintName {
			case idempotencyUniqueIndex:
				return ErrDuplicateRequest
			case slotUniqueIndex:
				return ErrSlotConflict
			}
		case pgerrcode.ExclusionViolation:
			return ErrStayConflict
		}
	}
	return fmt.Errorf("create reservation failed: %w", err)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	return getByID(ctx, r.pool, id, false)
}

func getByID(ctx context.Context, q querier, id string, forUpdate bool) (*Reservation, error) {
	builder := baseSelect().Where(squirrel.Eq{"r.id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE OF r")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	res, err := scanReservation(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) GetByIdempotencyKey(ctx context.Context, memberID, key string) (*Reservation, error) {
	return getByIdempotencyKey(ctx, r.pool, memberID, key)
}

func getByIdempotencyKey(ctx context.Context, q querier, memberID, key string) (*Reservation, error) {
	query, args, err := baseSelect().
		Where(squirrel.Eq{"r.member_id": memberID}).
		Where(squirrel.Eq{"r.idempotency_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation by idempotency key query failed: %w", err)
	}

	res, err := scanReservation(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation by idempotency key failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	query := baseSelect("count(*) OVER() as total_count")

	if filter.VenueID != "" {
		query = query.Where(squirrel.Eq{"r.venue_id": filter.VenueID})
	}
	if filter.ServiceType != "" {
		query = query.Where(squirrel.Eq{"r.service_type": filter.ServiceType})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"r.status": filter.Status})
	}
	if filter.DoctorID != "" {
		query = query.Where(squirrel.Eq{"r.doctor_id": filter.DoctorID})
	}
	if filter.MemberID != "" {
		query = query.Where(squirrel.Eq{"r.member_id": filter.MemberID})
	}
	if filter.Date != nil {
		d := db.Date(*filter.Date)
		query = query.Where(squirrel.Or{
			squirrel.Eq{"r.appointment_date": d},
			squirrel.And{
				squirrel.LtOrEq{"r.check_in": d},
				squirrel.GtOrEq{"r.check_out": d},
			},
		})
	}

	// Sorting
	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = sortColumns[SortByCreatedAt]
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "r.id "+orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var reservations []*Reservation
	var total int
	for rows.Next() {
		res, err := scanReservation(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reservations failed: %w", err)
	}

	return reservations, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, fn StatusFunc) (*Reservation, Status, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := getByID(ctx, tx, id, true)
	if err != nil {
		return nil, "", err
	}
	prev := res.Status

	next, err := fn(res)
	if err != nil {
		return nil, prev, err
	}
	if next == prev {
		return res, prev, nil
	}

	query, args, err := psql().Update("public.reservations").
		Set("status", next).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, prev, fmt.Errorf("build update reservation status query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&res.UpdatedAt); err != nil {
		return nil, prev, fmt.Errorf("update reservation status failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, prev, fmt.Errorf("commit transaction: %w", err)
	}

	res.Status = next
	return res, prev, nil
}

func (r *pgxRepository) OccupiedTimes(ctx context.Context, doctorID string, date schedule.Date, statuses ...Status) (schedule.TimeSet, error) {
	query, args, err := psql().Select("appointment_time").
		From("public.reservations").
		Where(squirrel.Eq{"doctor_id": doctorID}).
		Where(squirrel.Eq{"appointment_date": db.Date(date)}).
		Where(squirrel.Eq{"status": statusStrings(statuses)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build occupied times query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("occupied times failed: %w", err)
	}
	defer rows.Close()

	times := schedule.NewTimeSet()
	for rows.Next() {
		var t pgtype.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan occupied time failed: %w", err)
		}
		times.Add(db.TimeOfDay(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occupied times failed: %w", err)
	}
	return times, nil
}

func (r *pgxRepository) HasStayOverlap(ctx context.Context, venueID string, checkIn, checkOut schedule.Date, excludeID string) (bool, error) {
	return hasStayOverlap(ctx, r.pool, venueID, checkIn, checkOut, excludeID)
}

func hasStayOverlap(ctx context.Context, q querier, venueID string, checkIn, checkOut schedule.Date, excludeID string) (bool, error) {
	// Inclusive on both ends: (NewIn <= ExistingOut) AND (NewOut >= ExistingIn)
	subQuery := psql().Select("1").
		From("public.reservations").
		Where(squirrel.Eq{"venue_id": venueID}).
		Where(squirrel.Eq{"service_type": schedule.ServiceHotel}).
		Where(squirrel.Eq{"status": statusStrings(ActiveStatuses)}).
		Where(squirrel.LtOrEq{"check_in": db.Date(checkOut)}).
		Where(squirrel.GtOrEq{"check_out": db.Date(checkIn)})

	if excludeID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check stay overlap query failed: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check stay overlap failed: %w", err)
	}
	return exists, nil
}

func slotTaken(ctx context.Context, q querier, doctorID string, date schedule.Date, t schedule.TimeOfDay) (bool, error) {
	sql, args, err := psql().Select("1").
		From("public.reservations").
		Where(squirrel.Eq{"doctor_id": doctorID}).
		Where(squirrel.Eq{"appointment_date": db.Date(date)}).
		Where(squirrel.Eq{"appointment_time": db.Time(t)}).
		Where(squirrel.Eq{"status": statusStrings(ActiveStatuses)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build check slot query failed: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot failed: %w", err)
	}
	return exists, nil
}

// slotClosed reads the closure ledger inside the create transaction, after the doctor day lock.
func slotClosed(ctx context.Context, q querier, doctorID string, date schedule.Date, t schedule.TimeOfDay) (bool, error) {
	sql, args, err := psql().Select("1").
		From("public.closures").
		Where(squirrel.Eq{"doctor_id": doctorID}).
		Where(squirrel.Eq{"closed_date": db.Date(date)}).
		Where(squirrel.Eq{"closed_time": db.Time(t)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build check closure query failed: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check closure failed: %w", err)
	}
	return exists, nil
}

func scanReservation(row pgx.Row, extra ...any) (*Reservation, error) {
	var (
		res                             Reservation
		doctorID, doctorName            pgtype.Text
		secondaryPhone, species, gender pgtype.Text
		memo, idempotencyKey            pgtype.Text
		apptDate, checkIn, checkOut     pgtype.Date
		apptTime                        pgtype.Time
	)

	dest := []any{
		&res.ID, &res.ServiceType, &res.VenueID, &res.VenueName, &doctorID, &doctorName,
		&apptDate, &apptTime, &checkIn, &checkOut,
		&res.MemberID, &res.ReserverName, &res.PrimaryPhone, &secondaryPhone,
		&res.PetName, &res.PetBirthYear, &species, &gender, &memo,
		&res.Status, &idempotencyKey, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	res.DoctorID = doctorID.String
	res.DoctorName = doctorName.String
	res.AppointmentDate = db.ScheduleDate(apptDate)
	res.AppointmentTime = db.TimeOfDay(apptTime)
	res.CheckIn = db.ScheduleDate(checkIn)
	res.CheckOut = db.ScheduleDate(checkOut)
	res.SecondaryPhone = secondaryPhone.String
	res.PetSpecies = species.String
	res.PetGender = gender.String
	res.Memo = memo.String
	res.IdempotencyKey = idempotencyKey.String
	return &res, nil
}

func appointmentTime(r *Reservation) pgtype.Time {
	if r.ServiceType != schedule.ServiceHospital {
		return pgtype.Time{}
	}
	return db.Time(r.AppointmentTime)
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
