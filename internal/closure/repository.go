package closure

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heejin0702/anpetna-care/internal/db"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

// UpdateFunc computes the new closed set from the stored one.
type UpdateFunc func(current schedule.TimeSet) (schedule.TimeSet, error)

type Repository interface {
	GetClosed(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error)
	// Update runs fn and stores its result while holding the doctor's day exclusively. Reservation
	// creates for the same day wait on the same key.
	Update(ctx context.Context, doctorID string, date schedule.Date, fn UpdateFunc) (schedule.TimeSet, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *pgxRepository) GetClosed(ctx context.Context, doctorID string, date schedule.Date) (schedule.TimeSet, error) {
	return getClosed(ctx, r.pool, doctorID, date)
}

func getClosed(ctx context.Context, q querier, doctorID string, date schedule.Date) (schedule.TimeSet, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("closed_time").
		From("public.closures").
		Where(squirrel.Eq{"doctor_id": doctorID}).
		Where(squirrel.Eq{"closed_date": db.Date(date)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get closures query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get closures failed: %w", err)
	}
	defer rows.Close()

	closed := schedule.NewTimeSet()
	for rows.Next() {
		var t pgtype.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan closure failed: %w", err)
		}
		closed.Add(db.TimeOfDay(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closures failed: %w", err)
	}
	return closed, nil
}

func (r *pgxRepository) Update(ctx context.Context, doctorID string, date schedule.Date, fn UpdateFunc) (schedule.TimeSet, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := db.AdvisoryLock(ctx, tx, schedule.DoctorDayKey(doctorID, date)); err != nil {
		return nil, err
	}

	current, err := getClosed(ctx, tx, doctorID, date)
	if err != nil {
		return nil, err
	}

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	if removed := current.Minus(next); removed.Len() > 0 {
		query, args, err := psql.Delete("public.closures").
			Where(squirrel.Eq{"doctor_id": doctorID}).
			Where(squirrel.Eq{"closed_date": db.Date(date)}).
			Where(squirrel.Eq{"closed_time": pgTimes(removed)}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build delete closures query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("delete closures failed: %w", err)
		}
	}

	if added := next.Minus(current); added.Len() > 0 {
		insert := psql.Insert("public.closures").Columns("doctor_id", "closed_date", "closed_time")
		for _, t := range added.Sorted() {
			insert = insert.Values(doctorID, db.Date(date), db.Time(t))
		}
		query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert closures query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("insert closures failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return next, nil
}

func pgTimes(s schedule.TimeSet) []pgtype.Time {
	sorted := s.Sorted()
	out := make([]pgtype.Time, len(sorted))
	for i, t := range sorted {
		out[i] = db.Time(t)
	}
	return out
}
