package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines read access to the venue/doctor directory.
type Repository interface {
	GetVenue(ctx context.Context, id string) (*Venue, error)
	ListVenues(ctx context.Context, filter VenueFilter) ([]*Venue, int, error)
	GetDoctor(ctx context.Context, id string) (*Doctor, error)
	ListDoctors(ctx context.Context, filter DoctorFilter) ([]*Doctor, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetVenue(ctx context.Context, id string) (*Venue, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "created_at").
		From("public.venues").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get venue query failed: %w", err)
	}

	var v Venue
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("get venue failed: %w", err)
	}
	return &v, nil
}

func (r *pgxRepository) ListVenues(ctx context.Context, filter VenueFilter) ([]*Venue, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("id", "name", "created_at", "count(*) OVER() as total_count").
		From("public.venues")

	if filter.Keyword != "" {
		query = query.Where(squirrel.ILike{"name": "%" + filter.Keyword + "%"})
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query = query.OrderBy("name ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list venues query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list venues failed: %w", err)
	}
	defer rows.Close()

	var venues []*Venue
	var total int
	for rows.Next() {
		var v Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan venue failed: %w", err)
		}
		venues = append(venues, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate venues failed: %w", err)
	}

	return venues, total, nil
}

func (r *pgxRepository) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("d.id", "d.venue_id", "v.name", "d.name", "d.created_at").
		From("public.doctors d").
		Join("public.venues v ON d.venue_id = v.id").
		Where(squirrel.Eq{"d.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get doctor query failed: %w", err)
	}

	var d Doctor
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&d.ID, &d.VenueID, &d.VenueName, &d.Name, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor failed: %w", err)
	}
	return &d, nil
}

func (r *pgxRepository) ListDoctors(ctx context.Context, filter DoctorFilter) ([]*Doctor, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("d.id", "d.venue_id", "v.name", "d.name", "d.created_at", "count(*) OVER() as total_count").
		From("public.doctors d").
		Join("public.venues v ON d.venue_id = v.id")

	if filter.VenueID != "" {
		query = query.Where(squirrel.Eq{"d.venue_id": filter.VenueID})
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query = query.OrderBy("d.name ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list doctors query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors failed: %w", err)
	}
	defer rows.Close()

	var doctors []*Doctor
	var total int
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.VenueID, &d.VenueName, &d.Name, &d.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan doctor failed: %w", err)
		}
		doctors = append(doctors, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doctors failed: %w", err)
	}

	return doctors, total, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
