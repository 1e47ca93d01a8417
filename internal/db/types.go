package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/heejin0702/anpetna-care/internal/schedule"
)

// Date converts a calendar date into its pgx representation.
func Date(d schedule.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.UTCMidnight(), Valid: true}
}

// ScheduleDate converts a scanned DATE back; NULL becomes the zero Date.
func ScheduleDate(d pgtype.Date) schedule.Date {
	if !d.Valid {
		return schedule.Date{}
	}
	return schedule.DateOf(d.Time)
}

// Time converts a time of day into a TIME value.
func Time(t schedule.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

// TimeOfDay converts a scanned TIME back, truncating to the minute.
func TimeOfDay(t pgtype.Time) schedule.TimeOfDay {
	if !t.Valid {
		return 0
	}
	return schedule.TimeOfDay(t.Microseconds / 60_000_000)
}

// AdvisoryLock takes a transaction-scoped advisory lock on key. It is released on commit or rollback.
func AdvisoryLock(ctx context.Context, tx pgx.Tx, key string) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
		return fmt.Errorf("advisory lock %q failed: %w", key, err)
	}
	return nil
}
