package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"selftape/database/repository"
	"selftape/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id::text, reader_id::text, actor_name, actor_email, actor_timezone,
  start_time, end_time, duration_min, price_cents, platform_fee_cents, status,
  meeting_url, notes, checkout_session_id, created_at, updated_at`

// BookingRepo implements repository.BookingRepository on Postgres.
type BookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(
		&b.ID, &b.ReaderID, &b.ActorName, &b.ActorEmail, &b.ActorTimezone,
		&b.StartTime, &b.EndTime, &b.DurationMin, &b.PriceCents, &b.PlatformFeeCents, &status,
		&b.MeetingURL, &b.Notes, &b.CheckoutSessionID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	b.Status = models.BookingStatus(status)
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]models.Booking, error) {
	defer rows.Close()
	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, mapError(rows.Err())
}

// CreatePending locks the reader row so concurrent requests for the same
// reader serialize on the overlap check. The exclusion constraint backs it up.
func (r *BookingRepo) CreatePending(ctx context.Context, b *models.Booking, buffer time.Duration) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var readerID string
	if err := tx.QueryRow(ctx, `SELECT id::text FROM readers WHERE id = $1 FOR UPDATE`, b.ReaderID).Scan(&readerID); err != nil {
		return mapError(err)
	}

	var clash bool
	err = tx.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM bookings
  WHERE reader_id = $1
    AND status IN ('PENDING', 'PAID')
    AND start_time < $3
    AND end_time > $2
)`, b.ReaderID, b.StartTime.Add(-buffer), b.EndTime.Add(buffer)).Scan(&clash)
	if err != nil {
		return fmt.Errorf("check overlap: %w", mapError(err))
	}
	if clash {
		return repository.ErrOverlap
	}

	_, err = tx.Exec(ctx, `
INSERT INTO bookings (id, reader_id, actor_name, actor_email, actor_timezone,
  start_time, end_time, duration_min, price_cents, platform_fee_cents, status,
  meeting_url, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
`, b.ID, b.ReaderID, b.ActorName, b.ActorEmail, b.ActorTimezone,
		b.StartTime, b.EndTime, b.DurationMin, b.PriceCents, b.PlatformFeeCents, string(b.Status),
		b.MeetingURL, b.Notes, b.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	return mapError(tx.Commit(ctx))
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *BookingRepo) ListActiveInRange(ctx context.Context, readerID string, from, to time.Time) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+bookingColumns+`
FROM bookings
WHERE reader_id = $1
  AND status IN ('PENDING', 'PAID')
  AND start_time < $3
  AND end_time > $2
ORDER BY start_time
`, readerID, from, to)
	if err != nil {
		return nil, mapError(err)
	}
	return collectBookings(rows)
}

func (r *BookingRepo) ListByReader(ctx context.Context, readerID string, since *time.Time, limit int) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+bookingColumns+`
FROM bookings
WHERE reader_id = $1
  AND ($2::timestamptz IS NULL OR end_time > $2)
ORDER BY start_time
LIMIT $3
`, readerID, since, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return collectBookings(rows)
}

func (r *BookingRepo) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	return r.setField(ctx, `UPDATE bookings SET checkout_session_id = $2, updated_at = NOW() WHERE id = $1`, id, sessionID)
}

func (r *BookingRepo) SetMeetingURL(ctx context.Context, id, url string) error {
	return r.setField(ctx, `UPDATE bookings SET meeting_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
}

func (r *BookingRepo) setField(ctx context.Context, sql, id, value string) error {
	tag, err := r.pool.Exec(ctx, sql, id, value)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BookingRepo) Transition(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, bool, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `
UPDATE bookings SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2
RETURNING `+bookingColumns, id, string(from), string(to)))
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}
