package postgres

import (
	"context"
	"fmt"

	"selftape/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AvailabilityRepo implements repository.AvailabilityRepository on Postgres.
type AvailabilityRepo struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepo(pool *pgxpool.Pool) *AvailabilityRepo {
	return &AvailabilityRepo{pool: pool}
}

func (r *AvailabilityRepo) ListByReader(ctx context.Context, readerID string) ([]models.AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, reader_id::text, day_of_week, start_min, end_min
FROM availability_slots
WHERE reader_id = $1
ORDER BY day_of_week, start_min
`, readerID)
	if err != nil {
		return nil, mapError(err)
	}
	slots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AvailabilitySlot, error) {
		var s models.AvailabilitySlot
		err := row.Scan(&s.ID, &s.ReaderID, &s.DayOfWeek, &s.StartMin, &s.EndMin)
		return s, err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return slots, nil
}

func (r *AvailabilityRepo) Replace(ctx context.Context, readerID string, slots []models.AvailabilitySlot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM availability_slots WHERE reader_id = $1`, readerID); err != nil {
		return fmt.Errorf("clear availability: %w", mapError(err))
	}

	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(`
INSERT INTO availability_slots (id, reader_id, day_of_week, start_min, end_min)
VALUES ($1, $2, $3, $4, $5)
`, uuid.NewString(), readerID, s.DayOfWeek, s.StartMin, s.EndMin)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert availability: %w", mapError(err))
		}
	}
	return tx.Commit(ctx)
}
