package postgres

import (
	"context"
	"fmt"
	"time"

	"selftape/database/repository"
	"selftape/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const readerColumns = `id::text, display_name, email, phone, city, bio, headshot_url,
  playable_age_min, playable_age_max, gender, unions, languages, specialties, links,
  rate_per_15_min, rate_per_30_min, rate_per_60_min, stripe_account_id, timezone,
  max_advance_days, min_notice_hours, buffer_minutes, accepts_terms, marketing_opt_in,
  stripe_customer_id, stripe_subscription_id, subscription_status, subscription_ends_at,
  created_at, updated_at`

// ReaderRepo implements repository.ReaderRepository on Postgres.
type ReaderRepo struct {
	pool *pgxpool.Pool
}

func NewReaderRepo(pool *pgxpool.Pool) *ReaderRepo {
	return &ReaderRepo{pool: pool}
}

func scanReader(row pgx.Row) (*models.Reader, error) {
	var r models.Reader
	err := row.Scan(
		&r.ID, &r.DisplayName, &r.Email, &r.Phone, &r.City, &r.Bio, &r.HeadshotURL,
		&r.PlayableAgeMin, &r.PlayableAgeMax, &r.Gender, &r.Unions, &r.Languages, &r.Specialties, &r.Links,
		&r.RatePer15Min, &r.RatePer30Min, &r.RatePer60Min, &r.StripeAccountID, &r.Timezone,
		&r.MaxAdvanceDays, &r.MinNoticeHours, &r.BufferMinutes, &r.AcceptsTerms, &r.MarketingOptIn,
		&r.StripeCustomerID, &r.StripeSubscriptionID, &r.SubscriptionStatus, &r.SubscriptionEndsAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *ReaderRepo) Create(ctx context.Context, rd *models.Reader) error {
	links := rd.Links
	if links == nil {
		links = []models.Link{}
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO readers (id, display_name, email, phone, city, bio, headshot_url,
  playable_age_min, playable_age_max, gender, unions, languages, specialties, links,
  rate_per_15_min, rate_per_30_min, rate_per_60_min, timezone,
  max_advance_days, min_notice_hours, buffer_minutes, accepts_terms, marketing_opt_in,
  created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
  $19, $20, $21, $22, $23, $24, $24)
`, rd.ID, rd.DisplayName, rd.Email, rd.Phone, rd.City, rd.Bio, rd.HeadshotURL,
		rd.PlayableAgeMin, rd.PlayableAgeMax, rd.Gender, nonNil(rd.Unions), nonNil(rd.Languages), nonNil(rd.Specialties), links,
		rd.RatePer15Min, rd.RatePer30Min, rd.RatePer60Min, rd.Timezone,
		rd.MaxAdvanceDays, rd.MinNoticeHours, rd.BufferMinutes, rd.AcceptsTerms, rd.MarketingOptIn,
		rd.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reader: %w", mapError(err))
	}
	return nil
}

func (r *ReaderRepo) GetByID(ctx context.Context, id string) (*models.Reader, error) {
	return scanReader(r.pool.QueryRow(ctx, `SELECT `+readerColumns+` FROM readers WHERE id = $1`, id))
}

func (r *ReaderRepo) GetByEmail(ctx context.Context, email string) (*models.Reader, error) {
	return scanReader(r.pool.QueryRow(ctx, `SELECT `+readerColumns+` FROM readers WHERE lower(email) = lower($1)`, email))
}

func (r *ReaderRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Reader, error) {
	if subscriptionID == "" {
		return nil, repository.ErrNotFound
	}
	return scanReader(r.pool.QueryRow(ctx, `SELECT `+readerColumns+` FROM readers WHERE stripe_subscription_id = $1`, subscriptionID))
}

func (r *ReaderRepo) UpdateSettings(ctx context.Context, id string, s models.ReaderSettings) (*models.Reader, error) {
	return scanReader(r.pool.QueryRow(ctx, `
UPDATE readers SET
  max_advance_days = $2,
  min_notice_hours = $3,
  buffer_minutes = $4,
  timezone = $5,
  updated_at = NOW()
WHERE id = $1
RETURNING `+readerColumns,
		id, s.MaxAdvanceDays, s.MinNoticeHours, s.BufferMinutes, s.Timezone))
}

func (r *ReaderRepo) SetStripeAccount(ctx context.Context, id, accountID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE readers SET stripe_account_id = $2, updated_at = NOW() WHERE id = $1`, id, accountID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ReaderRepo) UpdateSubscription(ctx context.Context, id string, u models.SubscriptionUpdate) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE readers SET
  stripe_customer_id = COALESCE(NULLIF($2, ''), stripe_customer_id),
  stripe_subscription_id = COALESCE(NULLIF($3, ''), stripe_subscription_id),
  subscription_status = $4,
  subscription_ends_at = $5,
  updated_at = $6
WHERE id = $1
`, id, u.CustomerID, u.SubscriptionID, u.Status, u.PeriodEnd, time.Now().UTC())
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
