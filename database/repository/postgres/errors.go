package postgres

import (
	"errors"

	"selftape/database/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
	fkViolation        = "23503"
	invalidText        = "22P02"
)

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return repository.ErrConflict
		case exclusionViolation:
			return repository.ErrOverlap
		case fkViolation, invalidText:
			return repository.ErrNotFound
		}
	}
	return err
}
