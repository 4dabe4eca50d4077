package pgdb

import (
	"errors"

	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

func postgresDuplicate(err error) bool {
	return pgErrCode(err) == uniqueViolation
}

// notFound превращает pgx.ErrNoRows в NotFoundError.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return e.NewNotFoundError(entity, id)
	}

	return err
}

// constraintError превращает нарушения ограничений в ошибки валидации поля.
func constraintError(err error, field string) error {
	switch pgErrCode(err) {
	case uniqueViolation:
		return e.NewValidationError(field, "has already been taken")
	case foreignKeyViolation:
		return e.NewValidationError(field, "must exist")
	case checkViolation:
		return e.NewValidationError(field, "is invalid")
	}

	return err
}
