package repository

import (
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zvrva/skybooker/internal/errs"
)

// ErrDuplicateKey marks inserts rejected by a uniqueness constraint, e.g.
// a booking code collision or a repeated flight number. Callers that
// generate their key regenerate and retry.
var ErrDuplicateKey = errs.New("duplicate key")

const uniqueViolationCode = "23505"

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
