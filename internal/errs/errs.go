package errs

import (
	cr "github.com/cockroachdb/errors"
)

func New(msg string) error {
	return cr.New(msg)
}

func Newf(format string, args ...any) error {
	return cr.Newf(format, args...)
}

func Is(err, reference error) bool {
	return cr.Is(err, reference)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Mark attaches a sentinel to err so errors.Is(result, markErr) holds
// while the original cause stays visible in the message and chain.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// Combine keeps both causes when a secondary failure happens while
// handling a primary one (e.g. a rollback failing after a failed step).
func Combine(err, otherErr error) error {
	return cr.CombineErrors(err, otherErr)
}
