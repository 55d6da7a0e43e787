package service

import (
	"errors"

	"complaint-service/internal/apperr"
	"complaint-service/internal/repository"
)

// notFoundOr converts a missing-row error to a NotFound with msg and anything else to an
// Unexpected failure.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Unexpected("database error", err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}

func isReferenced(err error) bool {
	return errors.Is(err, repository.ErrReferenced)
}

// userConflict names the field a unique violation on the users table hit. The default
// Postgres constraint names come from the UNIQUE columns in the users migration.
func userConflict(err error) error {
	switch repository.DuplicateConstraint(err) {
	case "users_username_key":
		return apperr.Conflict("username already taken")
	case "users_email_key":
		return apperr.Conflict("email already registered")
	default:
		return apperr.Conflict("username or email already registered")
	}
}
