package apperr

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the services care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// conflictMessages maps unique constraint names from the schema to user-facing text.
var conflictMessages = map[string]string{
	"organizations_username_key":      "organization username already taken",
	"organizations_join_code_key":     "join code already in use",
	"user_organizations_user_org_key": "user is already a member of this organization",
	"event_attendees_event_user_key":  "user is already an attendee of this event",
	"credentials_username_key":        "username already taken",
	"users_email_key":                 "email already registered",
	"roles_org_name_key":              "role already exists in this organization",
}

// FromPostgres classifies an error returned by pgx. op names the failed
// operation and prefixes the message of internal and unavailable errors.
func FromPostgres(err error, op string) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound(op+": not found", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			msg, ok := conflictMessages[pgErr.ConstraintName]
			if !ok {
				msg = op + ": already exists"
			}
			return Conflict(msg, err)
		case pgErr.Code == codeForeignKeyViolation:
			return NotFound(op+": referenced record does not exist", err)
		case pgErr.Code == codeCheckViolation, pgErr.Code == codeNotNullViolation, strings.HasPrefix(pgErr.Code, "22"):
			return &Error{Kind: KindValidation, Message: op + ": invalid value", Err: err}
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return Unavailable(op+": database unavailable", err)
		}
		return Internal(op+" failed", err)
	}
	if isUnavailable(err) {
		return Unavailable(op+": database unavailable", err)
	}
	return Internal(op+" failed", err)
}

func isUnavailable(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err)
}
