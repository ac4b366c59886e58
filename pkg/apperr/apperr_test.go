package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestFromPostgres_UniqueViolationUsesConstraintMessage(t *testing.T) {
	err := FromPostgres(&pgconn.PgError{Code: "23505", ConstraintName: "organizations_join_code_key"}, "create organization")

	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "join code already in use", MessageOf(err, ""))
}

func TestFromPostgres_UnknownUniqueConstraint(t *testing.T) {
	err := FromPostgres(&pgconn.PgError{Code: "23505", ConstraintName: "something_else"}, "create thing")

	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "create thing: already exists", MessageOf(err, ""))
}

func TestFromPostgres_Kinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"no rows", pgx.ErrNoRows, KindNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), KindNotFound},
		{"foreign key", &pgconn.PgError{Code: "23503"}, KindNotFound},
		{"check", &pgconn.PgError{Code: "23514"}, KindValidation},
		{"bad text", &pgconn.PgError{Code: "22P02"}, KindValidation},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, KindUnavailable},
		{"connection failure", &pgconn.PgError{Code: "08006"}, KindUnavailable},
		{"deadline", context.DeadlineExceeded, KindUnavailable},
		{"syntax", &pgconn.PgError{Code: "42601"}, KindInternal},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(FromPostgres(tc.err, "op")))
		})
	}
}

func TestFromPostgres_KeepsClassifiedErrors(t *testing.T) {
	orig := Validation("name must be at least %d characters", 3)
	assert.Same(t, orig, FromPostgres(orig, "op"))
	assert.Nil(t, FromPostgres(nil, "op"))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := fmt.Errorf("outer: %w", Unavailable("db down", cause))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, Is(err, KindUnavailable))
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, "fallback", MessageOf(cause, "fallback"))
}
