package auth

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
)

// Repository handles user and credential persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts a user and its credentials in one transaction.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email) VALUES ($1)
			 RETURNING id, name, email, onboarded, created_at, updated_at`,
			email,
		).Scan(&u.ID, &u.Name, &u.Email, &u.Onboarded, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO credentials (user_id, username, password_hash) VALUES ($1, $2, $3)`,
			u.ID, username, passwordHash,
		)
		return err
	})
	if err != nil {
		return nil, apperr.FromPostgres(err, "create user")
	}
	return &u, nil
}

// GetCredentialsByUsername returns the credential row used to sign in.
func (r *Repository) GetCredentialsByUsername(ctx context.Context, username string) (*models.Credentials, error) {
	var c models.Credentials
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, username, password_hash, created_at FROM credentials WHERE username = $1`,
		username,
	).Scan(&c.ID, &c.UserID, &c.Username, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, apperr.FromPostgres(err, "credentials")
	}
	return &c, nil
}

// UsernameTaken reports whether a credential already uses username.
func (r *Repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM credentials WHERE username = $1)`, username).Scan(&taken)
	if err != nil {
		return false, apperr.FromPostgres(err, "username lookup")
	}
	return taken, nil
}

// EmailTaken reports whether a user already uses email.
func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&taken)
	if err != nil {
		return false, apperr.FromPostgres(err, "email lookup")
	}
	return taken, nil
}
