package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
	"github.com/campus-orgs/backend/pkg/database"
)

const publicColumns = `u.id, u.name, COALESCE(c.username, ''), COALESCE(u.image, ''),
	COALESCE(u.academic_major, ''), COALESCE(u.academic_university, '')`

const userColumns = `id, name, email, COALESCE(image, ''), onboarded,
	COALESCE(academic_year, ''), COALESCE(academic_major, ''), COALESCE(academic_university, ''),
	COALESCE(graduation_year, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(phone, ''),
	birthday, created_at, updated_at`

// Repository reads and updates user profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, u *models.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.Onboarded,
		&u.AcademicYear, &u.AcademicMajor, &u.AcademicUniversity,
		&u.GraduationYear, &u.City, &u.State, &u.Phone,
		&u.Birthday, &u.CreatedAt, &u.UpdatedAt)
}

func scanPublic(row scanner, p *models.UserPublic) error {
	return row.Scan(&p.ID, &p.Name, &p.Username, &p.Image, &p.AcademicMajor, &p.AcademicUniversity)
}

// GetPublic returns the directory view of a user.
func (r *Repository) GetPublic(ctx context.Context, id uuid.UUID) (*models.UserPublic, error) {
	var p models.UserPublic
	err := scanPublic(r.pool.QueryRow(ctx,
		`SELECT `+publicColumns+` FROM users u LEFT JOIN credentials c ON c.user_id = u.id WHERE u.id = $1`,
		id,
	), &p)
	if err != nil {
		return nil, apperr.FromPostgres(err, "user")
	}
	return &p, nil
}

// GetByID returns the full user row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u); err != nil {
		return nil, apperr.FromPostgres(err, "user")
	}
	return &u, nil
}

// UpdateOnboarding stores the onboarding profile and marks the user onboarded.
func (r *Repository) UpdateOnboarding(ctx context.Context, id uuid.UUID, o models.Onboarding) (*models.User, error) {
	const q = `UPDATE users SET
			name = $2, academic_year = NULLIF($3, ''), academic_major = NULLIF($4, ''),
			academic_university = NULLIF($5, ''), graduation_year = NULLIF($6, ''),
			city = NULLIF($7, ''), state = NULLIF($8, ''), phone = NULLIF($9, ''),
			birthday = $10, onboarded = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, q, id,
		o.FullName(), o.AcademicYear, o.AcademicMajor, o.AcademicUniversity, o.GraduationYear,
		o.City, o.State, o.Phone, o.Birthday,
	), &u)
	if err != nil {
		return nil, apperr.FromPostgres(err, "update onboarding")
	}
	return &u, nil
}

// Explore returns users whose name or username contains term.
func (r *Repository) Explore(ctx context.Context, term string, limit int) ([]models.UserPublic, error) {
	const q = `SELECT ` + publicColumns + `
		FROM users u
		LEFT JOIN credentials c ON c.user_id = u.id
		WHERE u.name ILIKE '%' || $1 || '%' OR c.username ILIKE '%' || $1 || '%'
		ORDER BY u.name, c.username
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, database.EscapeLike(term), limit)
	if err != nil {
		return nil, apperr.FromPostgres(err, "explore users")
	}
	defer rows.Close()
	list := []models.UserPublic{}
	for rows.Next() {
		var p models.UserPublic
		if err := scanPublic(rows, &p); err != nil {
			return nil, apperr.FromPostgres(err, "explore users")
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromPostgres(err, "explore users")
	}
	return list, nil
}
