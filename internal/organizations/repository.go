package organizations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
	"github.com/campus-orgs/backend/pkg/database"
)

const orgColumns = `o.id, o.name, o.username, o.private, o.university, o.address_line1,
	COALESCE(o.address_line2, ''), o.city, o.state, o.zip, o.description, o.join_code,
	COALESCE(o.logo_url, ''), COALESCE(o.logo_key, ''), COALESCE(o.banner_url, ''), COALESCE(o.banner_key, ''),
	o.created_at, o.updated_at`

const memberCountColumn = `(SELECT COUNT(*) FROM user_organizations uo WHERE uo.organization_id = o.id)`

// Repository handles organization, role and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrganization(row pgx.Row, org *models.Organization, extra ...any) error {
	dest := []any{
		&org.ID, &org.Name, &org.Username, &org.Private, &org.University, &org.AddressLine1,
		&org.AddressLine2, &org.City, &org.State, &org.Zip, &org.Description, &org.JoinCode,
		&org.LogoURL, &org.LogoKey, &org.BannerURL, &org.BannerKey,
		&org.CreatedAt, &org.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// CreateWithOwner inserts the organization, its default roles and the owner's
// membership in one transaction. Nothing is persisted unless all three succeed.
// org.ID, CreatedAt and UpdatedAt are filled from the inserted row.
func (r *Repository) CreateWithOwner(ctx context.Context, org *models.Organization, ownerID uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertOrg = `INSERT INTO organizations
			(name, username, private, university, address_line1, address_line2, city, state, zip,
			 description, join_code, logo_url, logo_key, banner_url, banner_key)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11,
			 NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''))
			RETURNING id, created_at, updated_at`
		err := tx.QueryRow(ctx, insertOrg,
			org.Name, org.Username, org.Private, org.University, org.AddressLine1, org.AddressLine2,
			org.City, org.State, org.Zip, org.Description, org.JoinCode,
			org.LogoURL, org.LogoKey, org.BannerURL, org.BannerKey,
		).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
		if err != nil {
			return apperr.FromPostgres(err, "create organization")
		}

		var ownerRoleID uuid.UUID
		for _, seed := range models.DefaultRoles {
			var roleID uuid.UUID
			err := tx.QueryRow(ctx,
				`INSERT INTO roles (organization_id, name, description) VALUES ($1, $2, $3) RETURNING id`,
				org.ID, seed.Name, seed.Description,
			).Scan(&roleID)
			if err != nil {
				return apperr.FromPostgres(err, "create role")
			}
			if seed.Name == models.RoleOwner {
				ownerRoleID = roleID
			}
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO user_organizations (user_id, organization_id, role_id) VALUES ($1, $2, $3)`,
			ownerID, org.ID, ownerRoleID,
		)
		if err != nil {
			return apperr.FromPostgres(err, "create owner membership")
		}
		return nil
	})
	return apperr.FromPostgres(err, "create organization")
}

// GetByID returns an organization with its member count.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.OrganizationSummary, error) {
	q := `SELECT ` + orgColumns + `, ` + memberCountColumn + ` FROM organizations o WHERE o.id = $1`
	var s models.OrganizationSummary
	if err := scanOrganization(r.pool.QueryRow(ctx, q, id), &s.Organization, &s.MemberCount); err != nil {
		return nil, apperr.FromPostgres(err, "organization")
	}
	return &s, nil
}

// GetByJoinCode returns the organization using a normalized join code.
func (r *Repository) GetByJoinCode(ctx context.Context, code string) (*models.Organization, error) {
	q := `SELECT ` + orgColumns + ` FROM organizations o WHERE o.join_code = $1`
	var org models.Organization
	if err := scanOrganization(r.pool.QueryRow(ctx, q, code), &org); err != nil {
		return nil, apperr.FromPostgres(err, "organization")
	}
	return &org, nil
}

// RoleOf returns the user's role name in the organization, or a not-found error when not a member.
func (r *Repository) RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	const q = `SELECT r.name FROM user_organizations uo
		INNER JOIN roles r ON r.id = uo.role_id
		WHERE uo.organization_id = $1 AND uo.user_id = $2`
	var role string
	if err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&role); err != nil {
		return "", apperr.FromPostgres(err, "membership")
	}
	return role, nil
}

// IsMember reports whether the user belongs to the organization.
func (r *Repository) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_organizations WHERE organization_id = $1 AND user_id = $2)`,
		orgID, userID,
	).Scan(&ok)
	if err != nil {
		return false, apperr.FromPostgres(err, "membership")
	}
	return ok, nil
}

// Explore matches organizations whose name or username contains term, or whose join code equals code.
func (r *Repository) Explore(ctx context.Context, term, code string, limit int) ([]models.OrganizationSummary, error) {
	q := `SELECT ` + orgColumns + `, ` + memberCountColumn + `
		FROM organizations o
		WHERE o.name ILIKE '%' || $1 || '%' OR o.username ILIKE '%' || $1 || '%' OR o.join_code = $2
		ORDER BY o.name
		LIMIT $3`
	return r.listSummaries(ctx, "explore organizations", q, database.EscapeLike(term), code, limit)
}

// ListForUser returns the organizations the user belongs to.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error) {
	q := `SELECT ` + orgColumns + `, ` + memberCountColumn + `
		FROM organizations o
		INNER JOIN user_organizations mine ON mine.organization_id = o.id
		WHERE mine.user_id = $1
		ORDER BY o.name`
	return r.listSummaries(ctx, "list organizations", q, userID)
}

func (r *Repository) listSummaries(ctx context.Context, op, q string, args ...any) ([]models.OrganizationSummary, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromPostgres(err, op)
	}
	defer rows.Close()
	list := []models.OrganizationSummary{}
	for rows.Next() {
		var s models.OrganizationSummary
		if err := scanOrganization(rows, &s.Organization, &s.MemberCount); err != nil {
			return nil, apperr.FromPostgres(err, op)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromPostgres(err, op)
	}
	return list, nil
}

// ListMembers returns the organization directory ordered by join time.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.Member, error) {
	const q = `SELECT uo.user_id, u.name, COALESCE(c.username, ''), COALESCE(u.image, ''), r.name, uo.created_at
		FROM user_organizations uo
		INNER JOIN users u ON u.id = uo.user_id
		INNER JOIN roles r ON r.id = uo.role_id
		LEFT JOIN credentials c ON c.user_id = uo.user_id
		WHERE uo.organization_id = $1
		ORDER BY uo.created_at ASC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, apperr.FromPostgres(err, "list members")
	}
	defer rows.Close()
	list := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Username, &m.Image, &m.Role, &m.JoinedAt); err != nil {
			return nil, apperr.FromPostgres(err, "list members")
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromPostgres(err, "list members")
	}
	return list, nil
}

// AddMember binds the user to the organization's role named roleName.
// An existing membership is a conflict, never an update.
func (r *Repository) AddMember(ctx context.Context, orgID, userID uuid.UUID, roleName string) error {
	const q = `INSERT INTO user_organizations (user_id, organization_id, role_id)
		SELECT $1, r.organization_id, r.id FROM roles r
		WHERE r.organization_id = $2 AND r.name = $3`
	tag, err := r.pool.Exec(ctx, q, userID, orgID, roleName)
	if err != nil {
		return apperr.FromPostgres(err, "add member")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("organization role "+roleName+" not found", nil)
	}
	return nil
}

// RemoveMember deletes the membership and reports whether one existed.
func (r *Repository) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_organizations WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID,
	)
	if err != nil {
		return false, apperr.FromPostgres(err, "remove member")
	}
	return tag.RowsAffected() > 0, nil
}

// ReferencesAssetKey reports whether any organization still uses key as its logo or banner.
func (r *Repository) ReferencesAssetKey(ctx context.Context, key string) (bool, error) {
	var used bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE logo_key = $1 OR banner_key = $1)`,
		key,
	).Scan(&used)
	if err != nil {
		return false, apperr.FromPostgres(err, "asset lookup")
	}
	return used, nil
}
