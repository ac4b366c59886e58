package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a student club or group.
type Organization struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Private      bool      `json:"private"`
	University   string    `json:"university"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Zip          string    `json:"zip"`
	Description  string    `json:"description"`
	JoinCode     string    `json:"join_code"`
	LogoURL      string    `json:"logo_url,omitempty"`
	LogoKey      string    `json:"-"`
	BannerURL    string    `json:"banner_url,omitempty"`
	BannerKey    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AssetRefs are the already-uploaded logo and banner of an organization.
type AssetRefs struct {
	LogoURL   string `json:"logo_url"`
	LogoKey   string `json:"logo_key"`
	BannerURL string `json:"banner_url"`
	BannerKey string `json:"banner_key"`
}

// Keys returns the non-empty storage keys.
func (a AssetRefs) Keys() []string {
	var keys []string
	if a.LogoKey != "" {
		keys = append(keys, a.LogoKey)
	}
	if a.BannerKey != "" {
		keys = append(keys, a.BannerKey)
	}
	return keys
}

// Role names seeded for every organization.
const (
	RoleOwner   = "Owner"
	RoleAdmin   = "Admin"
	RoleGeneral = "General"
)

// RoleSeed is a role created together with its organization.
type RoleSeed struct {
	Name        string
	Description string
}

// DefaultRoles is the fixed role set of a new organization.
var DefaultRoles = []RoleSeed{
	{Name: RoleOwner, Description: "Full control of the organization"},
	{Name: RoleAdmin, Description: "Manages members and events"},
	{Name: RoleGeneral, Description: "Regular member"},
}

// Role is a permission tier scoped to one organization.
type Role struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserOrganization binds a user to an organization through a role.
type UserOrganization struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	RoleID         uuid.UUID `json:"role_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrganizationSummary is an organization with its member count.
type OrganizationSummary struct {
	Organization
	MemberCount int `json:"member_count"`
}

// Member is a directory row of an organization.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Image    string    `json:"image,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
