package organizations

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
)

const (
	minNameLength        = 3
	maxDescriptionLength = 500
	minJoinCodeLength    = 8
	maxJoinCodeLength    = 16
	// MinExploreQuery is the shortest search term that returns results.
	MinExploreQuery = 3
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{3,}$`)
	zipRegex      = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	joinCodeRegex = regexp.MustCompile(`^[A-Z0-9]{8,16}$`)
)

// CreateOrganizationInput is the attribute set of a new organization.
type CreateOrganizationInput struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	Public       bool   `json:"public"`
	Private      bool   `json:"private"`
	University   string `json:"university"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Description  string `json:"description"`
	JoinCode     string `json:"join_code"`
}

// Normalize trims every field and upper-cases the join code.
func (in CreateOrganizationInput) Normalize() CreateOrganizationInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.University = strings.TrimSpace(in.University)
	in.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	in.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Zip = strings.TrimSpace(in.Zip)
	in.Description = strings.TrimSpace(in.Description)
	in.JoinCode = NormalizeJoinCode(in.JoinCode)
	return in
}

// Validate checks a normalized input and returns the first violated rule.
func (in CreateOrganizationInput) Validate() error {
	switch {
	case utf8.RuneCountInString(in.Name) < minNameLength:
		return apperr.Validation("name must be at least %d characters", minNameLength)
	case !usernameRegex.MatchString(in.Username):
		return apperr.Validation("username must be at least 3 characters of letters, digits, dots, underscores or dashes")
	case in.Public == in.Private:
		return apperr.Validation("organization must be either public or private")
	case in.University == "":
		return apperr.Validation("university is required")
	case in.AddressLine1 == "":
		return apperr.Validation("address line 1 is required")
	case in.City == "":
		return apperr.Validation("city is required")
	case in.State == "":
		return apperr.Validation("state is required")
	case !zipRegex.MatchString(in.Zip):
		return apperr.Validation("zip must be 5 digits or ZIP+4")
	case utf8.RuneCountInString(in.Description) > maxDescriptionLength:
		return apperr.Validation("description must be at most %d characters", maxDescriptionLength)
	}
	return ValidateJoinCode(in.JoinCode)
}

// NormalizeJoinCode trims and upper-cases a join code.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateJoinCode checks a normalized join code.
func ValidateJoinCode(code string) error {
	if !joinCodeRegex.MatchString(code) {
		return apperr.Validation("join code must be %d-%d letters or digits", minJoinCodeLength, maxJoinCodeLength)
	}
	return nil
}

func (in CreateOrganizationInput) toModel(assets models.AssetRefs) *models.Organization {
	return &models.Organization{
		Name:         in.Name,
		Username:     in.Username,
		Private:      in.Private,
		University:   in.University,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		State:        in.State,
		Zip:          in.Zip,
		Description:  in.Description,
		JoinCode:     in.JoinCode,
		LogoURL:      strings.TrimSpace(assets.LogoURL),
		LogoKey:      strings.TrimSpace(assets.LogoKey),
		BannerURL:    strings.TrimSpace(assets.BannerURL),
		BannerKey:    strings.TrimSpace(assets.BannerKey),
	}
}
