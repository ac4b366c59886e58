package organizations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-orgs/backend/pkg/apperr"
)

func validInput() CreateOrganizationInput {
	return CreateOrganizationInput{
		Name:         "Chess Club",
		Username:     "chess.club",
		Public:       true,
		University:   "State University",
		AddressLine1: "1 College Ave",
		City:         "Springfield",
		State:        "IL",
		Zip:          "62701",
		Description:  "We play chess.",
		JoinCode:     "abcd1234",
	}
}

func TestNormalize(t *testing.T) {
	in := validInput()
	in.Name = "  Chess Club "
	in.JoinCode = " abCD1234 "

	out := in.Normalize()
	assert.Equal(t, "Chess Club", out.Name)
	assert.Equal(t, "ABCD1234", out.JoinCode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateOrganizationInput)
		ok     bool
	}{
		{"valid", func(*CreateOrganizationInput) {}, true},
		{"zip plus four", func(in *CreateOrganizationInput) { in.Zip = "62701-1234" }, true},
		{"private only", func(in *CreateOrganizationInput) { in.Public, in.Private = false, true }, true},
		{"short name", func(in *CreateOrganizationInput) { in.Name = "ab" }, false},
		{"bad username", func(in *CreateOrganizationInput) { in.Username = "chess club" }, false},
		{"short username", func(in *CreateOrganizationInput) { in.Username = "cc" }, false},
		{"public and private", func(in *CreateOrganizationInput) { in.Private = true }, false},
		{"neither public nor private", func(in *CreateOrganizationInput) { in.Public = false }, false},
		{"missing university", func(in *CreateOrganizationInput) { in.University = "" }, false},
		{"missing address", func(in *CreateOrganizationInput) { in.AddressLine1 = "" }, false},
		{"missing city", func(in *CreateOrganizationInput) { in.City = "" }, false},
		{"missing state", func(in *CreateOrganizationInput) { in.State = "" }, false},
		{"bad zip", func(in *CreateOrganizationInput) { in.Zip = "6270" }, false},
		{"long description", func(in *CreateOrganizationInput) { in.Description = strings.Repeat("é", 501) }, false},
		{"description at limit", func(in *CreateOrganizationInput) { in.Description = strings.Repeat("é", 500) }, true},
		{"short join code", func(in *CreateOrganizationInput) { in.JoinCode = "abc123" }, false},
		{"long join code", func(in *CreateOrganizationInput) { in.JoinCode = strings.Repeat("a", 17) }, false},
		{"join code symbols", func(in *CreateOrganizationInput) { in.JoinCode = "abcd-1234" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Normalize().Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}
