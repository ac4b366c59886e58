package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campus-orgs/backend/pkg/apperr"
	"github.com/campus-orgs/backend/pkg/response"
)

const (
	// ContextOrganizationID is the key for the organization resolved from the route.
	ContextOrganizationID = "organization_id"
	// ContextOrgRole is the key for the caller's role name in that organization.
	ContextOrgRole = "org_role"
)

// RoleLookup resolves a member's role name within an organization.
type RoleLookup interface {
	RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error)
}

// RequireOrgRole returns a middleware that allows members of the organization named by
// the :id route parameter whose role is one of roles. With no roles, any member passes.
// Call after JWT.
func RequireOrgRole(lookup RoleLookup, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			c.Abort()
			return
		}
		userVal, ok := c.Get(ContextUserID)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		userID, _ := userVal.(uuid.UUID)

		role, err := lookup.RoleOf(c.Request.Context(), orgID, userID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				response.Forbidden(c, "not a member of this organization")
			} else {
				response.Error(c, err, "failed to check membership")
			}
			c.Abort()
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[role]; !ok {
				response.Forbidden(c, "insufficient permissions")
				c.Abort()
				return
			}
		}
		c.Set(ContextOrganizationID, orgID)
		c.Set(ContextOrgRole, role)
		c.Next()
	}
}
