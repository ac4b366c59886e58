package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/response"
	"github.com/campus-orgs/backend/pkg/storage"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an organizations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateOrganizationRequest is the body for POST /organizations.
type CreateOrganizationRequest struct {
	CreateOrganizationInput
	Assets models.AssetRefs `json:"assets"`
}

// JoinOrganizationRequest is the body for POST /organizations/join.
type JoinOrganizationRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

// Register mounts the routes on an authenticated group. requireMember guards member-only routes.
func (h *Handler) Register(rg *gin.RouterGroup, requireMember gin.HandlerFunc) {
	rg.POST("/organizations", h.CreateOrganization)
	rg.GET("/organizations/explore", h.Explore)
	rg.POST("/organizations/join", h.Join)
	rg.GET("/organizations/:id", h.GetOrganization)
	rg.GET("/organizations/:id/is-member", h.IsMember)
	rg.GET("/organizations/:id/members", requireMember, h.ListMembers)
	rg.POST("/organizations/:id/leave", h.Leave)
}

// CreateOrganization handles POST /organizations. Creates org and adds current user as owner.
func (h *Handler) CreateOrganization(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	for _, key := range body.Assets.Keys() {
		if !storage.IsAssetKey(key, userID) {
			response.BadRequest(c, "asset key was not uploaded by you")
			return
		}
	}
	org, err := h.svc.CreateOrganization(c.Request.Context(), userID, body.CreateOrganizationInput, body.Assets)
	if err != nil {
		response.Error(c, err, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// GetOrganization handles GET /organizations/:id.
func (h *Handler) GetOrganization(c *gin.Context) {
	orgID, ok := parseOrgID(c)
	if !ok {
		return
	}
	org, err := h.svc.GetOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err, "failed to load organization")
		return
	}
	response.OK(c, org)
}

// IsMember handles GET /organizations/:id/is-member.
func (h *Handler) IsMember(c *gin.Context) {
	orgID, ok := parseOrgID(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	member, err := h.svc.IsMember(c.Request.Context(), orgID, userID)
	if err != nil {
		response.Error(c, err, "failed to check membership")
		return
	}
	response.OK(c, gin.H{"member": member})
}

// Explore handles GET /organizations/explore?q=.
func (h *Handler) Explore(c *gin.Context) {
	list, err := h.svc.Explore(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err, "failed to search organizations")
		return
	}
	response.OK(c, list)
}

// ListMembers handles GET /organizations/:id/members.
func (h *Handler) ListMembers(c *gin.Context) {
	orgID, ok := parseOrgID(c)
	if !ok {
		return
	}
	list, err := h.svc.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err, "failed to list members")
		return
	}
	response.OK(c, list)
}

// Join handles POST /organizations/join. Adds current user to the org as a General member.
func (h *Handler) Join(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body JoinOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "join_code required")
		return
	}
	org, err := h.svc.JoinByCode(c.Request.Context(), userID, body.JoinCode)
	if err != nil {
		response.Error(c, err, "failed to join organization")
		return
	}
	response.OK(c, org)
}

// Leave handles POST /organizations/:id/leave.
func (h *Handler) Leave(c *gin.Context) {
	orgID, ok := parseOrgID(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.Leave(c.Request.Context(), orgID, userID); err != nil {
		response.Error(c, err, "failed to leave organization")
		return
	}
	response.NoContent(c)
}

func parseOrgID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return uuid.Nil, false
	}
	return id, true
}
