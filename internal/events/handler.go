package events

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/response"
)

// CreateEventRequest is the body for POST /organizations/:id/events.
type CreateEventRequest struct {
	Event     CreateEventInput       `json:"event"`
	Attendees []models.AttendeeInput `json:"attendees"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an events handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes. requireMember guards listing; requireManager guards creation.
func (h *Handler) Register(rg *gin.RouterGroup, requireMember, requireManager gin.HandlerFunc) {
	rg.GET("/organizations/:id/events", requireMember, h.List)
	rg.POST("/organizations/:id/events", requireManager, h.Create)
}

// Create handles POST /organizations/:id/events.
func (h *Handler) Create(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body CreateEventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ev, err := h.svc.CreateEvent(c.Request.Context(), orgID, userID, body.Event, body.Attendees)
	if err != nil {
		response.Error(c, err, "failed to create event")
		return
	}
	response.Created(c, ev)
}

// List handles GET /organizations/:id/events.
func (h *Handler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.svc.ListEvents(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err, "failed to list events")
		return
	}
	response.OK(c, list)
}
