// Package users serves profiles, onboarding and the user directory.
package users

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
	"github.com/campus-orgs/backend/pkg/response"
)

const (
	minExploreQuery = 3
	exploreLimit    = 20
	maxPhoneLength  = 15
)

// Store is the profile persistence used by Handler.
type Store interface {
	GetPublic(ctx context.Context, id uuid.UUID) (*models.UserPublic, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateOnboarding(ctx context.Context, id uuid.UUID, o models.Onboarding) (*models.User, error)
	Explore(ctx context.Context, term string, limit int) ([]models.UserPublic, error)
}

// OrganizationLister lists the organizations a user belongs to.
type OrganizationLister interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error)
}

// OnboardingRequest is the body of PUT /users/me/onboarding.
type OnboardingRequest struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	AcademicYear       string `json:"academic_year"`
	AcademicMajor      string `json:"academic_major"`
	AcademicUniversity string `json:"academic_university"`
	GraduationYear     string `json:"graduation_year"`
	City               string `json:"city"`
	State              string `json:"state"`
	Phone              string `json:"phone"`
	Birthday           string `json:"birthday"`
}

// OnboardingStatus is the response of GET /users/me/onboarding.
type OnboardingStatus struct {
	Onboarded bool         `json:"onboarded"`
	User      *models.User `json:"user"`
}

// Handler handles user HTTP endpoints.
type Handler struct {
	store Store
	orgs  OrganizationLister
	now   func() time.Time
}

// NewHandler creates a users handler.
func NewHandler(store Store, orgs OrganizationLister) *Handler {
	return &Handler{store: store, orgs: orgs, now: time.Now}
}

// Register mounts the routes on a JWT-protected group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/users/explore", h.Explore)
	rg.GET("/users/me/onboarding", h.GetOnboarding)
	rg.PUT("/users/me/onboarding", h.UpdateOnboarding)
	rg.GET("/users/me/organizations", h.MyOrganizations)
	rg.GET("/users/:id", h.GetUser)
}

// GetUser handles GET /users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	u, err := h.store.GetPublic(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err, "failed to load user")
		return
	}
	response.OK(c, u)
}

// GetOnboarding handles GET /users/me/onboarding.
func (h *Handler) GetOnboarding(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	u, err := h.store.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err, "failed to load user")
		return
	}
	response.OK(c, OnboardingStatus{Onboarded: u.Onboarded, User: u})
}

// UpdateOnboarding handles PUT /users/me/onboarding.
func (h *Handler) UpdateOnboarding(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	o, err := req.toOnboarding(h.now())
	if err != nil {
		response.Error(c, err, "invalid onboarding")
		return
	}
	u, err := h.store.UpdateOnboarding(c.Request.Context(), userID, o)
	if err != nil {
		response.Error(c, err, "failed to save onboarding")
		return
	}
	response.OK(c, u)
}

// MyOrganizations handles GET /users/me/organizations.
func (h *Handler) MyOrganizations(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.orgs.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err, "failed to list organizations")
		return
	}
	response.OK(c, list)
}

// Explore handles GET /users/explore?q=. Short queries return an empty list.
func (h *Handler) Explore(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if utf8.RuneCountInString(q) < minExploreQuery {
		response.OK(c, []models.UserPublic{})
		return
	}
	list, err := h.store.Explore(c.Request.Context(), q, exploreLimit)
	if err != nil {
		response.Error(c, err, "failed to search users")
		return
	}
	response.OK(c, list)
}

func (r OnboardingRequest) toOnboarding(now time.Time) (models.Onboarding, error) {
	o := models.Onboarding{
		FirstName:          strings.TrimSpace(r.FirstName),
		LastName:           strings.TrimSpace(r.LastName),
		AcademicYear:       strings.TrimSpace(r.AcademicYear),
		AcademicMajor:      strings.TrimSpace(r.AcademicMajor),
		AcademicUniversity: strings.TrimSpace(r.AcademicUniversity),
		GraduationYear:     strings.TrimSpace(r.GraduationYear),
		City:               strings.TrimSpace(r.City),
		State:              strings.TrimSpace(r.State),
		Phone:              strings.TrimSpace(r.Phone),
	}
	required := []struct{ field, value string }{
		{"first_name", o.FirstName},
		{"academic_year", o.AcademicYear},
		{"academic_major", o.AcademicMajor},
		{"academic_university", o.AcademicUniversity},
		{"graduation_year", o.GraduationYear},
		{"city", o.City},
		{"state", o.State},
		{"phone", o.Phone},
	}
	for _, f := range required {
		if f.value == "" {
			return o, apperr.Validation("%s is required", f.field)
		}
	}
	if utf8.RuneCountInString(o.Phone) > maxPhoneLength {
		return o, apperr.Validation("phone must be at most %d characters", maxPhoneLength)
	}
	birthday, err := time.Parse(models.DateLayout, strings.TrimSpace(r.Birthday))
	if err != nil {
		return o, apperr.Validation("birthday must be a date in YYYY-MM-DD format")
	}
	y, m, d := now.Date()
	if birthday.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return o, apperr.Validation("birthday cannot be in the future")
	}
	o.Birthday = birthday
	return o, nil
}
