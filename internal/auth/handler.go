package auth

import (
	"context"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
	"github.com/campus-orgs/backend/pkg/response"
	"github.com/campus-orgs/backend/pkg/utils"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{3,32}$`)

// Store is the persistence used by the auth endpoints.
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetCredentialsByUsername(ctx context.Context, username string) (*models.Credentials, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SigninRequest is the body for POST /auth/signin.
type SigninRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	store  Store
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(store Store, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jwt: jwt, logger: logger}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	username := strings.TrimSpace(req.Username)
	if !usernameRe.MatchString(username) {
		response.BadRequest(c, "username must be 3-32 letters, digits, dots, underscores or dashes")
		return
	}
	if len(req.Password) < utils.MinPasswordLength {
		response.BadRequest(c, "password must be at least 8 characters")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.BadRequest(c, "password is too long")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.CreateUser(c.Request.Context(), username, email, hash)
	if err != nil {
		h.logger.Warn("signup failed", zap.String("username", username), zap.Error(err))
		response.Error(c, err, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, username)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic(username)})
}

// Signin handles POST /auth/signin.
func (h *Handler) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	cred, err := h.store.GetCredentialsByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		response.Error(c, err, "failed to sign in")
		return
	}
	if !utils.CheckPassword(req.Password, cred.PasswordHash) {
		response.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := h.jwt.Generate(cred.UserID, cred.Username)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: models.UserPublic{ID: cred.UserID, Username: cred.Username}})
}

// UsernameAvailable handles GET /auth/username-available?username=.
func (h *Handler) UsernameAvailable(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if !usernameRe.MatchString(username) {
		response.OK(c, gin.H{"available": false})
		return
	}
	taken, err := h.store.UsernameTaken(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err, "failed to check username")
		return
	}
	response.OK(c, gin.H{"available": !taken})
}

// EmailAvailable handles GET /auth/email-available?email=.
func (h *Handler) EmailAvailable(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" || !strings.Contains(email, "@") {
		response.OK(c, gin.H{"available": false})
		return
	}
	taken, err := h.store.EmailTaken(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err, "failed to check email")
		return
	}
	response.OK(c, gin.H{"available": !taken})
}
