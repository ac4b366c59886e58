package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/pkg/apperr"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetPublic(ctx context.Context, id uuid.UUID) (*models.UserPublic, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.UserPublic)
	return u, args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) UpdateOnboarding(ctx context.Context, id uuid.UUID, o models.Onboarding) (*models.User, error) {
	args := m.Called(ctx, id, o)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) Explore(ctx context.Context, term string, limit int) ([]models.UserPublic, error) {
	args := m.Called(ctx, term, limit)
	return args.Get(0).([]models.UserPublic), args.Error(1)
}

type mockOrgs struct {
	mock.Mock
}

func (m *mockOrgs) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.OrganizationSummary), args.Error(1)
}

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestRouter(store Store, orgs OrganizationLister, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, orgs)
	h.now = func() time.Time { return now }
	r := gin.New()
	h.Register(r.Group("/", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, caller)
		c.Next()
	}))
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func onboardingBody(phone, birthday string) string {
	b, _ := json.Marshal(OnboardingRequest{
		FirstName: "Ada", LastName: "Lovelace",
		AcademicYear: "Junior", AcademicMajor: "Mathematics", AcademicUniversity: "State University",
		GraduationYear: "2028", City: "Springfield", State: "IL",
		Phone: phone, Birthday: birthday,
	})
	return string(b)
}

func TestHandler_GetUser(t *testing.T) {
	store := new(mockStore)
	id := uuid.New()
	store.On("GetPublic", mock.Anything, id).Return(&models.UserPublic{ID: id, Name: "Ada Lovelace", Username: "ada"}, nil)
	store.On("GetPublic", mock.Anything, mock.Anything).Return(nil, apperr.NotFound("user: not found", nil))
	r := newTestRouter(store, nil, uuid.New())

	w := do(r, http.MethodGet, "/users/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ada"`)

	w = do(r, http.MethodGet, "/users/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/users/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_UpdateOnboarding(t *testing.T) {
	store := new(mockStore)
	caller := uuid.New()
	store.On("UpdateOnboarding", mock.Anything, caller, mock.MatchedBy(func(o models.Onboarding) bool {
		return o.FullName() == "Ada Lovelace" && o.Birthday.Equal(time.Date(2004, 12, 10, 0, 0, 0, 0, time.UTC))
	})).Return(&models.User{ID: caller, Name: "Ada Lovelace", Onboarded: true}, nil)
	r := newTestRouter(store, nil, caller)

	w := do(r, http.MethodPut, "/users/me/onboarding", onboardingBody("5551234567", "2004-12-10"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"onboarded":true`)
	store.AssertExpectations(t)
}

func TestHandler_UpdateOnboarding_Invalid(t *testing.T) {
	store := new(mockStore)
	r := newTestRouter(store, nil, uuid.New())

	tests := []struct {
		name string
		body string
	}{
		{"long phone", onboardingBody("1234567890123456", "2004-12-10")},
		{"future birthday", onboardingBody("5551234567", "2026-10-15")},
		{"bad birthday", onboardingBody("5551234567", "12/10/2004")},
		{"missing fields", `{"first_name": "Ada"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPut, "/users/me/onboarding", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	store.AssertNotCalled(t, "UpdateOnboarding", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_GetOnboarding(t *testing.T) {
	store := new(mockStore)
	caller := uuid.New()
	store.On("GetByID", mock.Anything, caller).Return(&models.User{ID: caller}, nil)
	r := newTestRouter(store, nil, caller)

	w := do(r, http.MethodGet, "/users/me/onboarding", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"onboarded":false`)
}

func TestHandler_MyOrganizations(t *testing.T) {
	orgs := new(mockOrgs)
	caller := uuid.New()
	orgs.On("ListForUser", mock.Anything, caller).Return([]models.OrganizationSummary{
		{Organization: models.Organization{Name: "Chess Club"}, MemberCount: 3},
	}, nil)
	r := newTestRouter(new(mockStore), orgs, caller)

	w := do(r, http.MethodGet, "/users/me/organizations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Chess Club")
}

func TestHandler_Explore(t *testing.T) {
	store := new(mockStore)
	store.On("Explore", mock.Anything, "ada", exploreLimit).Return([]models.UserPublic{{Name: "Ada Lovelace"}}, nil)
	r := newTestRouter(store, nil, uuid.New())

	w := do(r, http.MethodGet, "/users/explore?q=ad", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true, "data": []}`, w.Body.String())

	w = do(r, http.MethodGet, "/users/explore?q=%20ada%20", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada Lovelace")
	store.AssertNumberOfCalls(t, "Explore", 1)
}
