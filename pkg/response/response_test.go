package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-orgs/backend/pkg/apperr"
)

func TestError_StatusPerKind(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err     error
		status  int
		message string
	}{
		{apperr.Validation("name too short"), http.StatusBadRequest, "name too short"},
		{apperr.Conflict("join code already in use", nil), http.StatusConflict, "join code already in use"},
		{apperr.NotFound("organization not found", nil), http.StatusNotFound, "organization not found"},
		{apperr.Forbidden("owner cannot leave"), http.StatusForbidden, "owner cannot leave"},
		{apperr.Unavailable("db down", errors.New("dial")), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{apperr.Internal("secret detail", nil), http.StatusInternalServerError, "failed"},
		{errors.New("raw"), http.StatusInternalServerError, "failed"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Error(c, tc.err, "failed")

		assert.Equal(t, tc.status, w.Code)
		var body Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.message, body.Error)
	}
}
