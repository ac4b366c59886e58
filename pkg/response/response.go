// Package response writes the JSON envelope every endpoint returns.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-orgs/backend/pkg/apperr"
)

// Body is the standard API response envelope. Kind is set on failures so
// clients can branch without parsing Error.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    apperr.Kind `json:"kind,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:  http.StatusBadRequest,
	apperr.KindConflict:    http.StatusConflict,
	apperr.KindNotFound:    http.StatusNotFound,
	apperr.KindForbidden:   http.StatusForbidden,
	apperr.KindUnavailable: http.StatusServiceUnavailable,
	apperr.KindInternal:    http.StatusInternalServerError,
}

func fail(c *gin.Context, kind apperr.Kind, msg string) {
	c.JSON(statusByKind[kind], Body{Error: msg, Kind: kind})
}

// OK sends 200 with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Unauthorized sends 401. It carries no kind: authentication is not a domain failure.
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Body{Error: msg})
}

func BadRequest(c *gin.Context, msg string)         { fail(c, apperr.KindValidation, msg) }
func Forbidden(c *gin.Context, msg string)          { fail(c, apperr.KindForbidden, msg) }
func NotFound(c *gin.Context, msg string)           { fail(c, apperr.KindNotFound, msg) }
func Conflict(c *gin.Context, msg string)           { fail(c, apperr.KindConflict, msg) }
func ServiceUnavailable(c *gin.Context, msg string) { fail(c, apperr.KindUnavailable, msg) }
func Internal(c *gin.Context, msg string)           { fail(c, apperr.KindInternal, msg) }

// Error sends err with the status of its apperr kind. Internal and unavailable
// errors never leak their message: the first gets fallback, the second a fixed text.
func Error(c *gin.Context, err error, fallback string) {
	switch kind := apperr.KindOf(err); kind {
	case apperr.KindInternal:
		fail(c, kind, fallback)
	case apperr.KindUnavailable:
		fail(c, kind, "service temporarily unavailable")
	default:
		fail(c, kind, apperr.MessageOf(err, fallback))
	}
}
