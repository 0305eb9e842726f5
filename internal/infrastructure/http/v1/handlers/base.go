// Package handlers provides the HTTP handlers of API v1.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/core/types"
	"billing/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds the request body, reporting VALIDATION_ERROR on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the gin context and aborts. middleware.ErrorHandler
// renders the response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// PathID parses a UUID path parameter.
func (h *BaseHandler) PathID(c *gin.Context, name string) (id.ID, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(name, "invalid id format").WithDetail("value", c.Param(name)))
		return id.ID{}, false
	}
	return v, true
}

// QueryQuantity parses an optional numeric query parameter; absent means def.
func (h *BaseHandler) QueryQuantity(c *gin.Context, name string, def types.Quantity) (types.Quantity, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	q, err := types.ParseQuantity(raw)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(name, "must be a number").WithDetail("value", raw))
		return 0, false
	}
	return q, true
}

// QueryDate parses an optional date query parameter (YYYY-MM-DD or RFC 3339).
// With endOfDay a bare date is moved to the last instant of that day.
func (h *BaseHandler) QueryDate(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, bare, err := dto.ParseDate(raw)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(name, "invalid date").WithDetail("value", raw))
		return nil, false
	}
	if bare && endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Message sends {success: true, message}.
func (h *BaseHandler) Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
