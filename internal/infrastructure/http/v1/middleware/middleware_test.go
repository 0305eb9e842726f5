package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*appctx.UserContext

func (s stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

type recordedRequest struct {
	method, route string
	status        int
}

type stubRecorder struct{ calls []recordedRequest }

func (s *stubRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	s.calls = append(s.calls, recordedRequest{method, route, status})
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandler_RendersAppErrorsAndPanics(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler(), Recovery())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("product", "P9"))
	})
	r.GET("/boom", func(c *gin.Context) {
		panic("nil map")
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("driver failure"))
	})
	r.GET("/nostatus", func(c *gin.Context) {
		_ = c.Error(&apperror.AppError{Code: "CUSTOM", Message: "no status"})
	})

	rec := serve(r, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"product not found","details":{"entity":"product","id":"P9"}}`, rec.Body.String())

	rec = serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperror.CodeInternal)
	assert.NotContains(t, rec.Body.String(), "nil map")

	rec = serve(r, http.MethodGet, "/plain", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "driver failure")
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec = serve(r, http.MethodGet, "/nostatus", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"CUSTOM"`)
}

func TestAuth_RolesAndOptionalUser(t *testing.T) {
	validator := stubValidator{
		"admin-token":   {UserID: "u-1", Roles: []string{appctx.RoleAdmin}},
		"cashier-token": {UserID: "u-2", Roles: []string{appctx.RoleCashier}},
	}

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/admin", Auth(validator), RequireRole(appctx.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})
	r.GET("/actor", OptionalAuth(validator), func(c *gin.Context) {
		c.String(http.StatusOK, appctx.ActorID(c.Request.Context()))
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", "forged").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", "cashier-token").Code)

	rec := serve(r, http.MethodGet, "/admin", "admin-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())

	assert.Equal(t, appctx.SystemActor, serve(r, http.MethodGet, "/actor", "").Body.String())
	assert.Equal(t, appctx.SystemActor, serve(r, http.MethodGet, "/actor", "forged").Body.String())
	assert.Equal(t, "u-2", serve(r, http.MethodGet, "/actor", "cashier-token").Body.String())
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	rec := &stubRecorder{}
	r := gin.New()
	r.Use(Metrics(rec))
	r.GET("/products/code/:code", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/products/code/P1", "")
	serve(r, http.MethodGet, "/products/code/P2", "")
	serve(r, http.MethodGet, "/nope", "")

	require.Len(t, rec.calls, 3)
	assert.Equal(t, recordedRequest{http.MethodGet, "/products/code/:code", http.StatusOK}, rec.calls[0])
	assert.Equal(t, "/products/code/:code", rec.calls[1].route)
	assert.Equal(t, recordedRequest{http.MethodGet, "unmatched", http.StatusNotFound}, rec.calls[2])
}
