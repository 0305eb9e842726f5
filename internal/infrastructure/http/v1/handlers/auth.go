package handlers

import (
	"github.com/gin-gonic/gin"

	appctx "billing/internal/core/context"
	"billing/internal/domain/auth"
	"billing/internal/infrastructure/http/v1/dto"
	"billing/internal/infrastructure/http/v1/middleware"
)

// AuthHandler serves login and credential management.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tokens, user, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.LoginResponse{Tokens: tokens, User: user})
}

// GetAdmin handles GET /credentials/admin
func (h *AuthHandler) GetAdmin(c *gin.Context) {
	admin, err := h.service.GetAdmin(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, admin)
}

// SaveAdmin handles POST /credentials/admin. It creates the admin on first
// use and replaces its credentials afterwards.
func (h *AuthHandler) SaveAdmin(c *gin.Context) {
	var req dto.CredentialRequest
	if !h.BindJSON(c, &req) {
		return
	}
	admin, created, err := h.service.SaveAdmin(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	if created {
		h.Created(c, admin)
		return
	}
	h.OK(c, admin)
}

// ListCashiers handles GET /credentials/users
func (h *AuthHandler) ListCashiers(c *gin.Context) {
	users, err := h.service.ListCashiers(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewList(users))
}

// CreateCashier handles POST /credentials/users
func (h *AuthHandler) CreateCashier(c *gin.Context) {
	var req dto.CredentialRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.service.CreateCashier(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, user)
}

// DeleteCashier handles DELETE /credentials/users/:id
func (h *AuthHandler) DeleteCashier(c *gin.Context) {
	userID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCashier(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "User deleted successfully")
}

// RegisterRoutes registers the public login route and the admin-only
// credential routes. protected must already run middleware.Auth.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/auth/login", h.Login)

	creds := protected.Group("/credentials", middleware.RequireRole(appctx.RoleAdmin))
	creds.GET("/admin", h.GetAdmin)
	creds.POST("/admin", h.SaveAdmin)
	creds.GET("/users", h.ListCashiers)
	creds.POST("/users", h.CreateCashier)
	creds.DELETE("/users/:id", h.DeleteCashier)
}
