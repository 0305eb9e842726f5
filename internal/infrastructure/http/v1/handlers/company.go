package handlers

import (
	"github.com/gin-gonic/gin"

	"billing/internal/domain/company"
	"billing/internal/infrastructure/http/v1/dto"
)

// CompanyHandler serves the company registry.
type CompanyHandler struct {
	*BaseHandler
	service *company.Service
}

func NewCompanyHandler(base *BaseHandler, service *company.Service) *CompanyHandler {
	return &CompanyHandler{BaseHandler: base, service: service}
}

// Register handles POST /companies/register
func (h *CompanyHandler) Register(c *gin.Context) {
	var req dto.RegisterCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	created, err := h.service.Register(c.Request.Context(), req.ToCompany())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

// List handles GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewList(companies))
}

// Get handles GET /companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	found, err := h.service.Get(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, found)
}

func (h *CompanyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
