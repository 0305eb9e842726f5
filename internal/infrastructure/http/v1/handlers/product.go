package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/internal/core/types"
	"billing/internal/domain/product"
	"billing/internal/domain/stock"
	"billing/internal/domain/units"
	"billing/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the catalog, pricing and stock endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewList(products))
}

// GetByCode handles GET /products/code/:code
func (h *ProductHandler) GetByCode(c *gin.Context) {
	p, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// GetByName handles GET /products/name/:name
func (h *ProductHandler) GetByName(c *gin.Context) {
	p, err := h.service.FindByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Search handles GET /products/search?query=
func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.service.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewList(products))
}

// ProfitSummary handles GET /products/profit-summary
func (h *ProductHandler) ProfitSummary(c *gin.Context) {
	summary, err := h.service.ProfitSummary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// LowStock handles GET /products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewList(products))
}

// SellerInfo handles GET /products/seller-info?supplierName=&brand=
func (h *ProductHandler) SellerInfo(c *gin.Context) {
	info, err := h.service.SellerInfo(c.Request.Context(), c.Query("supplierName"), c.Query("brand"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, info)
}

// CalculatePrice handles GET /products/calculate-price/:code?unit=&quantity=
func (h *ProductHandler) CalculatePrice(c *gin.Context) {
	qty, ok := h.QueryQuantity(c, "quantity", types.NewQuantityFromInt(1))
	if !ok {
		return
	}
	unit := units.Unit(strings.TrimSpace(c.Query("unit")))
	price, err := h.service.CalculatePrice(c.Request.Context(), c.Param("code"), unit, qty)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PriceResponse{Price: price, Unit: unit, Quantity: qty})
}

// CheckStock handles GET /products/check-stock/:code?unit=&quantity=
func (h *ProductHandler) CheckStock(c *gin.Context) {
	qty, ok := h.QueryQuantity(c, "quantity", 0)
	if !ok {
		return
	}
	unit := units.Unit(strings.TrimSpace(c.Query("unit")))
	check, err := h.service.CheckStock(c.Request.Context(), c.Param("code"), unit, qty)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, check)
}

// ReduceStock handles PATCH /products/reduce-stock/:code
func (h *ProductHandler) ReduceStock(c *gin.Context) {
	var req dto.ReduceStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.service.ReduceStock(c.Request.Context(), c.Param("code"), req.Quantity, units.Unit(strings.TrimSpace(req.Unit)))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ReduceStockResponse{
		Message:        "Stock reduced successfully",
		Product:        p,
		RemainingStock: p.StockQuantity,
	})
}

// Restock handles PUT /products/stock/:code
func (h *ProductHandler) Restock(c *gin.Context) {
	var req dto.RestockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Restock(c.Request.Context(), c.Param("code"), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RestockResponse{
		Message: "Stock updated successfully",
		Product: res.Product,
		Stock:   res.Stock,
	})
}

// StockDetail handles GET /products/stock/:code
func (h *ProductHandler) StockDetail(c *gin.Context) {
	detail, err := h.service.GetStockDetail(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// StockHistory handles GET /products/stock-history?productCode=&startDate=&endDate=
func (h *ProductHandler) StockHistory(c *gin.Context) {
	from, ok := h.QueryDate(c, "startDate", false)
	if !ok {
		return
	}
	to, ok := h.QueryDate(c, "endDate", true)
	if !ok {
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		h.Error(c, apperror.NewValidation("endDate must not be before startDate"))
		return
	}

	records, err := h.service.StockHistory(c.Request.Context(), stock.HistoryFilter{
		ProductCode: strings.TrimSpace(c.Query("productCode")),
		From:        from,
		To:          to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewList(records))
}

// Delete handles DELETE /products/:code
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("code")); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Product deleted successfully")
}

// RegisterRoutes registers product routes. Static segments are registered
// before /:code so they are never read as product codes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup, expenses *ExpenseHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/code/:code", h.GetByCode)
	rg.GET("/name/:name", h.GetByName)
	rg.GET("/search", h.Search)
	rg.GET("/profit-summary", h.ProfitSummary)
	rg.GET("/low-stock", h.LowStock)
	rg.GET("/seller-info", h.SellerInfo)
	rg.GET("/calculate-price/:code", h.CalculatePrice)
	rg.GET("/check-stock/:code", h.CheckStock)
	rg.PATCH("/reduce-stock/:code", h.ReduceStock)
	rg.PUT("/stock/:code", h.Restock)
	rg.GET("/stock/:code", h.StockDetail)
	rg.GET("/stock-history", h.StockHistory)
	rg.GET("/seller-expenses", expenses.SellerExpenses)
	rg.DELETE("/:code", h.Delete)
}
