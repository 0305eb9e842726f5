package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"billing/internal/core/types"
	"billing/internal/domain/product"
	"billing/internal/domain/stock"
	"billing/internal/domain/units"
)

// CreateProductRequest is the body of POST /products.
// Money and quantity fields accept JSON numbers or numeric strings.
type CreateProductRequest struct {
	ProductCode         string          `json:"productCode" binding:"required"`
	ProductName         string          `json:"productName" binding:"required"`
	Category            string          `json:"category"`
	HSNCode             string          `json:"hsnCode"`
	Brand               string          `json:"brand"`
	MRP                 *types.Money    `json:"mrp" binding:"required"`
	SellerPrice         *types.Money    `json:"sellerPrice" binding:"required"`
	Discount            types.Money     `json:"discount"`
	GST                 decimal.Decimal `json:"gst"`
	GSTCategory         string          `json:"gstCategory"`
	BaseUnit            string          `json:"baseUnit" binding:"required"`
	SecondaryUnit       string          `json:"secondaryUnit"`
	ConversionRate      decimal.Decimal `json:"conversionRate"`
	BasePrice           *types.Money    `json:"basePrice"`
	StockQuantity       types.Quantity  `json:"stockQuantity"`
	LowStockAlert       types.Quantity  `json:"lowStockAlert"`
	SupplierName        string          `json:"supplierName"`
	BatchNumber         string          `json:"batchNumber"`
	ManufactureDate     Date            `json:"manufactureDate"`
	ExpiryDate          Date            `json:"expiryDate"`
	ManufactureLocation string          `json:"manufactureLocation"`
}

func (r *CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput{
		Code:                r.ProductCode,
		Name:                r.ProductName,
		Category:            strings.TrimSpace(r.Category),
		HSNCode:             r.HSNCode,
		Brand:               strings.TrimSpace(r.Brand),
		MRP:                 *r.MRP,
		SellerPrice:         *r.SellerPrice,
		Discount:            r.Discount,
		GSTRate:             r.GST,
		GSTCategory:         product.GSTCategory(strings.TrimSpace(r.GSTCategory)),
		BaseUnit:            units.Unit(strings.TrimSpace(r.BaseUnit)),
		SecondaryUnit:       units.Unit(strings.TrimSpace(r.SecondaryUnit)),
		ConversionRate:      r.ConversionRate,
		BasePrice:           r.BasePrice,
		StockQuantity:       r.StockQuantity,
		LowStockAlert:       r.LowStockAlert,
		SupplierName:        r.SupplierName,
		BatchNumber:         r.BatchNumber,
		ManufactureDate:     r.ManufactureDate.Ptr(),
		ExpiryDate:          r.ExpiryDate.Ptr(),
		ManufactureLocation: strings.TrimSpace(r.ManufactureLocation),
	}
}

// RestockRequest is the body of PUT /products/stock/:code.
type RestockRequest struct {
	NewStockAdded   types.Quantity  `json:"newStockAdded"`
	PreviousStock   *types.Quantity `json:"previousStock"`
	SupplierName    string          `json:"supplierName"`
	BatchNumber     string          `json:"batchNumber"`
	ManufactureDate Date            `json:"manufactureDate"`
	ExpiryDate      Date            `json:"expiryDate"`
	MRP             *types.Money    `json:"mrp"`
	SellerPrice     *types.Money    `json:"sellerPrice"`
}

func (r *RestockRequest) ToInput() product.RestockInput {
	return product.RestockInput{
		Added:           r.NewStockAdded,
		PreviousStock:   r.PreviousStock,
		SupplierName:    r.SupplierName,
		BatchNumber:     r.BatchNumber,
		ManufactureDate: r.ManufactureDate.Ptr(),
		ExpiryDate:      r.ExpiryDate.Ptr(),
		MRP:             r.MRP,
		SellerPrice:     r.SellerPrice,
	}
}

// RestockResponse confirms a stock addition.
type RestockResponse struct {
	Message string           `json:"message"`
	Product *product.Product `json:"product"`
	Stock   *stock.Entry     `json:"stock"`
}

// ReduceStockRequest is the body of PATCH /products/reduce-stock/:code.
// Unit defaults to the product's base unit.
type ReduceStockRequest struct {
	Quantity types.Quantity `json:"quantity"`
	Unit     string         `json:"unit"`
}

// ReduceStockResponse reports the product after a sale.
type ReduceStockResponse struct {
	Message        string           `json:"message"`
	Product        *product.Product `json:"product"`
	RemainingStock types.Quantity   `json:"remainingStock"`
}

// PriceResponse is the result of GET /products/calculate-price/:code.
type PriceResponse struct {
	Price    types.Money    `json:"price"`
	Unit     units.Unit     `json:"unit"`
	Quantity types.Quantity `json:"quantity"`
}
