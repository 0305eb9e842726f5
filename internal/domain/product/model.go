// Package product manages the product catalog and orchestrates stock changes
// through the stock ledger.
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/core/types"
	"billing/internal/domain/units"
)

// GSTCategory classifies a product for tax purposes.
type GSTCategory string

const (
	GSTCategoryGST    GSTCategory = "GST"
	GSTCategoryNonGST GSTCategory = "Non-GST"
)

// Product is a catalog item. StockQuantity is in base units.
type Product struct {
	ID                  id.ID            `db:"id" json:"id"`
	Code                string           `db:"product_code" json:"productCode"`
	Name                string           `db:"product_name" json:"productName"`
	Category            string           `db:"category" json:"category"`
	HSNCode             string           `db:"hsn_code" json:"hsnCode"`
	Brand               string           `db:"brand" json:"brand"`
	MRP                 types.Money      `db:"mrp" json:"mrp"`
	SellerPrice         types.Money      `db:"seller_price" json:"sellerPrice"`
	Profit              types.Money      `db:"profit" json:"profit"`
	Discount            types.Money      `db:"discount" json:"discount"`
	GSTRate             decimal.Decimal  `db:"gst_rate" json:"gst"`
	GSTCategory         GSTCategory      `db:"gst_category" json:"gstCategory"`
	BaseUnit            units.Unit       `db:"base_unit" json:"baseUnit"`
	SecondaryUnit       units.Unit       `db:"secondary_unit" json:"secondaryUnit,omitempty"`
	ConversionRate      decimal.Decimal  `db:"conversion_rate" json:"conversionRate"`
	BasePrice           types.Money      `db:"base_price" json:"basePrice"`
	SecondaryPrice      types.Money      `db:"secondary_price" json:"secondaryPrice"`
	UnitPrices          units.PriceTable `db:"unit_prices" json:"unitPrices"`
	StockQuantity       types.Quantity   `db:"stock_quantity" json:"stockQuantity"`
	OverallQuantity     types.Quantity   `db:"overall_quantity" json:"overallQuantity"`
	LowStockAlert       types.Quantity   `db:"low_stock_alert" json:"lowStockAlert"`
	SupplierName        string           `db:"supplier_name" json:"supplierName"`
	BatchNumber         string           `db:"batch_number" json:"batchNumber"`
	ManufactureDate     *time.Time       `db:"manufacture_date" json:"manufactureDate,omitempty"`
	ExpiryDate          *time.Time       `db:"expiry_date" json:"expiryDate,omitempty"`
	ManufactureLocation string           `db:"manufacture_location" json:"manufactureLocation"`
	CreatedAt           time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updatedAt"`
}

// Profile returns the unit configuration used for pricing and conversion.
func (p *Product) Profile() units.Profile {
	return units.Profile{
		BaseUnit:       p.BaseUnit,
		SecondaryUnit:  p.SecondaryUnit,
		ConversionRate: p.ConversionRate,
		BasePrice:      p.BasePrice,
		SecondaryPrice: p.SecondaryPrice,
		UnitPrices:     p.UnitPrices,
	}
}

// applyProfile copies derived pricing back onto the product.
func (p *Product) applyProfile(pr units.Profile) {
	p.ConversionRate = pr.ConversionRate
	p.BasePrice = pr.BasePrice
	p.SecondaryPrice = pr.SecondaryPrice
	p.UnitPrices = pr.UnitPrices
}

// deriveProfit sets profit to mrp - sellerPrice.
func (p *Product) deriveProfit() {
	p.Profit = p.MRP.Sub(p.SellerPrice)
}

// setStock sets the stock quantity and keeps overall quantity in step.
func (p *Product) setStock(q types.Quantity) error {
	overall, err := q.MulChecked(p.Profile().Rate())
	if err != nil {
		return stockOutOfRange(p.Code)
	}
	p.StockQuantity = q
	p.OverallQuantity = overall
	return nil
}

func stockOutOfRange(code string) error {
	return apperror.NewFieldValidation("stockQuantity", "stock quantity exceeds the supported range").
		WithDetail("productCode", code)
}

// CreateInput is the validated payload for product registration.
type CreateInput struct {
	Code                string
	Name                string
	Category            string
	HSNCode             string
	Brand               string
	MRP                 types.Money
	SellerPrice         types.Money
	Discount            types.Money
	GSTRate             decimal.Decimal
	GSTCategory         GSTCategory
	BaseUnit            units.Unit
	SecondaryUnit       units.Unit
	ConversionRate      decimal.Decimal
	BasePrice           *types.Money
	StockQuantity       types.Quantity
	LowStockAlert       types.Quantity
	SupplierName        string
	BatchNumber         string
	ManufactureDate     *time.Time
	ExpiryDate          *time.Time
	ManufactureLocation string
}

// Validate checks required fields and value ranges.
func (in *CreateInput) Validate() error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)

	switch {
	case in.Code == "":
		return apperror.NewFieldValidation("productCode", "product code is required")
	case in.Name == "":
		return apperror.NewFieldValidation("productName", "product name is required")
	case in.MRP.IsNegative():
		return apperror.NewFieldValidation("mrp", "mrp cannot be negative")
	case in.SellerPrice.IsNegative():
		return apperror.NewFieldValidation("sellerPrice", "seller price cannot be negative")
	case in.StockQuantity.IsNegative():
		return apperror.NewFieldValidation("stockQuantity", "stock quantity cannot be negative")
	case in.LowStockAlert.IsNegative():
		return apperror.NewFieldValidation("lowStockAlert", "low stock alert cannot be negative")
	case in.GSTCategory != GSTCategoryGST && in.GSTCategory != GSTCategoryNonGST:
		return apperror.NewFieldValidation("gstCategory", `GST Category must be either "GST" or "Non-GST"`)
	}
	if in.SecondaryUnit != "" && !in.SecondaryUnit.Valid() {
		return apperror.NewFieldValidation("secondaryUnit", "unrecognized secondary unit").
			WithDetail("value", string(in.SecondaryUnit))
	}
	if in.ExpiryDate != nil && in.ManufactureDate != nil && in.ExpiryDate.Before(*in.ManufactureDate) {
		return apperror.NewFieldValidation("expiryDate", "expiry date must not be before manufacture date")
	}
	return nil
}

// RestockInput is the validated payload of a stock addition.
type RestockInput struct {
	Added           types.Quantity
	PreviousStock   *types.Quantity // informational; the server's own value is authoritative
	SupplierName    string
	BatchNumber     string
	ManufactureDate *time.Time
	ExpiryDate      *time.Time
	MRP             *types.Money
	SellerPrice     *types.Money
}

// Validate fails closed on a missing or non-positive quantity.
func (in RestockInput) Validate() error {
	if !in.Added.IsPositive() {
		return apperror.NewFieldValidation("newStockAdded", "Invalid stock quantity")
	}
	if in.MRP != nil && in.MRP.IsNegative() {
		return apperror.NewFieldValidation("mrp", "mrp cannot be negative")
	}
	if in.SellerPrice != nil && in.SellerPrice.IsNegative() {
		return apperror.NewFieldValidation("sellerPrice", "seller price cannot be negative")
	}
	return nil
}

// StockCheck is the result of an availability query.
type StockCheck struct {
	Available        types.Quantity `json:"available"`
	Required         types.Quantity `json:"required"`
	IsAvailable      bool           `json:"isAvailable"`
	AvailableDisplay types.Quantity `json:"availableDisplay"`
	BaseUnit         units.Unit     `json:"baseUnit"`
	RequestedUnit    units.Unit     `json:"requestedUnit"`
}

// ProfitSummary aggregates per-unit profit across the catalog.
type ProfitSummary struct {
	TotalProducts int         `json:"totalProducts"`
	TotalProfit   types.Money `json:"totalProfit"`
	AverageProfit types.Money `json:"averageProfit"`
}

// SellerInfo identifies the first product matching a supplier and brand.
type SellerInfo struct {
	SellerID     id.ID  `json:"sellerId"`
	SupplierName string `json:"supplierName"`
	Brand        string `json:"brand"`
}
