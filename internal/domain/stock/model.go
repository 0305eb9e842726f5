// Package stock provides the per-product stock ledger and its audit history.
package stock

import (
	"fmt"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/core/types"
)

// Kind is the type of a stock-affecting event.
type Kind string

const (
	KindRestock Kind = "RESTOCK"
	KindSale    Kind = "SALE"
	KindDelete  Kind = "DELETE"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	switch k {
	case KindRestock, KindSale, KindDelete:
		return true
	}
	return false
}

// Entry is the ledger row of one product code. Quantities are in base units.
type Entry struct {
	ProductCode       string         `db:"product_code" json:"productCode"`
	ProductName       string         `db:"product_name" json:"productName"`
	TotalQuantity     types.Quantity `db:"total_quantity" json:"totalQuantity"`
	AvailableQuantity types.Quantity `db:"available_quantity" json:"availableQuantity"`
	SellingQuantity   types.Quantity `db:"selling_quantity" json:"sellingQuantity"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// EmptyEntry is the zero row reported for a product that never had stock.
func EmptyEntry(code, name string) Entry {
	return Entry{ProductCode: code, ProductName: name}
}

// Validate checks the ledger invariant.
func (e *Entry) Validate() error {
	if e.AvailableQuantity.IsNegative() {
		return apperror.NewStateInconsistency("available quantity is negative").
			WithDetail("productCode", e.ProductCode).
			WithDetail("available", e.AvailableQuantity.String())
	}
	if e.AvailableQuantity > e.TotalQuantity {
		return apperror.NewStateInconsistency("available quantity exceeds total quantity").
			WithDetail("productCode", e.ProductCode).
			WithDetail("available", e.AvailableQuantity.String()).
			WithDetail("total", e.TotalQuantity.String())
	}
	return nil
}

// Meta is the descriptive data recorded alongside a stock event.
type Meta struct {
	ProductID       id.ID
	ProductName     string
	SupplierName    string
	BatchNumber     string
	ManufactureDate *time.Time
	ExpiryDate      *time.Time
	MRP             types.Money
	SellerPrice     types.Money
	Note            string
}

// Delta is a single stock-affecting event. Quantity is in base units.
type Delta struct {
	ProductCode string
	Quantity    types.Quantity
	Kind        Kind
	Meta        Meta
}

// Validate checks the delta before any ledger access.
func (d Delta) Validate() error {
	if d.ProductCode == "" {
		return apperror.NewFieldValidation("productCode", "product code is required")
	}
	if !d.Kind.Valid() {
		return apperror.NewValidation(fmt.Sprintf("unknown stock event kind %q", d.Kind))
	}
	if d.Kind != KindDelete && !d.Quantity.IsPositive() {
		return apperror.NewFieldValidation("quantity", "quantity must be greater than 0").
			WithDetail("value", d.Quantity.String())
	}
	return nil
}

// HistoryRecord is an immutable audit entry for one stock event.
type HistoryRecord struct {
	ID              id.ID          `db:"id" json:"id"`
	ProductID       *id.ID         `db:"product_id" json:"productId,omitempty"`
	ProductCode     string         `db:"product_code" json:"productCode"`
	ProductName     string         `db:"product_name" json:"productName"`
	Action          Kind           `db:"action" json:"action"`
	PreviousStock   types.Quantity `db:"previous_stock" json:"previousStock"`
	AddedStock      types.Quantity `db:"added_stock" json:"addedStock"`
	NewStock        types.Quantity `db:"new_stock" json:"newStock"`
	SupplierName    string         `db:"supplier_name" json:"supplierName"`
	BatchNumber     string         `db:"batch_number" json:"batchNumber"`
	ManufactureDate *time.Time     `db:"manufacture_date" json:"manufactureDate,omitempty"`
	ExpiryDate      *time.Time     `db:"expiry_date" json:"expiryDate,omitempty"`
	MRP             types.Money    `db:"mrp" json:"mrp"`
	SellerPrice     types.Money    `db:"seller_price" json:"sellerPrice"`
	UpdatedBy       string         `db:"updated_by" json:"updatedBy"`
	Notes           string         `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

// HistoryFilter narrows a history query. Zero values mean "no filter".
type HistoryFilter struct {
	ProductCode string
	From        *time.Time
	To          *time.Time
	Limit       int
}
