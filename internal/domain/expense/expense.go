// Package expense aggregates supplier spending per (supplier, batch).
package expense

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/core/types"
)

// Line is one product inside a batch.
type Line struct {
	ProductID       id.ID          `db:"id" json:"id"`
	ProductName     string         `db:"product_name" json:"productName"`
	ProductCode     string         `db:"product_code" json:"productCode"`
	Category        string         `db:"category" json:"category"`
	BaseUnit        string         `db:"base_unit" json:"baseUnit"`
	AddedStock      types.Quantity `db:"stock_quantity" json:"addedStock"`
	SellerPrice     types.Money    `db:"seller_price" json:"sellerPrice"`
	MRP             types.Money    `db:"mrp" json:"mrp"`
	ManufactureDate *time.Time     `db:"manufacture_date" json:"manufactureDate,omitempty"`
	ExpiryDate      *time.Time     `db:"expiry_date" json:"expiryDate,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	SupplierName    string         `db:"supplier_name" json:"-"`
	BatchNumber     string         `db:"batch_number" json:"-"`
}

// Group is the expense summary of one batch.
type Group struct {
	SupplierName string      `json:"supplierName"`
	BatchNumber  string      `json:"batchNumber"`
	Products     []Line      `json:"products"`
	TotalAmount  types.Money `json:"totalAmount"`
	TotalProfit  types.Money `json:"totalProfit"`
}

// Filter narrows the aggregation. SupplierName matches case-insensitively by substring.
type Filter struct {
	From         *time.Time
	To           *time.Time
	SupplierName string
}

// Source lists product lines that carry both a supplier and a batch.
type Source interface {
	Lines(ctx context.Context, filter Filter) ([]Line, error)
	BatchLines(ctx context.Context, supplier, batch string) ([]Line, error)
}

// Service computes seller expenses.
type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

// Groups returns batches sorted by supplier then batch.
func (s *Service) Groups(ctx context.Context, f Filter) ([]Group, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperror.NewValidation("endDate must not be before startDate")
	}
	f.SupplierName = strings.TrimSpace(f.SupplierName)

	lines, err := s.src.Lines(ctx, f)
	if err != nil {
		return nil, err
	}
	return Aggregate(lines), nil
}

// BatchTotal returns the amount owed for one batch. It fails with NOT_FOUND
// when no product belongs to the batch.
func (s *Service) BatchTotal(ctx context.Context, supplier, batch string) (types.Money, error) {
	lines, err := s.src.BatchLines(ctx, supplier, batch)
	if err != nil {
		return decimal.Zero, err
	}
	if len(lines) == 0 {
		return decimal.Zero, apperror.NewNotFound("batch", supplier+"-"+batch)
	}
	groups := Aggregate(lines)
	return groups[0].TotalAmount, nil
}

type groupKey struct{ supplier, batch string }

// Aggregate groups lines by (supplier, batch). Lines missing either field are skipped.
//
//	totalAmount = Σ stock × sellerPrice
//	totalProfit = Σ stock × (mrp − sellerPrice)
func Aggregate(lines []Line) []Group {
	index := make(map[groupKey]int)
	var groups []Group
	amounts := make([]decimal.Decimal, 0)
	profits := make([]decimal.Decimal, 0)

	for _, l := range lines {
		if l.SupplierName == "" || l.BatchNumber == "" {
			continue
		}
		k := groupKey{l.SupplierName, l.BatchNumber}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{SupplierName: l.SupplierName, BatchNumber: l.BatchNumber})
			amounts = append(amounts, decimal.Zero)
			profits = append(profits, decimal.Zero)
		}

		qty := l.AddedStock.Decimal()
		groups[i].Products = append(groups[i].Products, l)
		amounts[i] = amounts[i].Add(qty.Mul(l.SellerPrice))
		profits[i] = profits[i].Add(qty.Mul(l.MRP.Sub(l.SellerPrice)))
	}

	for i := range groups {
		groups[i].TotalAmount = types.RoundMoney(amounts[i])
		groups[i].TotalProfit = types.RoundMoney(profits[i])
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].SupplierName != groups[b].SupplierName {
			return groups[a].SupplierName < groups[b].SupplierName
		}
		return groups[a].BatchNumber < groups[b].BatchNumber
	})
	if groups == nil {
		groups = []Group{}
	}
	return groups
}
