package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/core/tx"
	"billing/internal/core/types"
	"billing/internal/domain/alert"
	"billing/internal/domain/stock"
	"billing/internal/domain/units"
	"billing/pkg/logger"
)

const (
	searchMinLength    = 2
	searchLimit        = 10
	detailHistoryLimit = 50

	noteInitialStock = "initial stock"
	noteDeleted      = "Product deleted from system"
)

// LowStockRule decides whether a product is low on stock.
type LowStockRule interface {
	Evaluate(f alert.Facts) (bool, error)
}

// Service implements catalog and stock operations.
type Service struct {
	repo     Repository
	ledger   *stock.Ledger
	tx       tx.Manager
	lowStock LowStockRule
	now      func() time.Time
}

// NewService creates the product service.
func NewService(repo Repository, ledger *stock.Ledger, txm tx.Manager, lowStock LowStockRule) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		tx:       txm,
		lowStock: lowStock,
		now:      time.Now,
	}
}

// Create registers a product and records its initial stock through the ledger.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	basePrice := in.MRP
	if in.BasePrice != nil && !in.BasePrice.IsZero() {
		basePrice = *in.BasePrice
	}
	profile, err := units.NewProfile(in.BaseUnit, basePrice, in.SecondaryUnit, in.ConversionRate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &Product{
		ID:                  id.New(),
		Code:                in.Code,
		Name:                in.Name,
		Category:            in.Category,
		HSNCode:             strings.TrimSpace(in.HSNCode),
		Brand:               in.Brand,
		MRP:                 in.MRP,
		SellerPrice:         in.SellerPrice,
		Discount:            in.Discount,
		GSTRate:             in.GSTRate,
		GSTCategory:         in.GSTCategory,
		BaseUnit:            in.BaseUnit,
		SecondaryUnit:       in.SecondaryUnit,
		LowStockAlert:       in.LowStockAlert,
		SupplierName:        strings.TrimSpace(in.SupplierName),
		BatchNumber:         strings.TrimSpace(in.BatchNumber),
		ManufactureDate:     in.ManufactureDate,
		ExpiryDate:          in.ExpiryDate,
		ManufactureLocation: in.ManufactureLocation,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	p.applyProfile(profile)
	p.deriveProfit()
	if err := p.setStock(in.StockQuantity); err != nil {
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByCode(ctx, p.Code)
		if err != nil {
			return fmt.Errorf("check product code: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("product", "productCode", p.Code)
		}

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		if !p.StockQuantity.IsPositive() {
			return nil
		}
		_, err = s.ledger.Apply(ctx, s.delta(p, stock.KindRestock, p.StockQuantity, noteInitialStock))
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", "product_code", p.Code, "stock", p.StockQuantity.String())
	return p, nil
}

// RestockResult is returned by Restock.
type RestockResult struct {
	Product *Product
	Stock   *stock.Entry
}

// Restock adds stock to a product. Supplier, batch, dates and prices in the
// input replace the product's values when present; profit is re-derived.
func (s *Service) Restock(ctx context.Context, code string, in RestockInput) (*RestockResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var result RestockResult
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		if in.PreviousStock != nil && *in.PreviousStock != p.StockQuantity {
			logger.Info(ctx, "restock previousStock differs from stored stock",
				"product_code", code,
				"client_previous", in.PreviousStock.String(),
				"stored", p.StockQuantity.String(),
			)
		}

		if v := strings.TrimSpace(in.SupplierName); v != "" {
			p.SupplierName = v
		}
		if v := strings.TrimSpace(in.BatchNumber); v != "" {
			p.BatchNumber = v
		}
		if in.ManufactureDate != nil {
			p.ManufactureDate = in.ManufactureDate
		}
		if in.ExpiryDate != nil {
			p.ExpiryDate = in.ExpiryDate
		}
		if in.MRP != nil {
			p.MRP = *in.MRP
		}
		if in.SellerPrice != nil {
			p.SellerPrice = *in.SellerPrice
		}
		p.deriveProfit()
		newStock, err := p.StockQuantity.AddChecked(in.Added)
		if err != nil {
			return stockOutOfRange(p.Code)
		}
		if err := p.setStock(newStock); err != nil {
			return err
		}
		p.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		entry, err := s.ledger.Apply(ctx, s.delta(p, stock.KindRestock, in.Added, ""))
		if err != nil {
			return err
		}

		result = RestockResult{Product: p, Stock: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReduceStock records a sale of qty in unit (base unit when empty).
// The product's stock and the ledger decrease together or not at all.
func (s *Service) ReduceStock(ctx context.Context, code string, qty types.Quantity, unit units.Unit) (*Product, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewFieldValidation("quantity", "Quantity must be greater than 0")
	}

	var out *Product
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		if unit == "" {
			unit = p.BaseUnit
		}
		baseQty, err := p.Profile().ToBase(unit, qty)
		if err != nil {
			return err
		}
		if !baseQty.IsPositive() {
			return apperror.NewFieldValidation("quantity", "quantity is below the smallest trackable amount")
		}
		if baseQty > p.StockQuantity {
			return apperror.NewInsufficientStock(code, baseQty.String(), p.StockQuantity.String())
		}

		if _, err := s.ledger.Apply(ctx, s.delta(p, stock.KindSale, baseQty, "")); err != nil {
			return err
		}

		if err := p.setStock(p.StockQuantity - baseQty); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckStock reports whether qty of unit is available.
func (s *Service) CheckStock(ctx context.Context, code string, unit units.Unit, qty types.Quantity) (*StockCheck, error) {
	if qty.IsNegative() {
		return nil, apperror.NewFieldValidation("quantity", "quantity cannot be negative")
	}

	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if unit == "" {
		unit = p.BaseUnit
	}

	profile := p.Profile()
	required, err := profile.ToBase(unit, qty)
	if err != nil {
		return nil, err
	}

	exists, err := s.ledger.Exists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &StockCheck{BaseUnit: p.BaseUnit, RequestedUnit: unit}, nil
	}

	entry, err := s.ledger.Get(ctx, code, p.Name)
	if err != nil {
		return nil, err
	}
	display, err := profile.FromBase(unit, entry.AvailableQuantity)
	if err != nil {
		return nil, err
	}

	return &StockCheck{
		Available:        entry.AvailableQuantity,
		Required:         required,
		IsAvailable:      entry.AvailableQuantity >= required,
		AvailableDisplay: display,
		BaseUnit:         p.BaseUnit,
		RequestedUnit:    unit,
	}, nil
}

// CalculatePrice prices qty units of unit.
func (s *Service) CalculatePrice(ctx context.Context, code string, unit units.Unit, qty types.Quantity) (types.Money, error) {
	if qty.IsNegative() {
		return decimal.Zero, apperror.NewFieldValidation("quantity", "quantity cannot be negative")
	}
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	if unit == "" {
		unit = p.BaseUnit
	}
	return p.Profile().Price(unit, qty)
}

// Delete removes a product and its ledger row and records a DELETE marker.
func (s *Service) Delete(ctx context.Context, code string) error {
	return s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, code); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if _, err := s.ledger.Apply(ctx, s.delta(p, stock.KindDelete, 0, noteDeleted)); err != nil {
			return err
		}
		logger.Info(ctx, "product deleted", "product_code", code)
		return nil
	})
}

// StockDetail is a product with its ledger row and recent history.
type StockDetail struct {
	Product *Product              `json:"product"`
	Stock   *stock.Entry          `json:"stock"`
	History []stock.HistoryRecord `json:"stockHistory"`
}

// GetStockDetail returns the product, its ledger row (zero row when absent)
// and the most recent history entries.
func (s *Service) GetStockDetail(ctx context.Context, code string) (*StockDetail, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	entry, err := s.ledger.Get(ctx, code, p.Name)
	if err != nil {
		return nil, err
	}
	history, err := s.ledger.History(ctx, stock.HistoryFilter{ProductCode: code, Limit: detailHistoryLimit})
	if err != nil {
		return nil, err
	}
	return &StockDetail{Product: p, Stock: entry, History: history}, nil
}

// StockHistory returns history records newest first.
func (s *Service) StockHistory(ctx context.Context, filter stock.HistoryFilter) ([]stock.HistoryRecord, error) {
	return s.ledger.History(ctx, filter)
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, ListFilter{})
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) FindByName(ctx context.Context, name string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewFieldValidation("name", "name is required")
	}
	return s.repo.FindByName(ctx, name)
}

// Search matches code or name, at most 10 results.
func (s *Service) Search(ctx context.Context, query string) ([]Product, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < searchMinLength {
		return nil, apperror.NewFieldValidation("query", "Search query must be at least 2 characters")
	}
	return s.repo.List(ctx, ListFilter{Query: query, Limit: searchLimit})
}

// ProfitSummary totals the per-unit profit of all products.
func (s *Service) ProfitSummary(ctx context.Context) (*ProfitSummary, error) {
	products, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range products {
		total = total.Add(products[i].Profit)
	}

	summary := &ProfitSummary{
		TotalProducts: len(products),
		TotalProfit:   types.RoundMoney(total),
		AverageProfit: decimal.Zero,
	}
	if len(products) > 0 {
		summary.AverageProfit = types.RoundMoney(total.Div(decimal.NewFromInt(int64(len(products)))))
	}
	return summary, nil
}

func (s *Service) SellerInfo(ctx context.Context, supplier, brand string) (*SellerInfo, error) {
	supplier, brand = strings.TrimSpace(supplier), strings.TrimSpace(brand)
	if supplier == "" || brand == "" {
		return nil, apperror.NewValidation("Supplier name and brand are required")
	}
	p, err := s.repo.FindBySupplierBrand(ctx, supplier, brand)
	if err != nil {
		return nil, err
	}
	return &SellerInfo{SellerID: p.ID, SupplierName: p.SupplierName, Brand: p.Brand}, nil
}

// LowStock returns products matching the low-stock rule.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]Product, 0)
	for i := range products {
		p := &products[i]
		low, err := s.lowStock.Evaluate(alert.Facts{
			StockQuantity:   p.StockQuantity.Float64(),
			OverallQuantity: p.OverallQuantity.Float64(),
			LowStockAlert:   p.LowStockAlert.Float64(),
			Category:        p.Category,
			DaysToExpiry:    alert.DaysUntil(p.ExpiryDate, now),
		})
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		if low {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Service) delta(p *Product, kind stock.Kind, qty types.Quantity, note string) stock.Delta {
	return stock.Delta{
		ProductCode: p.Code,
		Quantity:    qty,
		Kind:        kind,
		Meta: stock.Meta{
			ProductID:       p.ID,
			ProductName:     p.Name,
			SupplierName:    p.SupplierName,
			BatchNumber:     p.BatchNumber,
			ManufactureDate: p.ManufactureDate,
			ExpiryDate:      p.ExpiryDate,
			MRP:             p.MRP,
			SellerPrice:     p.SellerPrice,
			Note:            note,
		},
	}
}
