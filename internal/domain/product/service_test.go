package product

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/apperror"
	"billing/internal/core/tx"
	"billing/internal/core/types"
	"billing/internal/domain/alert"
	"billing/internal/domain/stock"
	"billing/internal/domain/units"
)

type memProducts struct {
	mu   sync.Mutex
	rows map[string]Product
}

func (r *memProducts) Create(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.Code] = *p
	return nil
}

func (r *memProducts) Update(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.Code] = *p
	return nil
}

func (r *memProducts) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, code)
	return nil
}

func (r *memProducts) GetByCode(_ context.Context, code string) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[code]
	if !ok {
		return nil, apperror.NewNotFound("product", code)
	}
	return &p, nil
}

func (r *memProducts) GetByCodeForUpdate(ctx context.Context, code string) (*Product, error) {
	return r.GetByCode(ctx, code)
}

func (r *memProducts) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[code]
	return ok, nil
}

func (r *memProducts) FindByName(_ context.Context, name string) (*Product, error) {
	for _, p := range r.sorted() {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", name)
}

func (r *memProducts) List(_ context.Context, f ListFilter) ([]Product, error) {
	var out []Product
	q := strings.ToLower(f.Query)
	for _, p := range r.sorted() {
		if q != "" && !strings.Contains(strings.ToLower(p.Code), q) && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *memProducts) FindBySupplierBrand(_ context.Context, supplier, brand string) (*Product, error) {
	for _, p := range r.sorted() {
		if strings.Contains(strings.ToLower(p.SupplierName), strings.ToLower(supplier)) &&
			strings.Contains(strings.ToLower(p.Brand), strings.ToLower(brand)) {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", supplier+"/"+brand)
}

func (r *memProducts) sorted() []Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Product, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type memLedgerRows struct {
	mu   sync.Mutex
	rows map[string]stock.Entry
}

func (r *memLedgerRows) Get(_ context.Context, code string) (*stock.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[code]
	if !ok {
		return nil, apperror.NewNotFound("stock", code)
	}
	return &e, nil
}

func (r *memLedgerRows) GetForUpdate(_ context.Context, code string) (*stock.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[code]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memLedgerRows) Save(_ context.Context, e *stock.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[e.ProductCode] = *e
	return nil
}

func (r *memLedgerRows) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, code)
	return nil
}

type memHistory struct {
	mu      sync.Mutex
	records []stock.HistoryRecord
}

func (h *memHistory) Append(_ context.Context, rec *stock.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, *rec)
	return nil
}

func (h *memHistory) List(_ context.Context, f stock.HistoryFilter) ([]stock.HistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []stock.HistoryRecord
	for i := len(h.records) - 1; i >= 0; i-- {
		if f.ProductCode == "" || h.records[i].ProductCode == f.ProductCode {
			out = append(out, h.records[i])
		}
	}
	return out, nil
}

type fixture struct {
	svc     *Service
	repo    *memProducts
	ledger  *memLedgerRows
	history *memHistory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    &memProducts{rows: map[string]Product{}},
		ledger:  &memLedgerRows{rows: map[string]stock.Entry{}},
		history: &memHistory{},
	}
	rule, err := alert.Compile("stockQuantity <= lowStockAlert")
	require.NoError(t, err)

	ledger := stock.NewLedger(f.ledger, f.history, tx.Passthrough)
	f.svc = NewService(f.repo, ledger, tx.Passthrough, rule)

	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return f
}

func boxInput(code string, stockQty string) CreateInput {
	return CreateInput{
		Code:           code,
		Name:           "Biscuits " + code,
		Brand:          "Acme",
		MRP:            types.MustMoney("120"),
		SellerPrice:    types.MustMoney("90"),
		GSTCategory:    GSTCategoryGST,
		BaseUnit:       units.Box,
		SecondaryUnit:  units.Piece,
		ConversionRate: decimal.NewFromInt(12),
		StockQuantity:  types.MustQuantity(stockQty),
		LowStockAlert:  types.MustQuantity("2"),
		SupplierName:   "Sharma Traders",
		BatchNumber:    "B1",
	}
}

func assertOverall(t *testing.T, p *Product) {
	t.Helper()
	assert.Equal(t, p.StockQuantity.Mul(p.Profile().Rate()), p.OverallQuantity)
}

func TestService_CreateDerivesPricesAndStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, boxInput("BX1", "10"))
	require.NoError(t, err)

	assert.Equal(t, "30", p.Profit.String())
	assert.True(t, p.BasePrice.Equal(types.MustMoney("120")))
	assert.Equal(t, "10.00", p.SecondaryPrice.StringFixed(2))
	assert.Equal(t, types.MustQuantity("120"), p.OverallQuantity)
	assertOverall(t, p)

	entry := f.ledger.rows["BX1"]
	assert.Equal(t, types.MustQuantity("10"), entry.TotalQuantity)
	require.Len(t, f.history.records, 1)
	assert.Equal(t, noteInitialStock, f.history.records[0].Notes)

	_, err = f.svc.Create(ctx, boxInput("BX1", "1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestService_CreateValidation(t *testing.T) {
	f := newFixture(t)

	bad := boxInput("BX2", "1")
	bad.GSTCategory = "VAT"
	_, err := f.svc.Create(context.Background(), bad)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	bad = boxInput("BX2", "1")
	bad.BaseUnit = "crate"
	_, err = f.svc.Create(context.Background(), bad)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.Empty(t, f.repo.rows)
}

func TestService_RestockRederivesProfit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, boxInput("BX3", "5"))
	require.NoError(t, err)

	newSeller := types.MustMoney("100")
	res, err := f.svc.Restock(ctx, "BX3", RestockInput{
		Added:       types.MustQuantity("3"),
		BatchNumber: "B2",
		SellerPrice: &newSeller,
	})
	require.NoError(t, err)

	assert.Equal(t, types.MustQuantity("8"), res.Product.StockQuantity)
	assert.Equal(t, "20", res.Product.Profit.String())
	assert.Equal(t, "B2", res.Product.BatchNumber)
	assertOverall(t, res.Product)
	assert.Equal(t, types.MustQuantity("8"), res.Stock.AvailableQuantity)
	assert.Equal(t, types.MustQuantity("8"), res.Stock.TotalQuantity)

	last := f.history.records[len(f.history.records)-1]
	assert.Equal(t, types.MustQuantity("5"), last.PreviousStock)
	assert.Equal(t, types.MustQuantity("8"), last.NewStock)
	assert.Equal(t, "B2", last.BatchNumber)
}

func TestService_RestockRejectsMissingQuantity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), boxInput("BX4", "5"))
	require.NoError(t, err)

	_, err = f.svc.Restock(context.Background(), "BX4", RestockInput{})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Restock(context.Background(), "missing", RestockInput{Added: types.MustQuantity("1")})
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_ReduceStockInSecondaryUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, boxInput("BX5", "10"))
	require.NoError(t, err)

	p, err := f.svc.ReduceStock(ctx, "BX5", types.MustQuantity("24"), units.Piece)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("8"), p.StockQuantity)
	assert.Equal(t, types.MustQuantity("96"), p.OverallQuantity)
	assert.Equal(t, types.MustQuantity("8"), f.ledger.rows["BX5"].AvailableQuantity)
	assert.Equal(t, types.MustQuantity("10"), f.ledger.rows["BX5"].TotalQuantity)

	_, err = f.svc.ReduceStock(ctx, "BX5", types.MustQuantity("9"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, types.MustQuantity("8"), f.repo.rows["BX5"].StockQuantity)
	assert.Equal(t, types.MustQuantity("8"), f.ledger.rows["BX5"].AvailableQuantity)

	_, err = f.svc.ReduceStock(ctx, "BX5", types.MustQuantity("1"), units.Kilogram)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedUnit))

	_, err = f.svc.ReduceStock(ctx, "BX5", 0, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_CheckStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := boxInput("KG1", "2")
	in.BaseUnit, in.SecondaryUnit, in.ConversionRate = units.Kilogram, "", decimal.Zero
	_, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	res, err := f.svc.CheckStock(ctx, "KG1", units.Gram, types.MustQuantity("500"))
	require.NoError(t, err)
	assert.True(t, res.IsAvailable)
	assert.Equal(t, types.MustQuantity("0.5"), res.Required)
	assert.Equal(t, types.MustQuantity("2"), res.Available)
	assert.Equal(t, types.MustQuantity("2000"), res.AvailableDisplay)

	res, err = f.svc.CheckStock(ctx, "KG1", units.Kilogram, types.MustQuantity("3"))
	require.NoError(t, err)
	assert.False(t, res.IsAvailable)

	empty := boxInput("EMPTY", "0")
	_, err = f.svc.Create(ctx, empty)
	require.NoError(t, err)
	res, err = f.svc.CheckStock(ctx, "EMPTY", units.Box, types.MustQuantity("1"))
	require.NoError(t, err)
	assert.False(t, res.IsAvailable)
	assert.True(t, res.Available.IsZero())
	assert.Equal(t, units.Box, res.BaseUnit)

	delete(f.ledger.rows, "EMPTY")
	_, err = f.svc.CheckStock(ctx, "EMPTY", units.Liter, types.MustQuantity("1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedUnit), "got %v", err)
}

func TestService_RestockRejectsOverflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := boxInput("BIG", "1")
	in.BaseUnit, in.SecondaryUnit, in.ConversionRate = units.Kilogram, "", decimal.NewFromInt(1)
	_, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.svc.Restock(ctx, "BIG", RestockInput{Added: types.Quantity(math.MaxInt64)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)

	p, err := f.svc.GetByCode(ctx, "BIG")
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("1"), p.StockQuantity)
	assert.Equal(t, types.MustQuantity("1"), f.ledger.rows["BIG"].AvailableQuantity)
}

func TestService_CalculatePrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := boxInput("KG2", "1")
	in.BaseUnit, in.SecondaryUnit, in.ConversionRate = units.Kilogram, "", decimal.NewFromInt(1)
	in.MRP = types.MustMoney("100")
	_, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	price, err := f.svc.CalculatePrice(ctx, "KG2", units.Gram, types.MustQuantity("500"))
	require.NoError(t, err)
	assert.Equal(t, "50.00", price.StringFixed(2))

	_, err = f.svc.CalculatePrice(ctx, "KG2", units.Bottle, types.MustQuantity("1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedUnit))
}

func TestService_DeleteRecordsMarker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, boxInput("BX6", "4"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "BX6"))

	assert.NotContains(t, f.repo.rows, "BX6")
	assert.NotContains(t, f.ledger.rows, "BX6")
	marker := f.history.records[len(f.history.records)-1]
	assert.Equal(t, stock.KindDelete, marker.Action)
	assert.Equal(t, noteDeleted, marker.Notes)
	assert.Equal(t, types.MustQuantity("4"), marker.PreviousStock)

	assert.True(t, apperror.IsNotFound(f.svc.Delete(ctx, "BX6")))
}

func TestService_QueriesAndSummaries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, boxInput("BX7", "1"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, boxInput("BX8", "9"))
	require.NoError(t, err)

	_, err = f.svc.Search(ctx, "B")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	found, err := f.svc.Search(ctx, "bx")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	summary, err := f.svc.ProfitSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalProducts)
	assert.Equal(t, "60.00", summary.TotalProfit.StringFixed(2))
	assert.Equal(t, "30.00", summary.AverageProfit.StringFixed(2))

	low, err := f.svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "BX7", low[0].Code)

	info, err := f.svc.SellerInfo(ctx, "sharma", "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", info.Brand)

	_, err = f.svc.SellerInfo(ctx, "", "acme")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	detail, err := f.svc.GetStockDetail(ctx, "BX8")
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("9"), detail.Stock.AvailableQuantity)
	assert.Len(t, detail.History, 1)
}

func TestService_ProfitSummaryEmptyCatalog(t *testing.T) {
	f := newFixture(t)
	summary, err := f.svc.ProfitSummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalProducts)
	assert.True(t, summary.AverageProfit.IsZero())
}
