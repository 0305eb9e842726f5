package v1_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/internal/core/id"
	"billing/internal/domain/auth"
	"billing/internal/domain/company"
	"billing/internal/domain/expense"
	"billing/internal/domain/product"
	"billing/internal/domain/sellerbill"
	"billing/internal/domain/stock"
)

type productStore struct {
	mu   sync.Mutex
	rows map[string]product.Product
}

func newProductStore() *productStore {
	return &productStore{rows: map[string]product.Product{}}
}

func (s *productStore) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.Code] = *p
	return nil
}

func (s *productStore) Update(ctx context.Context, p *product.Product) error {
	return s.Create(ctx, p)
}

func (s *productStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, code)
	return nil
}

func (s *productStore) GetByCode(_ context.Context, code string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[code]
	if !ok {
		return nil, apperror.NewNotFound("product", code)
	}
	return &p, nil
}

func (s *productStore) GetByCodeForUpdate(ctx context.Context, code string) (*product.Product, error) {
	return s.GetByCode(ctx, code)
}

func (s *productStore) ExistsByCode(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[code]
	return ok, nil
}

func (s *productStore) FindByName(ctx context.Context, name string) (*product.Product, error) {
	for _, p := range s.all() {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", name)
}

func (s *productStore) List(_ context.Context, f product.ListFilter) ([]product.Product, error) {
	var out []product.Product
	q := strings.ToLower(f.Query)
	for _, p := range s.all() {
		if q != "" && !strings.Contains(strings.ToLower(p.Code), q) && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *productStore) FindBySupplierBrand(_ context.Context, supplier, brand string) (*product.Product, error) {
	for _, p := range s.all() {
		if strings.EqualFold(p.SupplierName, supplier) && strings.EqualFold(p.Brand, brand) {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", supplier)
}

// backdate moves the creation time of a stored product.
func (s *productStore) backdate(code string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.rows[code]
	p.CreatedAt = at
	s.rows[code] = p
}

func (s *productStore) all() []product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]product.Product, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Lines and BatchLines make productStore an expense.Source.
func (s *productStore) Lines(_ context.Context, f expense.Filter) ([]expense.Line, error) {
	var out []expense.Line
	for _, p := range s.all() {
		if p.SupplierName == "" || p.BatchNumber == "" {
			continue
		}
		if f.SupplierName != "" && !strings.Contains(strings.ToLower(p.SupplierName), strings.ToLower(f.SupplierName)) {
			continue
		}
		if f.From != nil && p.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && p.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, toLine(p))
	}
	return out, nil
}

func (s *productStore) BatchLines(_ context.Context, supplier, batch string) ([]expense.Line, error) {
	var out []expense.Line
	for _, p := range s.all() {
		if p.SupplierName == supplier && p.BatchNumber == batch {
			out = append(out, toLine(p))
		}
	}
	return out, nil
}

func toLine(p product.Product) expense.Line {
	return expense.Line{
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductCode:  p.Code,
		BaseUnit:     string(p.BaseUnit),
		AddedStock:   p.StockQuantity,
		SellerPrice:  p.SellerPrice,
		MRP:          p.MRP,
		CreatedAt:    p.CreatedAt,
		SupplierName: p.SupplierName,
		BatchNumber:  p.BatchNumber,
	}
}

type ledgerStore struct {
	mu      sync.Mutex
	rows    map[string]stock.Entry
	history []stock.HistoryRecord
}

func newLedgerStore() *ledgerStore {
	return &ledgerStore{rows: map[string]stock.Entry{}}
}

func (s *ledgerStore) Get(_ context.Context, code string) (*stock.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[code]
	if !ok {
		return nil, apperror.NewNotFound("stock", code)
	}
	return &e, nil
}

func (s *ledgerStore) GetForUpdate(_ context.Context, code string) (*stock.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[code]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *ledgerStore) Save(_ context.Context, e *stock.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[e.ProductCode] = *e
	return nil
}

func (s *ledgerStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, code)
	return nil
}

// historyStore shares the ledger's lock so tests can read both consistently.
type historyStore struct{ *ledgerStore }

func (h historyStore) Append(_ context.Context, rec *stock.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, *rec)
	return nil
}

func (h historyStore) List(_ context.Context, f stock.HistoryFilter) ([]stock.HistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []stock.HistoryRecord
	for i := len(h.history) - 1; i >= 0; i-- {
		if f.ProductCode == "" || h.history[i].ProductCode == f.ProductCode {
			out = append(out, h.history[i])
		}
	}
	return out, nil
}

type credentialStore struct {
	mu   sync.Mutex
	rows map[id.ID]auth.Credential
}

func newCredentialStore() *credentialStore {
	return &credentialStore{rows: map[id.ID]auth.Credential{}}
}

func (s *credentialStore) GetAdmin(context.Context) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.rows {
		if c.Role == appctx.RoleAdmin {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("admin", "")
}

func (s *credentialStore) GetByUsername(_ context.Context, username string) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.rows {
		if c.Username == username {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("credential", username)
}

func (s *credentialStore) Create(_ context.Context, c *auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[c.ID] = *c
	return nil
}

func (s *credentialStore) Update(ctx context.Context, c *auth.Credential) error {
	return s.Create(ctx, c)
}

func (s *credentialStore) ListByRole(_ context.Context, role string) ([]auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.Credential
	for _, c := range s.rows {
		if c.Role == role {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *credentialStore) DeleteCashier(_ context.Context, cid id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[cid]
	if !ok || c.Role != appctx.RoleCashier {
		return apperror.NewNotFound("cashier", cid)
	}
	delete(s.rows, cid)
	return nil
}

type companyStore struct {
	mu   sync.Mutex
	rows []company.Company
}

func (s *companyStore) Create(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *c)
	return nil
}

func (s *companyStore) List(context.Context) ([]company.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]company.Company, len(s.rows))
	for i := range s.rows {
		out[len(s.rows)-1-i] = s.rows[i]
	}
	return out, nil
}

func (s *companyStore) Get(_ context.Context, companyID id.ID) (*company.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.rows {
		if c.ID == companyID {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("company", companyID)
}

type billStore struct {
	mu   sync.Mutex
	rows map[id.ID]sellerbill.Bill
}

func newBillStore() *billStore {
	return &billStore{rows: map[id.ID]sellerbill.Bill{}}
}

func (s *billStore) Create(_ context.Context, b *sellerbill.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.ID] = *b
	return nil
}

func (s *billStore) Get(_ context.Context, billID id.ID) (*sellerbill.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[billID]
	if !ok {
		return nil, apperror.NewNotFound("bill", billID)
	}
	return &b, nil
}

func (s *billStore) ListBySeller(_ context.Context, sellerID id.ID, t sellerbill.Type) ([]sellerbill.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sellerbill.Bill
	for _, b := range s.rows {
		if b.SellerID == sellerID && (t == "" || b.BillType == t) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillDate.After(out[j].BillDate) })
	return out, nil
}

func (s *billStore) TrackDownload(_ context.Context, billID id.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[billID]
	if !ok {
		return apperror.NewNotFound("bill", billID)
	}
	b.DownloadCount++
	b.LastDownloadedAt = &at
	s.rows[billID] = b
	return nil
}

func (s *billStore) Suppliers(context.Context) ([]sellerbill.SupplierSummary, error) {
	return nil, nil
}
