package product_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billing/internal/domain/expense"
	"billing/internal/infrastructure/storage/postgres"
)

var expenseColumns = postgres.Columns[expense.Line]()

// ExpenseSource implements expense.Source over the products table.
type ExpenseSource struct {
	txm *postgres.TxManager
}

var _ expense.Source = (*ExpenseSource)(nil)

func NewExpenseSource(txm *postgres.TxManager) *ExpenseSource {
	return &ExpenseSource{txm: txm}
}

// Lines returns products with a supplier and batch, filtered by creation date and supplier.
func (s *ExpenseSource) Lines(ctx context.Context, f expense.Filter) ([]expense.Line, error) {
	q := s.selectBase()
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	if f.SupplierName != "" {
		q = q.Where(squirrel.ILike{"supplier_name": "%" + f.SupplierName + "%"})
	}
	return s.scan(ctx, q)
}

// BatchLines returns the products of exactly one (supplier, batch) pair.
func (s *ExpenseSource) BatchLines(ctx context.Context, supplier, batch string) ([]expense.Line, error) {
	q := s.selectBase().
		Where(squirrel.Eq{"supplier_name": supplier, "batch_number": batch})
	return s.scan(ctx, q)
}

func (s *ExpenseSource) selectBase() squirrel.SelectBuilder {
	return postgres.Builder.
		Select(expenseColumns...).
		From(productsTable).
		Where(squirrel.NotEq{"supplier_name": ""}).
		Where(squirrel.NotEq{"batch_number": ""}).
		OrderBy("supplier_name", "batch_number", "created_at")
}

func (s *ExpenseSource) scan(ctx context.Context, q squirrel.SelectBuilder) ([]expense.Line, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expense query: %w", err)
	}

	var lines []expense.Line
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select expense lines: %w", err)
	}
	return lines, nil
}
