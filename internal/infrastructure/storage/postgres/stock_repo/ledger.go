// Package stock_repo provides PostgreSQL implementations for the stock ledger
// and its history.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billing/internal/core/apperror"
	"billing/internal/domain/stock"
	"billing/internal/infrastructure/storage/postgres"
)

const ledgerTable = "stock_ledger"

var ledgerColumns = postgres.Columns[stock.Entry]()

// LedgerRepo implements stock.Repository.
type LedgerRepo struct {
	txm *postgres.TxManager
}

var _ stock.Repository = (*LedgerRepo)(nil)

func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{txm: txm}
}

func (r *LedgerRepo) Get(ctx context.Context, productCode string) (*stock.Entry, error) {
	e, err := r.get(ctx, productCode, "")
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperror.NewNotFound("stock", productCode)
	}
	return e, nil
}

// GetForUpdate takes an advisory lock on the code before reading, so callers
// serialize even when the row does not exist yet.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, productCode string) (*stock.Entry, error) {
	if err := r.txm.AdvisoryLock(ctx, ledgerTable+":"+productCode); err != nil {
		return nil, err
	}
	return r.get(ctx, productCode, "FOR UPDATE")
}

// Save upserts the row. The table CHECK constraints mirror Entry.Validate.
func (r *LedgerRepo) Save(ctx context.Context, e *stock.Entry) error {
	sql, args, err := postgres.Builder.
		Insert(ledgerTable).
		SetMap(postgres.StructToMap(e)).
		Suffix(`ON CONFLICT (product_code) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			total_quantity = EXCLUDED.total_quantity,
			available_quantity = EXCLUDED.available_quantity,
			selling_quantity = EXCLUDED.selling_quantity,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsCheckViolation(err) {
			return apperror.NewStateInconsistency("stock ledger constraint violated").
				WithDetail("productCode", e.ProductCode).
				WithCause(err)
		}
		return fmt.Errorf("save stock entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) Delete(ctx context.Context, productCode string) error {
	sql, args, err := postgres.Builder.
		Delete(ledgerTable).
		Where(squirrel.Eq{"product_code": productCode}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete stock entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) get(ctx context.Context, productCode, suffix string) (*stock.Entry, error) {
	q := postgres.Builder.
		Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"product_code": productCode})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e stock.Entry
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock entry: %w", err)
	}
	return &e, nil
}
