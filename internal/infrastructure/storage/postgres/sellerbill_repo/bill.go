// Package sellerbill_repo provides the PostgreSQL seller bill repository.
package sellerbill_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/domain/sellerbill"
	"billing/internal/infrastructure/storage/postgres"
)

const billsTable = "seller_bills"

var billColumns = postgres.Columns[sellerbill.Bill]()

// BillRepo implements sellerbill.Repository.
type BillRepo struct {
	txm *postgres.TxManager
}

var _ sellerbill.Repository = (*BillRepo)(nil)

func NewBillRepo(txm *postgres.TxManager) *BillRepo {
	return &BillRepo{txm: txm}
}

func (r *BillRepo) Create(ctx context.Context, b *sellerbill.Bill) error {
	sql, args, err := postgres.Builder.
		Insert(billsTable).
		SetMap(postgres.StructToMap(b)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert seller bill: %w", err)
	}
	return nil
}

func (r *BillRepo) Get(ctx context.Context, billID id.ID) (*sellerbill.Bill, error) {
	sql, args, err := postgres.Builder.
		Select(billColumns...).
		From(billsTable).
		Where(squirrel.Eq{"id": billID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b sellerbill.Bill
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bill", billID.String())
		}
		return nil, fmt.Errorf("get seller bill: %w", err)
	}
	return &b, nil
}

func (r *BillRepo) ListBySeller(ctx context.Context, sellerID id.ID, billType sellerbill.Type) ([]sellerbill.Bill, error) {
	q := postgres.Builder.
		Select(billColumns...).
		From(billsTable).
		Where(squirrel.Eq{"seller_id": sellerID}).
		OrderBy("bill_date DESC", "created_at DESC")
	if billType != "" {
		q = q.Where(squirrel.Eq{"bill_type": string(billType)})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	items := make([]sellerbill.Bill, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list seller bills: %w", err)
	}
	return items, nil
}

func (r *BillRepo) TrackDownload(ctx context.Context, billID id.ID, at time.Time) error {
	sql, args, err := postgres.Builder.
		Update(billsTable).
		Set("download_count", squirrel.Expr("download_count + 1")).
		Set("last_downloaded_at", at).
		Where(squirrel.Eq{"id": billID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("track download: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("bill", billID.String())
	}
	return nil
}

func (r *BillRepo) Suppliers(ctx context.Context) ([]sellerbill.SupplierSummary, error) {
	sql, args, err := postgres.Builder.
		Select("seller_id", "supplier_name", "batch_number", "COUNT(*) AS bill_count").
		From(billsTable).
		GroupBy("seller_id", "supplier_name", "batch_number").
		OrderBy("supplier_name", "batch_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}

	items := make([]sellerbill.SupplierSummary, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("summarize seller bills: %w", err)
	}
	return items, nil
}
