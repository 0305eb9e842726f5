package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billing/internal/domain/stock"
	"billing/internal/infrastructure/storage/postgres"
)

const (
	historyTable        = "stock_history"
	defaultHistoryLimit = 500
)

var historyColumns = postgres.Columns[stock.HistoryRecord]()

// HistoryRepo implements stock.HistoryRepository.
type HistoryRepo struct {
	txm *postgres.TxManager
}

var _ stock.HistoryRepository = (*HistoryRepo)(nil)

func NewHistoryRepo(txm *postgres.TxManager) *HistoryRepo {
	return &HistoryRepo{txm: txm}
}

// Append inserts the record inside a savepoint, so a failed insert does not
// abort the ledger transaction it runs in.
func (r *HistoryRepo) Append(ctx context.Context, rec *stock.HistoryRecord) error {
	sql, args, err := postgres.Builder.
		Insert(historyTable).
		SetMap(postgres.StructToMap(rec)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	return r.txm.RunInSavepoint(ctx, func(ctx context.Context) error {
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert stock history: %w", err)
		}
		return nil
	})
}

func (r *HistoryRepo) List(ctx context.Context, f stock.HistoryFilter) ([]stock.HistoryRecord, error) {
	q := postgres.Builder.
		Select(historyColumns...).
		From(historyTable).
		OrderBy("created_at DESC", "id DESC")

	if f.ProductCode != "" {
		q = q.Where(squirrel.Eq{"product_code": f.ProductCode})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.To})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	q = q.Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	records := make([]stock.HistoryRecord, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock history: %w", err)
	}
	return records, nil
}
