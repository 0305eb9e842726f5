package stock

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/internal/core/id"
	"billing/internal/core/tx"
	"billing/pkg/logger"
)

var tracer = otel.Tracer("billing/stock")

// Ledger applies stock events to the per-product ledger.
// Every mutation runs in a transaction holding the product's ledger lock, so
// concurrent sales of one product cannot both pass the sufficiency check.
type Ledger struct {
	repo     Repository
	history  HistoryRepository
	tx       tx.Manager
	observer Observer
	now      func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithObserver attaches an outcome observer.
func WithObserver(o Observer) LedgerOption {
	return func(l *Ledger) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger.
func NewLedger(repo Repository, history HistoryRepository, txm tx.Manager, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		repo:     repo,
		history:  history,
		tx:       txm,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply applies a delta and appends a history record.
//
// RESTOCK adds to total and available, creating the row when absent.
// SALE removes from available only and fails with INSUFFICIENT_STOCK when
// available is short, leaving the row untouched. DELETE removes the row.
//
// The history append is best-effort: a failure is logged and the ledger
// mutation stands. The returned entry is the row after the event; for DELETE
// it is the zeroed row.
func (l *Ledger) Apply(ctx context.Context, d Delta) (*Entry, error) {
	if err := d.Validate(); err != nil {
		l.observer.LedgerRejected(d.Kind, apperror.CodeValidation)
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "stock.Apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("stock.product_code", d.ProductCode),
		attribute.String("stock.kind", string(d.Kind)),
		attribute.String("stock.quantity", d.Quantity.String()),
	)

	var result *Entry
	err := l.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := l.repo.GetForUpdate(ctx, d.ProductCode)
		if err != nil {
			return fmt.Errorf("lock ledger row: %w", err)
		}

		var previous Entry
		if current != nil {
			previous = *current
		} else {
			previous = EmptyEntry(d.ProductCode, d.Meta.ProductName)
		}

		next, err := l.mutate(previous, d)
		if err != nil {
			return err
		}

		if d.Kind == KindDelete {
			if err := l.repo.Delete(ctx, d.ProductCode); err != nil {
				return fmt.Errorf("delete ledger row: %w", err)
			}
		} else {
			if err := next.Validate(); err != nil {
				return err
			}
			if err := l.repo.Save(ctx, &next); err != nil {
				return fmt.Errorf("save ledger row: %w", err)
			}
		}

		l.appendHistory(ctx, d, previous, next)
		result = &next
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		code := apperror.CodeInternal
		if appErr, ok := apperror.AsAppError(err); ok {
			code = appErr.Code
		}
		l.observer.LedgerRejected(d.Kind, code)
		return nil, err
	}

	l.observer.LedgerApplied(d.Kind)
	logger.Debug(ctx, "stock ledger updated",
		"product_code", d.ProductCode,
		"kind", d.Kind,
		"quantity", d.Quantity.String(),
		"available", result.AvailableQuantity.String(),
	)
	return result, nil
}

func (l *Ledger) mutate(e Entry, d Delta) (Entry, error) {
	if d.Meta.ProductName != "" {
		e.ProductName = d.Meta.ProductName
	}
	e.UpdatedAt = l.now()

	switch d.Kind {
	case KindRestock:
		total, err := e.TotalQuantity.AddChecked(d.Quantity)
		if err != nil {
			return Entry{}, quantityOverflow(d)
		}
		available, err := e.AvailableQuantity.AddChecked(d.Quantity)
		if err != nil {
			return Entry{}, quantityOverflow(d)
		}
		e.TotalQuantity = total
		e.AvailableQuantity = available
	case KindSale:
		if e.AvailableQuantity < d.Quantity {
			return Entry{}, apperror.NewInsufficientStock(
				d.ProductCode,
				d.Quantity.String(),
				e.AvailableQuantity.String(),
			)
		}
		e.AvailableQuantity -= d.Quantity
	case KindDelete:
		e.TotalQuantity = 0
		e.AvailableQuantity = 0
		e.SellingQuantity = 0
	}
	return e, nil
}

func (l *Ledger) appendHistory(ctx context.Context, d Delta, previous, next Entry) {
	record := &HistoryRecord{
		ID:              id.New(),
		ProductCode:     d.ProductCode,
		ProductName:     next.ProductName,
		Action:          d.Kind,
		PreviousStock:   previous.AvailableQuantity,
		NewStock:        next.AvailableQuantity,
		SupplierName:    d.Meta.SupplierName,
		BatchNumber:     d.Meta.BatchNumber,
		ManufactureDate: d.Meta.ManufactureDate,
		ExpiryDate:      d.Meta.ExpiryDate,
		MRP:             d.Meta.MRP,
		SellerPrice:     d.Meta.SellerPrice,
		UpdatedBy:       appctx.ActorID(ctx),
		Notes:           d.Meta.Note,
		CreatedAt:       next.UpdatedAt,
	}
	if !id.IsNil(d.Meta.ProductID) {
		pid := d.Meta.ProductID
		record.ProductID = &pid
	}

	switch d.Kind {
	case KindRestock:
		record.AddedStock = d.Quantity
	case KindSale:
		record.AddedStock = -d.Quantity
	}

	if err := l.history.Append(ctx, record); err != nil {
		logger.Warn(ctx, "stock history append failed, ledger update kept",
			"product_code", d.ProductCode,
			"kind", d.Kind,
			"error", err,
		)
	}
}

// Get returns the ledger row, or a zero row when the product never had stock.
func (l *Ledger) Get(ctx context.Context, productCode, productName string) (*Entry, error) {
	e, err := l.repo.Get(ctx, productCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			empty := EmptyEntry(productCode, productName)
			return &empty, nil
		}
		return nil, err
	}
	return e, nil
}

// Exists reports whether a ledger row exists for productCode.
func (l *Ledger) Exists(ctx context.Context, productCode string) (bool, error) {
	_, err := l.repo.Get(ctx, productCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// History returns audit records newest first.
func (l *Ledger) History(ctx context.Context, filter HistoryFilter) ([]HistoryRecord, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperror.NewValidation("endDate must not be before startDate")
	}
	return l.history.List(ctx, filter)
}

func quantityOverflow(d Delta) error {
	return apperror.NewFieldValidation("quantity", "resulting stock exceeds the supported range").
		WithDetail("productCode", d.ProductCode).
		WithDetail("quantity", d.Quantity.String())
}
