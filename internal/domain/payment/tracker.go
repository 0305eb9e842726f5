package payment

import (
	"context"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/types"
	"billing/pkg/logger"
)

// Observer receives payment outcomes.
type Observer interface {
	PaymentRecorded(amount float64)
	PaymentRejected(code string)
	TotalResynced()
}

type nopObserver struct{}

func (nopObserver) PaymentRecorded(float64) {}
func (nopObserver) PaymentRejected(string)  {}
func (nopObserver) TotalResynced()          {}

// Tracker maintains payment status per batch against freshly computed totals.
type Tracker struct {
	store    Store
	totals   TotalProvider
	observer Observer
	now      func() time.Time
}

// NewTracker creates a tracker. observer may be nil.
func NewTracker(store Store, totals TotalProvider, observer Observer) *Tracker {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Tracker{
		store:    store,
		totals:   totals,
		observer: observer,
		now:      time.Now,
	}
}

// RecordPayment reconciles the batch against its current total, then adds a
// payment. It fails when amount is not positive or exceeds the balance; the
// stored state is unchanged on failure.
func (t *Tracker) RecordPayment(ctx context.Context, k Key, amount types.Money, notes string) (*Status, error) {
	if !amount.IsPositive() {
		t.observer.PaymentRejected(apperror.CodeValidation)
		return nil, apperror.NewFieldValidation("amount", "payment amount must be greater than 0")
	}

	total, err := t.totals.BatchTotal(ctx, k.Supplier, k.Batch)
	if err != nil {
		return nil, err
	}

	var out *Status
	err = t.store.Update(ctx, k, func(current *Status) (*Status, error) {
		next := unpaidStatus(k, total)
		if current != nil {
			next = cloneStatus(current)
			t.resync(ctx, k, next, total)
		}

		if amount.GreaterThan(next.BalanceAmount) {
			return nil, apperror.NewBusinessRule(apperror.CodePaymentExceeds, "Payment amount exceeds balance").
				WithDetail("amount", amount.String()).
				WithDetail("balance", next.BalanceAmount.String())
		}

		now := t.now()
		next.PaidAmount = next.PaidAmount.Add(amount)
		next.settle()
		next.Payments = append(next.Payments, Record{Amount: amount, Date: now, Notes: notes})
		next.UpdatedAt = now
		out = next
		return next, nil
	})
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			t.observer.PaymentRejected(appErr.Code)
		}
		return nil, err
	}

	t.observer.PaymentRecorded(amount.InexactFloat64())
	logger.Info(ctx, "payment recorded",
		"batch_key", k.String(),
		"amount", amount.String(),
		"balance", out.BalanceAmount.String(),
	)
	return out, nil
}

// MarkUnpaid discards all payment state and history of the batch.
func (t *Tracker) MarkUnpaid(ctx context.Context, k Key) error {
	if err := t.store.Delete(ctx, k); err != nil {
		return err
	}
	logger.Info(ctx, "payment status cleared", "batch_key", k.String())
	return nil
}

// Reconcile aligns the stored total with freshTotal and returns the resulting
// status. Paid amount is never adjusted. With nothing stored, the unpaid view
// is returned and nothing is written.
func (t *Tracker) Reconcile(ctx context.Context, k Key, freshTotal types.Money) (*Status, error) {
	var out *Status
	err := t.store.Update(ctx, k, func(current *Status) (*Status, error) {
		if current == nil {
			out = unpaidStatus(k, freshTotal)
			return nil, nil
		}
		next := cloneStatus(current)
		if !t.resync(ctx, k, next, freshTotal) {
			out = next
			return nil, nil
		}
		next.UpdatedAt = t.now()
		out = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns the reconciled status of a batch.
func (t *Tracker) Status(ctx context.Context, k Key) (*Status, error) {
	total, err := t.totals.BatchTotal(ctx, k.Supplier, k.Batch)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, err
		}
		stored, getErr := t.store.Get(ctx, k)
		if getErr != nil {
			return nil, getErr
		}
		if stored == nil {
			return nil, err
		}
		return stored, nil
	}
	return t.Reconcile(ctx, k, total)
}

// resync applies the reconciliation rule to s and reports whether s changed.
func (t *Tracker) resync(ctx context.Context, k Key, s *Status, freshTotal types.Money) bool {
	if s.TotalAmount.Equal(freshTotal) {
		return false
	}

	drift := apperror.NewStateInconsistency("stored batch total differs from computed total").
		WithDetail("batchKey", k.String()).
		WithDetail("storedTotal", s.TotalAmount.String()).
		WithDetail("freshTotal", freshTotal.String())
	logger.Warn(ctx, "payment total resynchronized", "error", drift)
	t.observer.TotalResynced()

	s.TotalAmount = freshTotal
	s.settle()
	return true
}

func cloneStatus(s *Status) *Status {
	c := *s
	c.Payments = append([]Record(nil), s.Payments...)
	if c.Payments == nil {
		c.Payments = []Record{}
	}
	return &c
}
