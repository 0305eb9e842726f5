// Package payment tracks what has been paid against each supplier batch.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing/internal/core/apperror"
	"billing/internal/core/types"
)

// Key identifies a batch: supplier name plus batch number.
type Key struct {
	Supplier string
	Batch    string
}

// NewKey validates and builds a Key.
func NewKey(supplier, batch string) (Key, error) {
	supplier, batch = strings.TrimSpace(supplier), strings.TrimSpace(batch)
	if supplier == "" {
		return Key{}, apperror.NewFieldValidation("supplierName", "supplier name is required")
	}
	if batch == "" {
		return Key{}, apperror.NewFieldValidation("batchNumber", "batch number is required")
	}
	return Key{Supplier: supplier, Batch: batch}, nil
}

// String renders the key as "supplier-batch".
func (k Key) String() string {
	return k.Supplier + "-" + k.Batch
}

// Record is one payment made against a batch.
type Record struct {
	Amount types.Money `json:"amount"`
	Date   time.Time   `json:"date"`
	Notes  string      `json:"notes,omitempty"`
}

// Status is the payment state of a batch.
// PaidAmount + BalanceAmount == TotalAmount whenever a status is stored.
type Status struct {
	SupplierName  string      `json:"supplierName"`
	BatchNumber   string      `json:"batchNumber"`
	TotalAmount   types.Money `json:"totalAmount"`
	PaidAmount    types.Money `json:"paidAmount"`
	BalanceAmount types.Money `json:"balanceAmount"`
	IsPaid        bool        `json:"isPaid"`
	Payments      []Record    `json:"payments"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// unpaidStatus is the view of a batch with no payments recorded.
func unpaidStatus(k Key, total types.Money) *Status {
	return &Status{
		SupplierName:  k.Supplier,
		BatchNumber:   k.Batch,
		TotalAmount:   total,
		PaidAmount:    decimal.Zero,
		BalanceAmount: total,
		Payments:      []Record{},
	}
}

// settle recomputes balance and paid flag from total and paid.
func (s *Status) settle() {
	s.BalanceAmount = s.TotalAmount.Sub(s.PaidAmount)
	s.IsPaid = !s.BalanceAmount.IsPositive()
}

// Consistent reports whether paid + balance equals total.
func (s *Status) Consistent() bool {
	return s.PaidAmount.Add(s.BalanceAmount).Equal(s.TotalAmount)
}

// UpdateFunc receives the stored status (nil when absent) and returns the
// status to store. Returning nil leaves the store untouched.
type UpdateFunc func(current *Status) (*Status, error)

// Store persists statuses keyed by Key.
type Store interface {
	// Get returns nil when nothing is stored for k.
	Get(ctx context.Context, k Key) (*Status, error)

	// Update applies fn atomically with respect to other updates of k.
	Update(ctx context.Context, k Key, fn UpdateFunc) error

	// Delete removes status and history. Deleting a missing key is not an error.
	Delete(ctx context.Context, k Key) error
}

// TotalProvider computes the current amount owed for a batch.
type TotalProvider interface {
	BatchTotal(ctx context.Context, supplier, batch string) (types.Money, error)
}
