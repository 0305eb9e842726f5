package stock

import "context"

// Repository persists ledger rows.
type Repository interface {
	// Get returns the ledger row, or a NOT_FOUND AppError when none exists.
	Get(ctx context.Context, productCode string) (*Entry, error)

	// GetForUpdate serializes concurrent mutations of one product code for the
	// rest of the current transaction and returns the row, or nil when absent.
	GetForUpdate(ctx context.Context, productCode string) (*Entry, error)

	// Save inserts or replaces the row.
	Save(ctx context.Context, entry *Entry) error

	// Delete removes the row. Deleting a missing row is not an error.
	Delete(ctx context.Context, productCode string) error
}

// HistoryRepository persists audit records. Records are never updated.
type HistoryRepository interface {
	Append(ctx context.Context, record *HistoryRecord) error

	// List returns records newest first.
	List(ctx context.Context, filter HistoryFilter) ([]HistoryRecord, error)
}

// Observer receives ledger outcomes.
type Observer interface {
	LedgerApplied(kind Kind)
	LedgerRejected(kind Kind, code string)
}

type nopObserver struct{}

func (nopObserver) LedgerApplied(Kind)          {}
func (nopObserver) LedgerRejected(Kind, string) {}
