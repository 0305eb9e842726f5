package product

import "context"

// Repository persists products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, code string) error

	// GetByCode returns NOT_FOUND when the code is unknown.
	GetByCode(ctx context.Context, code string) (*Product, error)

	// GetByCodeForUpdate locks the product row for the current transaction.
	GetByCodeForUpdate(ctx context.Context, code string) (*Product, error)

	ExistsByCode(ctx context.Context, code string) (bool, error)

	// FindByName returns the first product whose name contains name, ignoring case.
	FindByName(ctx context.Context, name string) (*Product, error)

	// List returns products newest first.
	List(ctx context.Context, filter ListFilter) ([]Product, error)

	// FindBySupplierBrand matches both fields case-insensitively by substring.
	FindBySupplierBrand(ctx context.Context, supplier, brand string) (*Product, error)
}

// ListFilter narrows List. Query matches code or name case-insensitively.
type ListFilter struct {
	Query string
	Limit int
}
