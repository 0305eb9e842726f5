// Package product_repo provides PostgreSQL implementations for the product
// catalog and the seller expense source.
package product_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billing/internal/core/apperror"
	"billing/internal/domain/product"
	"billing/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = postgres.Columns[product.Product]()

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm *postgres.TxManager
}

var _ product.Repository = (*ProductRepo)(nil)

func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txm: txm}
}

// Create inserts a product. A taken code yields DUPLICATE_ENTRY.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	sql, args, err := postgres.Builder.
		Insert(productsTable).
		SetMap(postgres.StructToMap(p)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "productCode", p.Code).WithCause(err)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update rewrites every mutable column of the product identified by its code.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	set := postgres.StructToMap(p, postgres.Without(productColumns, "id", "product_code", "created_at")...)

	sql, args, err := postgres.Builder.
		Update(productsTable).
		SetMap(set).
		Where(squirrel.Eq{"product_code": p.Code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.Code)
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, code string) error {
	sql, args, err := postgres.Builder.
		Delete(productsTable).
		Where(squirrel.Eq{"product_code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", code)
	}
	return nil
}

func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return r.getOne(ctx, r.selectBase().Where(squirrel.Eq{"product_code": code}), code)
}

// GetByCodeForUpdate locks the row until the surrounding transaction ends.
func (r *ProductRepo) GetByCodeForUpdate(ctx context.Context, code string) (*product.Product, error) {
	q := r.selectBase().
		Where(squirrel.Eq{"product_code": code}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, code)
}

func (r *ProductRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	sql, args, err := postgres.Builder.
		Select("1").
		Prefix("SELECT EXISTS (").
		From(productsTable).
		Where(squirrel.Eq{"product_code": code}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by code: %w", err)
	}
	return exists, nil
}

func (r *ProductRepo) FindByName(ctx context.Context, name string) (*product.Product, error) {
	q := r.selectBase().
		Where(squirrel.ILike{"product_name": "%" + name + "%"}).
		OrderBy("created_at DESC")
	return r.getOne(ctx, q, name)
}

func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]product.Product, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	items := make([]product.Product, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

func (r *ProductRepo) FindBySupplierBrand(ctx context.Context, supplier, brand string) (*product.Product, error) {
	q := r.selectBase().
		Where(squirrel.ILike{"supplier_name": "%" + supplier + "%"}).
		Where(squirrel.ILike{"brand": "%" + brand + "%"}).
		OrderBy("created_at DESC")
	return r.getOne(ctx, q, supplier+"/"+brand)
}

func (r *ProductRepo) listQuery(filter product.ListFilter) squirrel.SelectBuilder {
	q := r.selectBase().OrderBy("created_at DESC")
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"product_code": pattern},
			squirrel.ILike{"product_name": pattern},
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q
}

func (r *ProductRepo) selectBase() squirrel.SelectBuilder {
	return postgres.Builder.Select(productColumns...).From(productsTable)
}

func (r *ProductRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*product.Product, error) {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}
