// Package company_repo provides the PostgreSQL company repository.
package company_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/domain/company"
	"billing/internal/infrastructure/storage/postgres"
)

const companiesTable = "companies"

var companyColumns = postgres.Columns[company.Company]()

// CompanyRepo implements company.Repository.
type CompanyRepo struct {
	txm *postgres.TxManager
}

var _ company.Repository = (*CompanyRepo)(nil)

func NewCompanyRepo(txm *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{txm: txm}
}

func (r *CompanyRepo) Create(ctx context.Context, c *company.Company) error {
	sql, args, err := postgres.Builder.
		Insert(companiesTable).
		SetMap(postgres.StructToMap(c)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (r *CompanyRepo) List(ctx context.Context) ([]company.Company, error) {
	sql, args, err := postgres.Builder.
		Select(companyColumns...).
		From(companiesTable).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	items := make([]company.Company, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return items, nil
}

func (r *CompanyRepo) Get(ctx context.Context, companyID id.ID) (*company.Company, error) {
	sql, args, err := postgres.Builder.
		Select(companyColumns...).
		From(companiesTable).
		Where(squirrel.Eq{"id": companyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c company.Company
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company", companyID.String())
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
