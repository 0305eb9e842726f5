// Package auth_repo provides the PostgreSQL credential repository.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/internal/core/id"
	"billing/internal/domain/auth"
	"billing/internal/infrastructure/storage/postgres"
)

const credentialsTable = "credentials"

var credentialColumns = postgres.Columns[auth.Credential]()

// CredentialRepo implements auth.Repository.
type CredentialRepo struct {
	txm *postgres.TxManager
}

var _ auth.Repository = (*CredentialRepo)(nil)

func NewCredentialRepo(txm *postgres.TxManager) *CredentialRepo {
	return &CredentialRepo{txm: txm}
}

func (r *CredentialRepo) GetAdmin(ctx context.Context) (*auth.Credential, error) {
	return r.getOne(ctx, squirrel.Eq{"role": appctx.RoleAdmin}, "admin")
}

func (r *CredentialRepo) GetByUsername(ctx context.Context, username string) (*auth.Credential, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username}, username)
}

func (r *CredentialRepo) Create(ctx context.Context, c *auth.Credential) error {
	sql, args, err := postgres.Builder.
		Insert(credentialsTable).
		SetMap(postgres.StructToMap(c)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("credential", "username", c.Username).WithCause(err)
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepo) Update(ctx context.Context, c *auth.Credential) error {
	sql, args, err := postgres.Builder.
		Update(credentialsTable).
		Set("username", c.Username).
		Set("contact_number", c.ContactNumber).
		Set("password_hash", c.PasswordHash).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("credential", "username", c.Username).WithCause(err)
		}
		return fmt.Errorf("update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("credential", c.ID.String())
	}
	return nil
}

func (r *CredentialRepo) ListByRole(ctx context.Context, role string) ([]auth.Credential, error) {
	sql, args, err := postgres.Builder.
		Select(credentialColumns...).
		From(credentialsTable).
		Where(squirrel.Eq{"role": role}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	items := make([]auth.Credential, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return items, nil
}

func (r *CredentialRepo) DeleteCashier(ctx context.Context, credentialID id.ID) error {
	sql, args, err := postgres.Builder.
		Delete(credentialsTable).
		Where(squirrel.Eq{"id": credentialID, "role": appctx.RoleCashier}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cashier", credentialID.String())
	}
	return nil
}

func (r *CredentialRepo) getOne(ctx context.Context, where squirrel.Sqlizer, key string) (*auth.Credential, error) {
	sql, args, err := postgres.Builder.
		Select(credentialColumns...).
		From(credentialsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c auth.Credential
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("credential", key)
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}
