package auth

import (
	"context"
	"strings"
	"time"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/internal/core/id"
)

// Credential is a login account. There is at most one admin.
type Credential struct {
	ID            id.ID     `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	ContactNumber string    `db:"contact_number" json:"contactNumber"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          string    `db:"role" json:"role"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// CredentialInput is the payload for saving an admin or cashier.
type CredentialInput struct {
	Username      string
	ContactNumber string
	Password      string
}

// Validate checks required fields.
func (in *CredentialInput) Validate(minPassword int) error {
	in.Username = strings.TrimSpace(in.Username)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	if in.Username == "" {
		return apperror.NewFieldValidation("username", "username is required")
	}
	if len(in.Password) < minPassword {
		return apperror.NewFieldValidation("password", "password is too short").
			WithDetail("minLength", minPassword)
	}
	return nil
}

// TokenPair is returned by Login.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Repository persists credentials.
type Repository interface {
	// GetAdmin returns NOT_FOUND when no admin exists.
	GetAdmin(ctx context.Context) (*Credential, error)
	// GetByUsername returns NOT_FOUND when the username is unknown.
	GetByUsername(ctx context.Context, username string) (*Credential, error)
	Create(ctx context.Context, c *Credential) error
	Update(ctx context.Context, c *Credential) error
	ListByRole(ctx context.Context, role string) ([]Credential, error)
	// DeleteCashier returns NOT_FOUND when no cashier has the id.
	DeleteCashier(ctx context.Context, credentialID id.ID) error
}

func isKnownRole(role string) bool {
	return role == appctx.RoleAdmin || role == appctx.RoleCashier
}
