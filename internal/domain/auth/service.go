package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/internal/core/id"
	"billing/internal/core/tx"
	"billing/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	PasswordMinLength int
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		PasswordMinLength: 6,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Service manages credentials and login.
type Service struct {
	repo       Repository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(repo Repository, txManager tx.Manager, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		repo:       repo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
		now:        time.Now,
	}
}

// SaveAdmin creates the single admin or replaces its fields.
// created reports whether a new admin was inserted.
func (s *Service) SaveAdmin(ctx context.Context, in CredentialInput) (admin *Credential, created bool, err error) {
	if err := in.Validate(s.config.PasswordMinLength); err != nil {
		return nil, false, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, false, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUsernameFree(ctx, in.Username, appctx.RoleAdmin); err != nil {
			return err
		}

		existing, err := s.repo.GetAdmin(ctx)
		if err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("get admin: %w", err)
		}

		now := s.now()
		if existing != nil {
			existing.Username = in.Username
			existing.ContactNumber = in.ContactNumber
			existing.PasswordHash = hash
			existing.UpdatedAt = now
			admin = existing
			return s.repo.Update(ctx, existing)
		}

		admin = &Credential{
			ID:            id.New(),
			Username:      in.Username,
			ContactNumber: in.ContactNumber,
			PasswordHash:  hash,
			Role:          appctx.RoleAdmin,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		created = true
		return s.repo.Create(ctx, admin)
	})
	if err != nil {
		return nil, false, err
	}

	logger.Info(ctx, "admin credential saved", "username", admin.Username, "created", created)
	return admin, created, nil
}

// GetAdmin returns the admin credential.
func (s *Service) GetAdmin(ctx context.Context) (*Credential, error) {
	return s.repo.GetAdmin(ctx)
}

// CreateCashier adds a cashier account.
func (s *Service) CreateCashier(ctx context.Context, in CredentialInput) (*Credential, error) {
	if err := in.Validate(s.config.PasswordMinLength); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &Credential{
		ID:            id.New(),
		Username:      in.Username,
		ContactNumber: in.ContactNumber,
		PasswordHash:  hash,
		Role:          appctx.RoleCashier,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUsernameFree(ctx, in.Username, ""); err != nil {
			return err
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "cashier created", "username", c.Username)
	return c, nil
}

// ListCashiers returns all cashier accounts.
func (s *Service) ListCashiers(ctx context.Context) ([]Credential, error) {
	return s.repo.ListByRole(ctx, appctx.RoleCashier)
}

// DeleteCashier removes a cashier account.
func (s *Service) DeleteCashier(ctx context.Context, credentialID id.ID) error {
	if err := s.repo.DeleteCashier(ctx, credentialID); err != nil {
		return err
	}
	logger.Info(ctx, "cashier deleted", "credential_id", credentialID)
	return nil
}

// Login verifies a username and password and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, *Credential, error) {
	c, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !isKnownRole(c.Role) {
		return nil, nil, apperror.NewForbidden("account has no usable role")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		logger.Info(ctx, "login rejected", "username", username)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(c.ID.String(), c.Username, []string{c.Role})
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	logger.Info(ctx, "user logged in", "user_id", c.ID, "role", c.Role)
	return &TokenPair{AccessToken: token, ExpiresAt: expiresAt, TokenType: "Bearer"}, c, nil
}

// EnsureDefaultAdmin creates an admin with the given credentials when none exists.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	_, err := s.repo.GetAdmin(ctx)
	if err == nil {
		return nil
	}
	if !apperror.IsNotFound(err) {
		return fmt.Errorf("get admin: %w", err)
	}

	if _, _, err := s.SaveAdmin(ctx, CredentialInput{Username: username, Password: password}); err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}
	logger.Warn(ctx, "default admin created, change its password", "username", username)
	return nil
}

// ensureUsernameFree fails when username belongs to an account other than
// the one of role allowSameRole.
func (s *Service) ensureUsernameFree(ctx context.Context, username, allowSameRole string) error {
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("check username: %w", err)
	}
	if allowSameRole != "" && existing.Role == allowSameRole {
		return nil
	}
	return apperror.NewDuplicate("credential", "username", username)
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
