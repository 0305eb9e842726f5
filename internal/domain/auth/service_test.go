package auth

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/internal/core/id"
	"billing/internal/core/tx"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[id.ID]Credential
}

func newMemRepo() *memRepo { return &memRepo{rows: map[id.ID]Credential{}} }

func (r *memRepo) GetAdmin(context.Context) (*Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.Role == appctx.RoleAdmin {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("admin", "")
}

func (r *memRepo) GetByUsername(_ context.Context, username string) (*Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.Username == username {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("credential", username)
}

func (r *memRepo) Create(_ context.Context, c *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = *c
	return nil
}

func (r *memRepo) Update(ctx context.Context, c *Credential) error {
	return r.Create(ctx, c)
}

func (r *memRepo) ListByRole(_ context.Context, role string) ([]Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Credential
	for _, c := range r.rows {
		if c.Role == role {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *memRepo) DeleteCashier(_ context.Context, cid id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[cid]
	if !ok || c.Role != appctx.RoleCashier {
		return apperror.NewNotFound("cashier", cid)
	}
	delete(r.rows, cid)
	return nil
}

func newTestService(t *testing.T) (*Service, *memRepo, *JWTService) {
	t.Helper()
	repo := newMemRepo()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	cfg := DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	return NewService(repo, tx.Passthrough, jwtSvc, cfg), repo, jwtSvc
}

func TestService_SaveAdminUpserts(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	admin, created, err := svc.SaveAdmin(ctx, CredentialInput{Username: "owner", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "secret1", admin.PasswordHash)

	again, created, err := svc.SaveAdmin(ctx, CredentialInput{Username: "boss", ContactNumber: "555", Password: "secret2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
	assert.Len(t, repo.rows, 1)

	got, err := svc.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "boss", got.Username)
	assert.Equal(t, "555", got.ContactNumber)
}

func TestService_CashiersAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, jwtSvc := newTestService(t)

	c, err := svc.CreateCashier(ctx, CredentialInput{Username: "till1", Password: "pass123"})
	require.NoError(t, err)

	_, err = svc.CreateCashier(ctx, CredentialInput{Username: "till1", Password: "pass123"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	_, err = svc.CreateCashier(ctx, CredentialInput{Username: "till2", Password: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	tokens, who, err := svc.Login(ctx, "till1", "pass123")
	require.NoError(t, err)
	assert.Equal(t, c.ID, who.ID)
	assert.Equal(t, "Bearer", tokens.TokenType)

	user, err := jwtSvc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, c.ID.String(), user.UserID)
	assert.Equal(t, []string{appctx.RoleCashier}, user.Roles)
	assert.False(t, user.IsAdmin())

	_, _, err = svc.Login(ctx, "till1", "wrong")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	_, _, err = svc.Login(ctx, "ghost", "pass123")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	cashiers, err := svc.ListCashiers(ctx)
	require.NoError(t, err)
	assert.Len(t, cashiers, 1)

	require.NoError(t, svc.DeleteCashier(ctx, c.ID))
	assert.True(t, apperror.IsNotFound(svc.DeleteCashier(ctx, c.ID)))
}

func TestService_AdminUsernameCannotShadowCashier(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.CreateCashier(ctx, CredentialInput{Username: "shared", Password: "pass123"})
	require.NoError(t, err)

	_, _, err = svc.SaveAdmin(ctx, CredentialInput{Username: "shared", Password: "pass123"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestService_EnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin", "admin123"))
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "other", "other123"))
	assert.Len(t, repo.rows, 1)

	_, _, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
}

func TestJWTService_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("k1"))
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, _, err := svc.GenerateAccessToken("u1", "owner", []string{appctx.RoleAdmin})
	require.NoError(t, err)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	svc.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	other := NewJWTService(DefaultJWTConfig("k2"))
	other.now = func() time.Time { return issued }
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
