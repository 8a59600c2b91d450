package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cabinet/backend/internal/domain/identity"
	"github.com/cabinet/backend/internal/domain/shared"
	"github.com/cabinet/backend/internal/infrastructure/auth"
	"github.com/cabinet/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*identity.User)}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *identity.User) error {
	return r.Save(ctx, u)
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

var _ identity.UserRepository = (*fakeUserRepo)(nil)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *identity.User) {
	t.Helper()
	repo := newFakeUserRepo()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "cabinet-backend-test",
		MaxRefreshCount:        10,
	})
	cfg := AuthServiceConfig{MaxLoginAttempts: 3, LockDuration: 15 * time.Minute}
	svc := NewAuthService(repo, jwtService, cfg, zap.NewNop())

	user, err := identity.NewUser("marie", "s3cret-pass", identity.RoleStaff)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), user))
	return svc, repo, user
}

func assertAuthCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("returns tokens and the user profile", func(t *testing.T) {
		svc, repo, user := newAuthFixture(t)

		result, err := svc.Login(ctx, LoginInput{Username: "marie", Password: "s3cret-pass"})
		require.NoError(t, err)

		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Equal(t, "marie", result.User.Username)

		stored, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt, "successful login is stamped")
	})

	t.Run("unknown user and wrong password share one error code", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)

		_, err := svc.Login(ctx, LoginInput{Username: "nobody", Password: "whatever"})
		assertAuthCode(t, err, "INVALID_CREDENTIALS")

		_, err = svc.Login(ctx, LoginInput{Username: "marie", Password: "wrong"})
		assertAuthCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("locks the account after repeated failures", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)

		for i := 0; i < 2; i++ {
			_, err := svc.Login(ctx, LoginInput{Username: "marie", Password: "wrong"})
			assertAuthCode(t, err, "INVALID_CREDENTIALS")
		}

		_, err := svc.Login(ctx, LoginInput{Username: "marie", Password: "wrong"})
		assertAuthCode(t, err, "ACCOUNT_LOCKED")

		// The right password does not help while the lock holds.
		_, err = svc.Login(ctx, LoginInput{Username: "marie", Password: "s3cret-pass"})
		assertAuthCode(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("rejects a deactivated account", func(t *testing.T) {
		svc, repo, user := newAuthFixture(t)
		user.Deactivate()
		require.NoError(t, repo.Update(ctx, user))

		_, err := svc.Login(ctx, LoginInput{Username: "marie", Password: "s3cret-pass"})
		assertAuthCode(t, err, "ACCOUNT_DEACTIVATED")
	})
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a fresh pair for an active user", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)
		login, err := svc.Login(ctx, LoginInput{Username: "marie", Password: "s3cret-pass"})
		require.NoError(t, err)

		refreshed, err := svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)

		_, err := svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: "not.a.token"})
		assertAuthCode(t, err, "TOKEN_INVALID")
	})

	t.Run("rejects a refresh for a deactivated user", func(t *testing.T) {
		svc, repo, user := newAuthFixture(t)
		login, err := svc.Login(ctx, LoginInput{Username: "marie", Password: "s3cret-pass"})
		require.NoError(t, err)

		stored, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		stored.Deactivate()
		require.NoError(t, repo.Update(ctx, stored))

		_, err = svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
		assertAuthCode(t, err, "ACCOUNT_INACTIVE")
	})

	t.Run("rejects a refresh for a deleted user", func(t *testing.T) {
		svc, repo, user := newAuthFixture(t)
		login, err := svc.Login(ctx, LoginInput{Username: "marie", Password: "s3cret-pass"})
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, user.ID))

		_, err = svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
		assertAuthCode(t, err, "USER_NOT_FOUND")
	})
}

func TestChangePasswordService(t *testing.T) {
	ctx := context.Background()
	svc, repo, user := newAuthFixture(t)

	err := svc.ChangePassword(ctx, ChangePasswordInput{
		UserID:      user.ID,
		OldPassword: "wrong",
		NewPassword: "brand-new-pass",
	})
	assertAuthCode(t, err, "INVALID_PASSWORD")

	require.NoError(t, svc.ChangePassword(ctx, ChangePasswordInput{
		UserID:      user.ID,
		OldPassword: "s3cret-pass",
		NewPassword: "brand-new-pass",
	}))

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.VerifyPassword("brand-new-pass"))
}

func TestGetCurrentUser(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newAuthFixture(t)

	info, err := svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.ID)
	assert.Equal(t, "marie", info.Username)

	_, err = svc.GetCurrentUser(ctx, uuid.New())
	assertAuthCode(t, err, "USER_NOT_FOUND")
}
