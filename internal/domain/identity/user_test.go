package identity

import (
	"testing"
	"time"

	"github.com/cabinet/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates an active account with a hashed password", func(t *testing.T) {
		u, err := NewUser("Marie.Ekani", "s3cret-pass", RoleStaff)
		require.NoError(t, err)

		assert.Equal(t, "marie.ekani", u.Username)
		assert.Equal(t, UserStatusActive, u.Status)
		assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
		assert.True(t, u.VerifyPassword("s3cret-pass"))
		assert.False(t, u.VerifyPassword("wrong"))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewUser("ab", "s3cret-pass", RoleStaff)
		assertDomainCode(t, err, "INVALID_USERNAME")

		_, err = NewUser("marie", "short", RoleStaff)
		assertDomainCode(t, err, "INVALID_PASSWORD")

		_, err = NewUser("marie", "s3cret-pass", UserRole("admin"))
		assertDomainCode(t, err, "INVALID_ROLE")
	})
}

func TestChangePassword(t *testing.T) {
	u, err := NewUser("marie", "old-password", RoleStaff)
	require.NoError(t, err)

	err = u.ChangePassword("wrong-password", "new-password")
	assertDomainCode(t, err, "INVALID_PASSWORD")
	assert.True(t, u.VerifyPassword("old-password"))

	require.NoError(t, u.ChangePassword("old-password", "new-password"))
	assert.True(t, u.VerifyPassword("new-password"))
	assert.False(t, u.VerifyPassword("old-password"))
}

func TestLoginFailureLockout(t *testing.T) {
	u, err := NewUser("marie", "s3cret-pass", RoleStaff)
	require.NoError(t, err)

	locked := u.RecordLoginFailure(3, time.Hour)
	assert.False(t, locked)
	locked = u.RecordLoginFailure(3, time.Hour)
	assert.False(t, locked)
	assert.True(t, u.CanLogin())

	locked = u.RecordLoginFailure(3, time.Hour)
	assert.True(t, locked)
	assert.True(t, u.IsLocked())
	assert.False(t, u.CanLogin())

	u.RecordLoginSuccess()
	assert.False(t, u.IsLocked())
	assert.True(t, u.CanLogin())
	assert.Zero(t, u.FailedAttempts)
	require.NotNil(t, u.LastLoginAt)
}

func TestExpiredLockReleases(t *testing.T) {
	u, err := NewUser("marie", "s3cret-pass", RoleStaff)
	require.NoError(t, err)

	u.RecordLoginFailure(1, -time.Minute)
	assert.Equal(t, UserStatusLocked, u.Status)
	assert.False(t, u.IsLocked(), "a lock in the past no longer holds")
	assert.True(t, u.CanLogin())
}

func TestDeactivate(t *testing.T) {
	u, err := NewUser("marie", "s3cret-pass", RoleManager)
	require.NoError(t, err)

	u.Deactivate()
	assert.True(t, u.IsDeactivated())
	assert.False(t, u.CanLogin())

	u.Activate()
	assert.False(t, u.IsDeactivated())
	assert.True(t, u.CanLogin())
}

func TestDisplayNameOrUsername(t *testing.T) {
	u, err := NewUser("marie", "s3cret-pass", RoleStaff)
	require.NoError(t, err)

	assert.Equal(t, "marie", u.DisplayNameOrUsername())
	require.NoError(t, u.SetDisplayName("Marie Ekani"))
	assert.Equal(t, "Marie Ekani", u.DisplayNameOrUsername())
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}
