package models

import (
	"testing"
	"time"

	"github.com/cabinet/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserModelRoundTrip(t *testing.T) {
	u, err := identity.NewUser("marie", "s3cret-pass", identity.RoleManager)
	require.NoError(t, err)
	require.NoError(t, u.SetDisplayName("Marie Ekani"))

	lastLogin := time.Now().UTC().Truncate(time.Second)
	u.LastLoginAt = &lastLogin
	u.FailedAttempts = 2

	var model UserModel
	model.FromDomain(u)

	restored := model.ToDomain()
	assert.Equal(t, u.ID, restored.ID)
	assert.Equal(t, "marie", restored.Username)
	assert.Equal(t, "Marie Ekani", restored.DisplayName)
	assert.Equal(t, identity.RoleManager, restored.Role)
	assert.Equal(t, identity.UserStatusActive, restored.Status)
	assert.Equal(t, 2, restored.FailedAttempts)
	require.NotNil(t, restored.LastLoginAt)
	assert.True(t, restored.LastLoginAt.Equal(lastLogin))

	assert.True(t, restored.VerifyPassword("s3cret-pass"), "hash survives the round trip")
}
