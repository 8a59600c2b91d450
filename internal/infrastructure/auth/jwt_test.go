package auth

import (
	"testing"
	"time"

	"github.com/cabinet/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-access-secret-0123456789abcdef",
		RefreshSecret:          "test-refresh-secret-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "cabinet-backend-test",
		MaxRefreshCount:        2,
	}
}

func testTokenInput() GenerateTokenInput {
	return GenerateTokenInput{
		UserID:   uuid.New(),
		Username: "marie",
		Role:     "staff",
	}
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	input := testTokenInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, "marie", claims.Username)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
	assert.Zero(t, refreshClaims.RefreshCount)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	pair, err := svc.GenerateTokenPair(testTokenInput())
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService(testJWTConfig())

	_, err := svc.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	other := testJWTConfig()
	other.Secret = "another-access-secret-0123456789abcdef"
	foreign := NewJWTService(other)

	pair, err := foreign.GenerateTokenPair(testTokenInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenExpiration = -time.Minute
	svc := NewJWTService(cfg)

	pair, err := svc.GenerateTokenPair(testTokenInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshTokenPair(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	pair, err := svc.GenerateTokenPair(testTokenInput())
	require.NoError(t, err)

	t.Run("issues a new pair with an incremented refresh count", func(t *testing.T) {
		refreshed, err := svc.RefreshTokenPair(pair.RefreshToken, "marie", "staff")
		require.NoError(t, err)

		claims, err := svc.ValidateRefreshToken(refreshed.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, 1, claims.RefreshCount)

		accessClaims, err := svc.ValidateAccessToken(refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "marie", accessClaims.Username)
	})

	t.Run("stops at the refresh ceiling", func(t *testing.T) {
		first, err := svc.RefreshTokenPair(pair.RefreshToken, "marie", "staff")
		require.NoError(t, err)
		second, err := svc.RefreshTokenPair(first.RefreshToken, "marie", "staff")
		require.NoError(t, err)

		_, err = svc.RefreshTokenPair(second.RefreshToken, "marie", "staff")
		assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
	})

	t.Run("rejects an access token as refresh input", func(t *testing.T) {
		_, err := svc.RefreshTokenPair(pair.AccessToken, "marie", "staff")
		assert.Error(t, err)
	})
}

func TestRefreshSecretFallsBackToAccessSecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = ""
	svc := NewJWTService(cfg)

	pair, err := svc.GenerateTokenPair(testTokenInput())
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestClaimsGetUserUUID(t *testing.T) {
	id := uuid.New()
	claims := &Claims{UserID: id.String()}

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	claims.UserID = "not-a-uuid"
	_, err = claims.GetUserUUID()
	assert.Error(t, err)
}
