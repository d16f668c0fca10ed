package auth

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/database/repo/accounts"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestTokenRoundTrip(t *testing.T) {
	manager, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, expiry, err := manager.GenerateToken(42, "admin", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	first, err := NewTokenManager("secret-one", time.Hour)
	require.NoError(t, err)
	second, err := NewTokenManager("secret-two", time.Hour)
	require.NoError(t, err)

	token, _, err := first.GenerateToken(1, "user", "user")
	require.NoError(t, err)

	_, err = second.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	manager, err := NewTokenManager("test-secret", -time.Hour)
	require.NoError(t, err)
	// 负的有效期被换成默认值，手工构造过期令牌
	manager.expiresIn = -time.Hour

	token, _, err := manager.GenerateToken(1, "user", "user")
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = manager.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEmptySecretGeneratesRandom(t *testing.T) {
	manager, err := NewTokenManager("", time.Hour)
	require.NoError(t, err)

	token, _, err := manager.GenerateToken(1, "user", "user")
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.NoError(t, err)
}

func setupAccounts(t *testing.T) *accounts.Repository {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return accounts.NewRepository(db)
}

func TestLoginSuccess(t *testing.T) {
	repo := setupAccounts(t)
	_, err := repo.EnsureAdminUser("admin", "correct horse battery staple")
	require.NoError(t, err)

	manager, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	svc := NewLoginService(repo, manager)

	result, err := svc.Login("admin", "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, "admin", result.Username)
	assert.NotEmpty(t, result.Token)

	claims, err := manager.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := setupAccounts(t)
	_, err := repo.EnsureAdminUser("admin", "right-password")
	require.NoError(t, err)

	manager, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	svc := NewLoginService(repo, manager)

	_, err = svc.Login("admin", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := setupAccounts(t)

	manager, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	svc := NewLoginService(repo, manager)

	_, err = svc.Login("nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
