package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"backend_smartiv/models"
	"backend_smartiv/testutils"
)

func setupAuthServiceTest(t *testing.T) (*gorm.DB, *AuthService) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	return db, NewAuthService(db, testutils.TestJWTSecret, "smartiv-test", time.Hour, zap.NewNop())
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	db, as := setupAuthServiceTest(t)
	ctx := context.Background()

	user, err := as.Register(ctx, RegisterInput{Email: " Ads@Example.com ", Password: "secret1", Name: "Ads Co"})
	require.NoError(t, err)
	assert.Equal(t, "ads@example.com", user.Email)
	assert.Equal(t, models.RoleAdvertiser, user.Role)
	assert.NotEqual(t, "secret1", user.Password, "password must be stored hashed")

	_, err = as.Register(ctx, RegisterInput{Email: "ads@example.com", Password: "secret2", Name: "Other"})
	assert.True(t, errors.Is(err, ErrEmailTaken))

	_, err = as.Register(ctx, RegisterInput{Email: "short@example.com", Password: "123", Name: "Short"})
	assert.True(t, errors.Is(err, ErrValidation))

	result, err := as.Login(ctx, LoginInput{Email: "ADS@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, user.ID, result.User.ID)

	actor, err := as.ParseToken(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, models.RoleAdvertiser, actor.Role)
	assert.False(t, actor.CanManageCatalog())

	_, err = as.Login(ctx, LoginInput{Email: "ads@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = as.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_ParseToken(t *testing.T) {
	db, as := setupAuthServiceTest(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("rootpass"), bcrypt.MinCost)
	require.NoError(t, err)
	root := testutils.CreateTestUser(db, "root@smartiv.test", string(hash), models.RoleSuperAdmin)
	require.NotNil(t, root)

	token, _, err := as.IssueToken(root)
	require.NoError(t, err)

	actor, err := as.ParseToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, actor.CanManageCatalog())

	// Роль берется из базы
	require.NoError(t, db.Model(root).Update("role", models.RoleAdvertiser).Error)
	actor, err = as.ParseToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, actor.CanManageCatalog())

	// Чужая подпись
	other := NewAuthService(db, "another-secret-another-secret-0000", "smartiv-test", time.Hour, nil)
	forged, _, err := other.IssueToken(root)
	require.NoError(t, err)
	_, err = as.ParseToken(ctx, forged)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	// Истекший токен
	as.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := as.IssueToken(root)
	require.NoError(t, err)
	as.now = time.Now
	_, err = as.ParseToken(ctx, expired)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	// Алгоритм none не принимается
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "iss": "smartiv-test"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = as.ParseToken(ctx, unsigned)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	// Удаленный пользователь
	require.NoError(t, db.Delete(root).Error)
	_, err = as.ParseToken(ctx, token)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAuthService_GetUser(t *testing.T) {
	db, as := setupAuthServiceTest(t)
	user := testutils.CreateTestUser(db, "me@smartiv.test", "hash", models.RoleAdmin)

	found, err := as.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@smartiv.test", found.Email)

	_, err = as.GetUser(context.Background(), 9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}
