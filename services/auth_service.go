package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"backend_smartiv/models"
)

// RegisterInput данные регистрации рекламодателя
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=150"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

// LoginInput данные входа
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult выданный токен и краткие данные пользователя
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// TokenClaims содержимое JWT
type TokenClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService регистрация, вход и проверка токенов
type AuthService struct {
	DB        *gorm.DB
	secret    []byte
	issuer    string
	expiresIn time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService создает новый экземпляр AuthService
func NewAuthService(db *gorm.DB, secret, issuer string, expiresIn time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &AuthService{
		DB:        db,
		secret:    []byte(secret),
		issuer:    issuer,
		expiresIn: expiresIn,
		logger:    logger.Named("auth"),
		now:       time.Now,
	}
}

// Register создает пользователя с ролью ADVERTISER
func (as *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(EntityUser, input); err != nil {
		return nil, err
	}

	var count int64
	if err := as.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, translateStoreError(opRead, EntityUser, input.Email, err)
	}
	if count > 0 {
		return nil, &CatalogError{Kind: ErrEmailTaken, Entity: EntityUser, Field: "email", Value: input.Email}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:    input.Email,
		Password: string(hash),
		Name:     input.Name,
		Phone:    input.Phone,
		Role:     models.RoleAdvertiser,
		IsActive: true,
	}
	if err := as.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateStoreError(opCreate, EntityUser, input.Email, err)
	}

	as.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login проверяет пароль и выдает токен
func (as *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(EntityUser, input); err != nil {
		return nil, err
	}

	var user models.User
	if err := as.DB.WithContext(ctx).Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &CatalogError{Kind: ErrInvalidCredentials, Entity: EntityUser}
		}
		return nil, translateStoreError(opRead, EntityUser, nil, err)
	}

	if !user.IsActive {
		return nil, &CatalogError{Kind: ErrInvalidCredentials, Entity: EntityUser}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		as.logger.Warn("login failed", zap.Uint("user_id", user.ID))
		return nil, &CatalogError{Kind: ErrInvalidCredentials, Entity: EntityUser}
	}

	token, expiresAt, err := as.IssueToken(&user)
	if err != nil {
		return nil, err
	}

	as.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: &user}, nil
}

// IssueToken подписывает HS256 токен для пользователя
func (as *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := as.now()
	expiresAt := now.Add(as.expiresIn)
	claims := TokenClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    as.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken проверяет подпись и срок токена и возвращает Actor.
// Пользователь должен существовать и быть активным.
func (as *AuthService) ParseToken(ctx context.Context, tokenString string) (Actor, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return as.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(as.issuer),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		return Actor{}, &CatalogError{Kind: ErrInvalidCredentials, Entity: EntityUser, Err: err}
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return Actor{}, &CatalogError{Kind: ErrInvalidCredentials, Entity: EntityUser, Err: err}
	}

	var user models.User
	if err := as.DB.WithContext(ctx).First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Actor{}, &CatalogError{Kind: ErrInvalidCredentials, Entity: EntityUser}
		}
		return Actor{}, translateStoreError(opRead, EntityUser, nil, err)
	}
	if !user.IsActive {
		return Actor{}, &CatalogError{Kind: ErrInvalidCredentials, Entity: EntityUser}
	}

	// Роль берем из базы: токен мог быть выдан до ее смены
	return Actor{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// GetUser профиль текущего пользователя
func (as *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := as.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(EntityUser, id)
		}
		return nil, translateStoreError(opRead, EntityUser, nil, err)
	}
	return &user, nil
}
