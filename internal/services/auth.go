package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appconfig "event-registration-platform/internal/config"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/utils"
)

// ErrInvalidCredentials is returned on a failed login. Deliberately the same
// for unknown email and wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService handles registration, login and token issuance
type AuthService struct {
	userRepo UserRepository
	jwtCfg   appconfig.JWTConfig
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, jwtCfg appconfig.JWTConfig) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
	}
}

// Claims are the JWT claims carried by API tokens
type Claims struct {
	UserID int             `json:"user_id"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Register creates a new user account
func (s *AuthService) Register(req *models.UserCreateRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.Create(req, hash)
}

// Login verifies credentials and returns the user with a signed token
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ChangePassword replaces a user's password after verifying the current one
func (s *AuthService) ChangePassword(userID int, current, next string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	ok, err := utils.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if len(next) < 8 {
		return models.NewValidationError("password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(userID, hash)
}

// GenerateToken signs a JWT for the user
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	expiry := time.Duration(s.jwtCfg.ExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = 60 * time.Minute
	}

	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken parses a JWT and loads the user it names
func (s *AuthService) ValidateToken(tokenString string) (*models.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return s.userRepo.GetByID(claims.UserID)
}
