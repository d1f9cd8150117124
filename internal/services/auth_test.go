package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "event-registration-platform/internal/config"
	"event-registration-platform/internal/models"
)

// MockUserRepository for testing
type MockUserRepository struct {
	users  map[int]*models.User
	nextID int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[int]*models.User), nextID: 1}
}

func (m *MockUserRepository) Create(req *models.UserCreateRequest, passwordHash string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(req.Email) {
			return nil, models.ErrDuplicateEntry
		}
	}
	user := &models.User{
		ID:           m.nextID,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
	}
	m.users[user.ID] = user
	m.nextID++
	return user, nil
}

func (m *MockUserRepository) GetByID(id int) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (m *MockUserRepository) UpdatePassword(id int, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func newAuthService() (*AuthService, *MockUserRepository) {
	repo := NewMockUserRepository()
	service := NewAuthService(repo, appconfig.JWTConfig{
		Secret:        "test-secret",
		ExpiryMinutes: 60,
	})
	return service, repo
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	service, _ := newAuthService()

	user, err := service.Register(&models.UserCreateRequest{
		Email:     "Alice@Example.com",
		Password:  "correct-horse",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	loggedIn, token, err := service.Login("alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)

	_, _, err = service.Login("alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login("nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Register_RejectsWeakPassword(t *testing.T) {
	service, _ := newAuthService()

	_, err := service.Register(&models.UserCreateRequest{
		Email:     "alice@example.com",
		Password:  "short",
		FirstName: "Alice",
	})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	service, _ := newAuthService()

	user, err := service.Register(&models.UserCreateRequest{
		Email:     "alice@example.com",
		Password:  "correct-horse",
		FirstName: "Alice",
	})
	require.NoError(t, err)

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	parsed, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsed.ID)

	_, err = service.ValidateToken(token + "tampered")
	assert.Error(t, err)
}

func TestAuthService_ChangePassword(t *testing.T) {
	service, _ := newAuthService()

	user, err := service.Register(&models.UserCreateRequest{
		Email:     "alice@example.com",
		Password:  "correct-horse",
		FirstName: "Alice",
	})
	require.NoError(t, err)

	err = service.ChangePassword(user.ID, "wrong", "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = service.ChangePassword(user.ID, "correct-horse", "new-password-1")
	require.NoError(t, err)

	_, _, err = service.Login("alice@example.com", "new-password-1")
	assert.NoError(t, err)
}
