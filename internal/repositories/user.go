package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"event-registration-platform/internal/models"
)

// UserRepository handles user data operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, created_at, updated_at`

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user with an already-hashed password
func (r *UserRepository) Create(req *models.UserCreateRequest, passwordHash string) (*models.User, error) {
	now := time.Now()
	user, err := scanUser(r.db.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		strings.ToLower(req.Email), passwordHash, req.FirstName, req.LastName,
		req.Phone, req.Role, now, now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(id int, passwordHash string) error {
	result, err := r.db.Exec(`
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check password update: %w", err)
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}
