package models

import (
	"errors"
	"strings"
	"time"
)

// UserRole represents the role of a user
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleOrganizer   UserRole = "organizer"
	RoleParticipant UserRole = "participant"
)

// User represents a user in the system
type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Phone        string    `json:"phone" db:"phone"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserCreateRequest represents the data needed to create a user
type UserCreateRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone"`
	Role      UserRole `json:"role"`
}

// Validate validates user creation data
func (req *UserCreateRequest) Validate() error {
	if req.Email == "" {
		return errors.New("email is required")
	}

	if !orderEmailRegex.MatchString(req.Email) {
		return errors.New("email format is invalid")
	}

	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if strings.TrimSpace(req.FirstName) == "" {
		return errors.New("first name is required")
	}

	if req.Role == "" {
		req.Role = RoleParticipant
	}

	switch req.Role {
	case RoleAdmin, RoleOrganizer, RoleParticipant:
		return nil
	default:
		return errors.New("invalid user role")
	}
}

// FullName returns the user's full name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageEvent returns true if the user may manage the given event
func (u *User) CanManageEvent(event *Event) bool {
	if u.IsAdmin() {
		return true
	}
	return u.Role == RoleOrganizer && event.OrganizerID == u.ID
}
