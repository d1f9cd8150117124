package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RegistrationStatus represents the status of a registration
type RegistrationStatus string

const (
	RegistrationDraft       RegistrationStatus = "draft"
	RegistrationVerified    RegistrationStatus = "verified"
	RegistrationAttended    RegistrationStatus = "attended"
	RegistrationNotAttended RegistrationStatus = "not_attended"
	RegistrationFinished    RegistrationStatus = "finished"
	RegistrationWaitingList RegistrationStatus = "waiting_list"
	RegistrationCancelled   RegistrationStatus = "cancelled"
)

// RegistrationType represents the role of the registrant at the event
type RegistrationType string

const (
	TypeParticipant RegistrationType = "participant"
	TypeStudent     RegistrationType = "student"
	TypeStaff       RegistrationType = "staff"
	TypeLecturer    RegistrationType = "lecturer"
	TypeArtist      RegistrationType = "artist"
)

// Registration represents one user's enrollment for one event. Registrations
// are never physically deleted; cancellation is a status transition.
type Registration struct {
	ID            int                `json:"id" db:"id"`
	EventID       int                `json:"event_id" db:"event_id"`
	UserID        int                `json:"user_id" db:"user_id"`
	Status        RegistrationStatus `json:"status" db:"status"`
	Type          RegistrationType   `json:"type" db:"type"`
	Notes         string             `json:"notes" db:"notes"`
	CustomerName  string             `json:"customer_name" db:"customer_name"`
	CustomerEmail string             `json:"customer_email" db:"customer_email"`
	CertificateID *string            `json:"certificate_id,omitempty" db:"certificate_id"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`

	// Related data
	User  *User  `json:"user,omitempty"`
	Event *Event `json:"event,omitempty"`
}

// RegistrationLogEntry is one append-only log line on a registration
type RegistrationLogEntry struct {
	ID             int       `json:"id" db:"id"`
	RegistrationID int       `json:"registration_id" db:"registration_id"`
	Message        string    `json:"message" db:"message"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// RegistrationCreateRequest represents the data needed to create a registration
type RegistrationCreateRequest struct {
	EventID       int              `json:"event_id"`
	UserID        int              `json:"user_id"`
	Type          RegistrationType `json:"type"`
	Notes         string           `json:"notes"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email"`
}

// RegistrationPatchRequest represents the fields that can be patched
type RegistrationPatchRequest struct {
	Type  *RegistrationType `json:"type,omitempty"`
	Notes *string           `json:"notes,omitempty"`
}

// Validate validates registration creation data
func (req *RegistrationCreateRequest) Validate() error {
	if req.EventID <= 0 {
		return errors.New("event id is required")
	}

	if req.UserID <= 0 {
		return errors.New("user id is required")
	}

	if req.Type == "" {
		req.Type = TypeParticipant
	}

	if err := validateRegistrationType(req.Type); err != nil {
		return err
	}

	if strings.TrimSpace(req.CustomerName) == "" {
		return errors.New("customer name is required")
	}

	if req.CustomerEmail == "" {
		return errors.New("customer email is required")
	}

	if !orderEmailRegex.MatchString(req.CustomerEmail) {
		return errors.New("customer email format is invalid")
	}

	return nil
}

// Validate validates registration patch data
func (req *RegistrationPatchRequest) Validate() error {
	if req.Type != nil {
		if err := validateRegistrationType(*req.Type); err != nil {
			return err
		}
	}

	if req.Notes != nil && len(*req.Notes) > 10000 {
		return errors.New("notes must be less than 10000 characters")
	}

	return nil
}

// validateRegistrationStatus validates a registration status
func validateRegistrationStatus(status RegistrationStatus) error {
	switch status {
	case RegistrationDraft, RegistrationVerified, RegistrationAttended,
		RegistrationNotAttended, RegistrationFinished, RegistrationWaitingList,
		RegistrationCancelled:
		return nil
	default:
		return fmt.Errorf("invalid registration status: %s", status)
	}
}

// validateRegistrationType validates a registration type
func validateRegistrationType(t RegistrationType) error {
	switch t {
	case TypeParticipant, TypeStudent, TypeStaff, TypeLecturer, TypeArtist:
		return nil
	default:
		return fmt.Errorf("invalid registration type: %s", t)
	}
}

// ValidateStatus validates the registration status value
func (r *Registration) ValidateStatus() error {
	return validateRegistrationStatus(r.Status)
}

// IsCancelled returns true if the registration is cancelled
func (r *Registration) IsCancelled() bool {
	return r.Status == RegistrationCancelled
}

// IsActive returns true if the registration counts toward event capacity
func (r *Registration) IsActive() bool {
	switch r.Status {
	case RegistrationDraft, RegistrationVerified, RegistrationAttended, RegistrationFinished:
		return true
	case RegistrationNotAttended, RegistrationWaitingList, RegistrationCancelled:
		return false
	default:
		return false
	}
}

// CanTransitionTo returns true if the registration status may change to newStatus
func (r *Registration) CanTransitionTo(newStatus RegistrationStatus) bool {
	validTransitions := map[RegistrationStatus][]RegistrationStatus{
		RegistrationDraft:       {RegistrationVerified, RegistrationWaitingList, RegistrationCancelled},
		RegistrationVerified:    {RegistrationAttended, RegistrationNotAttended, RegistrationCancelled},
		RegistrationWaitingList: {RegistrationVerified, RegistrationCancelled},
		RegistrationAttended:    {RegistrationFinished, RegistrationNotAttended},
		RegistrationNotAttended: {RegistrationAttended},
		RegistrationFinished:    {},
		RegistrationCancelled:   {},
	}

	for _, allowed := range validTransitions[r.Status] {
		if newStatus == allowed {
			return true
		}
	}

	return false
}

// CanReceiveCertificate returns true if a certificate may be issued for the
// registration in its current status
func (r *Registration) CanReceiveCertificate() bool {
	return r.Status == RegistrationAttended || r.Status == RegistrationFinished
}
