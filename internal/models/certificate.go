package models

import (
	"errors"
	"time"
)

// Certificate represents an issued certificate for a registration. The
// rendered PDF lives in object storage under StorageKey; VerificationCode is
// embedded in the PDF as a QR code and resolves through the public verify
// endpoint.
type Certificate struct {
	ID               string    `json:"id" db:"id"` // uuid
	RegistrationID   int       `json:"registration_id" db:"registration_id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	RecipientName    string    `json:"recipient_name" db:"recipient_name"`
	EventTitle       string    `json:"event_title" db:"event_title"`
	VerificationCode string    `json:"verification_code" db:"verification_code"`
	StorageKey       string    `json:"storage_key" db:"storage_key"`
	StorageURL       string    `json:"storage_url" db:"storage_url"`
	IssuedAt         time.Time `json:"issued_at" db:"issued_at"`
}

// Validate validates the certificate data
func (c *Certificate) Validate() error {
	if c.ID == "" {
		return errors.New("certificate id is required")
	}

	if c.RegistrationID <= 0 {
		return errors.New("certificate must belong to a registration")
	}

	if c.RecipientName == "" {
		return errors.New("recipient name is required")
	}

	if c.VerificationCode == "" {
		return errors.New("verification code is required")
	}

	return nil
}
