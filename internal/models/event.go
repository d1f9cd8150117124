package models

import (
	"errors"
	"strings"
	"time"
)

// EventStatus represents the status of an event
type EventStatus string

const (
	EventDraft       EventStatus = "draft"
	EventPublished   EventStatus = "published"
	EventWaitingList EventStatus = "waiting_list"
	EventCancelled   EventStatus = "cancelled"
	EventArchived    EventStatus = "archived"
)

// Event represents an event in the system
type Event struct {
	ID                     int         `json:"id" db:"id"`
	OrganizerID            int         `json:"organizer_id" db:"organizer_id"`
	Title                  string      `json:"title" db:"title"`
	Description            string      `json:"description" db:"description"`
	Location               string      `json:"location" db:"location"`
	StartDate              time.Time   `json:"start_date" db:"start_date"`
	EndDate                time.Time   `json:"end_date" db:"end_date"`
	Status                 EventStatus `json:"status" db:"status"`
	MaxParticipants        int         `json:"max_participants" db:"max_participants"` // 0 = unlimited
	CertificateTitle       string      `json:"certificate_title" db:"certificate_title"`
	CertificateDescription string      `json:"certificate_description" db:"certificate_description"`
	CreatedAt              time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at" db:"updated_at"`

	// Related data
	Organizer *User `json:"organizer,omitempty"`
}

// EventCreateRequest represents the data needed to create a new event
type EventCreateRequest struct {
	Title                  string      `json:"title"`
	Description            string      `json:"description"`
	Location               string      `json:"location"`
	StartDate              time.Time   `json:"start_date"`
	EndDate                time.Time   `json:"end_date"`
	MaxParticipants        int         `json:"max_participants"`
	Status                 EventStatus `json:"status"`
	CertificateTitle       string      `json:"certificate_title"`
	CertificateDescription string      `json:"certificate_description"`
}

// EventUpdateRequest represents the data that can be updated for an event
type EventUpdateRequest struct {
	Title                  string      `json:"title"`
	Description            string      `json:"description"`
	Location               string      `json:"location"`
	StartDate              time.Time   `json:"start_date"`
	EndDate                time.Time   `json:"end_date"`
	MaxParticipants        int         `json:"max_participants"`
	Status                 EventStatus `json:"status"`
	CertificateTitle       string      `json:"certificate_title"`
	CertificateDescription string      `json:"certificate_description"`
}

// Validate validates event creation data
func (req *EventCreateRequest) Validate() error {
	if req.Status == "" {
		req.Status = EventDraft
	}

	return validateEventFields(req.Title, req.StartDate, req.EndDate, req.MaxParticipants, req.Status)
}

// Validate validates event update data
func (req *EventUpdateRequest) Validate() error {
	return validateEventFields(req.Title, req.StartDate, req.EndDate, req.MaxParticipants, req.Status)
}

func validateEventFields(title string, start, end time.Time, maxParticipants int, status EventStatus) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}

	if len(title) > 255 {
		return errors.New("title must be less than 255 characters")
	}

	if start.IsZero() || end.IsZero() {
		return errors.New("start and end dates are required")
	}

	if end.Before(start) {
		return errors.New("end date must be after start date")
	}

	if maxParticipants < 0 {
		return errors.New("max participants cannot be negative")
	}

	return validateEventStatus(status)
}

// validateEventStatus validates an event status
func validateEventStatus(status EventStatus) error {
	switch status {
	case EventDraft, EventPublished, EventWaitingList, EventCancelled, EventArchived:
		return nil
	default:
		return errors.New("invalid event status")
	}
}

// HasCapacityLimit returns true if the event limits its participant count
func (e *Event) HasCapacityLimit() bool {
	return e.MaxParticipants > 0
}

// AcceptsRegistrations returns true if new registrations may be accepted
// directly (as opposed to being placed on the waiting list)
func (e *Event) AcceptsRegistrations() bool {
	switch e.Status {
	case EventPublished:
		return true
	case EventDraft, EventWaitingList, EventCancelled, EventArchived:
		return false
	default:
		return false
	}
}
