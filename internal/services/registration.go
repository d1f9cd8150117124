package services

import (
	"log"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/notifications"
)

// RegistrationService handles registration-related business logic
type RegistrationService struct {
	registrationRepo RegistrationRepository
	eventRepo        EventRepository
	publisher        Publisher
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	registrationRepo RegistrationRepository,
	eventRepo EventRepository,
	publisher Publisher,
) *RegistrationService {
	return &RegistrationService{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		publisher:        publisher,
	}
}

// Register creates a registration for the acting user. Organizers and admins
// may register other users by setting req.UserID.
func (s *RegistrationService) Register(actor *models.User, req *models.RegistrationCreateRequest) (*models.Registration, error) {
	if req.UserID == 0 {
		req.UserID = actor.ID
	}
	if req.UserID != actor.ID {
		event, err := s.eventRepo.GetByID(req.EventID)
		if err != nil {
			return nil, err
		}
		if !actor.CanManageEvent(event) {
			return nil, models.ErrForbidden
		}
	}

	if req.CustomerName == "" {
		req.CustomerName = actor.FullName()
	}
	if req.CustomerEmail == "" {
		req.CustomerEmail = actor.Email
	}

	reg, err := s.registrationRepo.Create(req)
	if err != nil {
		return nil, err
	}

	if reg.Status == models.RegistrationWaitingList {
		s.notify(notifications.KindRegistrationWaiting, reg)
	}

	return reg, nil
}

// GetRegistration retrieves a registration the actor may see
func (s *RegistrationService) GetRegistration(actor *models.User, id int) (*models.Registration, error) {
	return s.authorize(actor, id)
}

// ListByEvent retrieves an event's registrations for its organizer
func (s *RegistrationService) ListByEvent(actor *models.User, eventID, limit, offset int) ([]*models.Registration, int, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, 0, err
	}
	if !actor.CanManageEvent(event) {
		return nil, 0, models.ErrForbidden
	}

	return s.registrationRepo.ListByEvent(eventID, limit, offset)
}

// UpdateStatus transitions a registration. Participants may only cancel
// their own registration; everything else requires event management rights.
func (s *RegistrationService) UpdateStatus(actor *models.User, id int, status models.RegistrationStatus) (*models.Registration, error) {
	reg, err := s.registrationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		event, err := s.eventRepo.GetByID(reg.EventID)
		if err != nil {
			return nil, err
		}
		if !actor.CanManageEvent(event) {
			if reg.UserID != actor.ID || status != models.RegistrationCancelled {
				return nil, models.ErrForbidden
			}
		}
	}

	wasActive := reg.IsActive()
	updated, err := s.registrationRepo.UpdateStatus(id, status)
	if err != nil {
		return nil, err
	}

	// A cancellation frees a spot; promote the oldest waiting registration.
	if wasActive && !updated.IsActive() {
		promoted, err := s.eventRepo.PromoteWaitingList(reg.EventID)
		if err != nil {
			log.Printf("WARNING: failed to promote waiting list for event %d: %v", reg.EventID, err)
		}
		for _, p := range promoted {
			s.notify(notifications.KindRegistrationPromoted, p)
		}
	}

	return updated, nil
}

// Patch updates a registration's editable fields
func (s *RegistrationService) Patch(actor *models.User, id int, req *models.RegistrationPatchRequest) (*models.Registration, error) {
	if _, err := s.authorize(actor, id); err != nil {
		return nil, err
	}
	return s.registrationRepo.Patch(id, req)
}

// GetLog retrieves the audit trail of a registration
func (s *RegistrationService) GetLog(actor *models.User, id int) ([]*models.RegistrationLogEntry, error) {
	if _, err := s.authorize(actor, id); err != nil {
		return nil, err
	}
	return s.registrationRepo.GetLog(id)
}

func (s *RegistrationService) authorize(actor *models.User, registrationID int) (*models.Registration, error) {
	reg, err := s.registrationRepo.GetByID(registrationID)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() || reg.UserID == actor.ID {
		return reg, nil
	}

	event, err := s.eventRepo.GetByID(reg.EventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageEvent(event) {
		return nil, models.ErrForbidden
	}

	return reg, nil
}

func (s *RegistrationService) notify(kind string, reg *models.Registration) {
	if s.publisher == nil {
		return
	}

	event, err := s.eventRepo.GetByID(reg.EventID)
	if err != nil {
		log.Printf("WARNING: failed to load event %d for notification: %v", reg.EventID, err)
		return
	}

	msg := notifications.Message{
		Kind:           kind,
		RegistrationID: reg.ID,
		Email:          reg.CustomerEmail,
		Name:           reg.CustomerName,
		EventTitle:     event.Title,
	}
	body, err := msg.Encode()
	if err != nil {
		log.Printf("WARNING: failed to encode notification: %v", err)
		return
	}
	if err := s.publisher.Publish(body); err != nil {
		log.Printf("WARNING: failed to publish notification %s: %v", kind, err)
	}
}
