package services

import (
	"event-registration-platform/internal/models"
)

// EventService handles event-related business logic
type EventService struct {
	eventRepo EventRepository
}

// NewEventService creates a new event service
func NewEventService(eventRepo EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

// CreateEvent creates a new event owned by the actor. Participants cannot
// create events.
func (s *EventService) CreateEvent(actor *models.User, req *models.EventCreateRequest) (*models.Event, error) {
	if actor.Role == models.RoleParticipant {
		return nil, models.ErrForbidden
	}

	return s.eventRepo.Create(actor.ID, req)
}

// GetEvent retrieves an event by ID
func (s *EventService) GetEvent(id int) (*models.Event, error) {
	return s.eventRepo.GetByID(id)
}

// ListEvents lists events visible to everyone. Non-admins only see published
// and waiting-list events unless they filter their own.
func (s *EventService) ListEvents(actor *models.User, status models.EventStatus, limit, offset int) ([]*models.Event, error) {
	if actor != nil && actor.IsAdmin() {
		return s.eventRepo.List(status, limit, offset)
	}

	if status == "" || status == models.EventDraft || status == models.EventArchived {
		status = models.EventPublished
	}
	return s.eventRepo.List(status, limit, offset)
}

// ListMyEvents lists the events the actor organizes
func (s *EventService) ListMyEvents(actor *models.User) ([]*models.Event, error) {
	return s.eventRepo.ListByOrganizer(actor.ID)
}

// UpdateEvent updates an event the actor manages
func (s *EventService) UpdateEvent(actor *models.User, id int, req *models.EventUpdateRequest) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !actor.CanManageEvent(event) {
		return nil, models.ErrForbidden
	}

	return s.eventRepo.Update(id, req)
}
