package services

import (
	"errors"
	"log"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/notifications"
	"event-registration-platform/internal/orders"
	"event-registration-platform/internal/repositories"
)

// conflictRetries bounds how often a reconciliation is retried after a
// serialization failure before the conflict is surfaced to the caller.
const conflictRetries = 3

// OrderService handles order-related business logic
type OrderService struct {
	orderRepo        OrderRepository
	registrationRepo RegistrationRepository
	eventRepo        EventRepository
	userRepo         UserRepository
	publisher        Publisher
}

// OrderRepository interface for order data operations
type OrderRepository interface {
	Reconcile(registrationID int, target []orders.TargetLine) (*repositories.ReconcileResult, error)
	CreateWithLines(registrationID int, lines []orders.TargetLine) (*models.Order, error)
	GetByID(id int) (*models.Order, error)
	GetLines(orderID int) ([]*models.OrderLine, error)
	ListByRegistration(registrationID int) ([]*models.Order, error)
	GetNetProducts(registrationID int) ([]orders.ProductQuantity, error)
	UpdateStatus(id int, status models.OrderStatus) (*models.Order, error)
}

// RegistrationRepository interface for registration data operations
type RegistrationRepository interface {
	Create(req *models.RegistrationCreateRequest) (*models.Registration, error)
	GetByID(id int) (*models.Registration, error)
	GetByEventAndUser(eventID, userID int) (*models.Registration, error)
	ListByEvent(eventID, limit, offset int) ([]*models.Registration, int, error)
	UpdateStatus(id int, status models.RegistrationStatus) (*models.Registration, error)
	Patch(id int, req *models.RegistrationPatchRequest) (*models.Registration, error)
	SetCertificate(id int, certificateID string) error
	GetLog(registrationID int) ([]*models.RegistrationLogEntry, error)
}

// EventRepository interface for event data operations
type EventRepository interface {
	Create(organizerID int, req *models.EventCreateRequest) (*models.Event, error)
	GetByID(id int) (*models.Event, error)
	List(status models.EventStatus, limit, offset int) ([]*models.Event, error)
	ListByOrganizer(organizerID int) ([]*models.Event, error)
	Update(id int, req *models.EventUpdateRequest) (*models.Event, error)
	PromoteWaitingList(eventID int) ([]*models.Registration, error)
}

// UserRepository interface for user data operations
type UserRepository interface {
	Create(req *models.UserCreateRequest, passwordHash string) (*models.User, error)
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdatePassword(id int, passwordHash string) error
}

// Publisher sends notification messages to the queue. A nil publisher
// disables notifications.
type Publisher interface {
	Publish(message []byte) error
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo OrderRepository,
	registrationRepo RegistrationRepository,
	eventRepo EventRepository,
	userRepo UserRepository,
	publisher Publisher,
) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		userRepo:         userRepo,
		publisher:        publisher,
	}
}

// SetProducts reconciles a registration's net product quantities to the
// requested target state, creating or amending a draft order as needed.
// Serialization conflicts with concurrent writers are retried a bounded
// number of times.
func (s *OrderService) SetProducts(actor *models.User, registrationID int, target []orders.TargetLine) (*repositories.ReconcileResult, error) {
	reg, err := s.authorizeRegistrationAccess(actor, registrationID)
	if err != nil {
		return nil, err
	}

	var result *repositories.ReconcileResult
	for attempt := 0; ; attempt++ {
		result, err = s.orderRepo.Reconcile(registrationID, target)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrConcurrencyConflict) || attempt >= conflictRetries {
			return nil, err
		}
		log.Printf("WARNING: reconciliation conflict on registration %d, retrying (attempt %d)",
			registrationID, attempt+1)
	}

	s.publishOrderNotifications(reg, result)

	return result, nil
}

// CreateOrder creates a new order with exactly the given lines
func (s *OrderService) CreateOrder(actor *models.User, registrationID int, lines []orders.TargetLine) (*models.Order, error) {
	reg, err := s.authorizeRegistrationAccess(actor, registrationID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 0; ; attempt++ {
		order, err = s.orderRepo.CreateWithLines(registrationID, lines)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrConcurrencyConflict) || attempt >= conflictRetries {
			return nil, err
		}
		log.Printf("WARNING: order creation conflict on registration %d, retrying (attempt %d)",
			registrationID, attempt+1)
	}

	updated, err := s.registrationRepo.GetByID(registrationID)
	if err == nil {
		s.publishOrderNotifications(reg, &repositories.ReconcileResult{
			Order:        order,
			Created:      true,
			Registration: updated,
		})
	}

	return order, nil
}

// GetOrder retrieves an order with its lines
func (s *OrderService) GetOrder(actor *models.User, orderID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorizeRegistrationAccess(actor, order.RegistrationID); err != nil {
		return nil, err
	}

	lines, err := s.orderRepo.GetLines(order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

// ListOrders retrieves all orders of a registration with their lines
func (s *OrderService) ListOrders(actor *models.User, registrationID int) ([]*models.Order, error) {
	if _, err := s.authorizeRegistrationAccess(actor, registrationID); err != nil {
		return nil, err
	}

	list, err := s.orderRepo.ListByRegistration(registrationID)
	if err != nil {
		return nil, err
	}

	for _, order := range list {
		lines, err := s.orderRepo.GetLines(order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
	}

	return list, nil
}

// GetNetProducts retrieves the registration's effective product quantities
// across all non-cancelled orders
func (s *OrderService) GetNetProducts(actor *models.User, registrationID int) ([]orders.ProductQuantity, error) {
	if _, err := s.authorizeRegistrationAccess(actor, registrationID); err != nil {
		return nil, err
	}

	return s.orderRepo.GetNetProducts(registrationID)
}

// UpdateOrderStatus transitions an order to a new status. Only organizers of
// the event and admins may change order statuses.
func (s *OrderService) UpdateOrderStatus(actor *models.User, orderID int, status models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	reg, err := s.registrationRepo.GetByID(order.RegistrationID)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(reg.EventID)
	if err != nil {
		return nil, err
	}

	if !actor.CanManageEvent(event) {
		return nil, models.ErrForbidden
	}

	return s.orderRepo.UpdateStatus(orderID, status)
}

// authorizeRegistrationAccess loads the registration and checks that the
// actor may operate on it: the participant it belongs to, the organizer of
// its event, or an admin.
func (s *OrderService) authorizeRegistrationAccess(actor *models.User, registrationID int) (*models.Registration, error) {
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

// publishOrderNotifications emits queue messages for a committed order and
// for any registration status change the commit caused. Publish failures are
// logged, never surfaced; the order is already committed.
func (s *OrderService) publishOrderNotifications(before *models.Registration, result *repositories.ReconcileResult) {
	if s.publisher == nil || result == nil || result.Order == nil {
		return
	}

	reg := result.Registration
	if reg == nil {
		reg = before
	}

	event, err := s.eventRepo.GetByID(reg.EventID)
	if err != nil {
		log.Printf("WARNING: failed to load event %d for notifications: %v", reg.EventID, err)
		return
	}

	lines, err := s.orderRepo.GetLines(result.Order.ID)
	total := 0
	if err == nil {
		order := *result.Order
		order.Lines = lines
		total = order.TotalAmount()
	}

	s.publish(notifications.Message{
		Kind:           notifications.KindOrderCommitted,
		RegistrationID: reg.ID,
		Email:          reg.CustomerEmail,
		Name:           reg.CustomerName,
		EventTitle:     event.Title,
		OrderNumber:    result.Order.OrderNumber,
		TotalCents:     total,
	})

	if before.Status == models.RegistrationDraft && reg.Status != before.Status {
		kind := notifications.KindRegistrationConfirmed
		if reg.Status == models.RegistrationWaitingList {
			kind = notifications.KindRegistrationWaiting
		}
		s.publish(notifications.Message{
			Kind:           kind,
			RegistrationID: reg.ID,
			Email:          reg.CustomerEmail,
			Name:           reg.CustomerName,
			EventTitle:     event.Title,
		})
	}
}

func (s *OrderService) publish(msg notifications.Message) {
	body, err := msg.Encode()
	if err != nil {
		log.Printf("WARNING: failed to encode notification: %v", err)
		return
	}
	if err := s.publisher.Publish(body); err != nil {
		log.Printf("WARNING: failed to publish notification %s: %v", msg.Kind, err)
	}
}
