package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/notifications"
	"event-registration-platform/internal/orders"
	"event-registration-platform/internal/repositories"
)

// MockOrderRepository for testing
type MockOrderRepository struct {
	reconcileResult   *repositories.ReconcileResult
	reconcileErr      error
	reconcileFailures int
	reconcileCalls    int
	lines             map[int][]*models.OrderLine
	orders            map[int]*models.Order
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		lines:  make(map[int][]*models.OrderLine),
		orders: make(map[int]*models.Order),
	}
}

func (m *MockOrderRepository) Reconcile(registrationID int, target []orders.TargetLine) (*repositories.ReconcileResult, error) {
	m.reconcileCalls++
	if m.reconcileFailures > 0 {
		m.reconcileFailures--
		return nil, fmt.Errorf("%w: serialization failure", models.ErrConcurrencyConflict)
	}
	if m.reconcileErr != nil {
		return nil, m.reconcileErr
	}
	return m.reconcileResult, nil
}

func (m *MockOrderRepository) CreateWithLines(registrationID int, lines []orders.TargetLine) (*models.Order, error) {
	if m.reconcileResult != nil {
		return m.reconcileResult.Order, nil
	}
	return nil, models.ErrOrderNotFound
}

func (m *MockOrderRepository) GetByID(id int) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockOrderRepository) GetLines(orderID int) ([]*models.OrderLine, error) {
	return m.lines[orderID], nil
}

func (m *MockOrderRepository) ListByRegistration(registrationID int) ([]*models.Order, error) {
	var result []*models.Order
	for _, o := range m.orders {
		if o.RegistrationID == registrationID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) GetNetProducts(registrationID int) ([]orders.ProductQuantity, error) {
	return nil, nil
}

func (m *MockOrderRepository) UpdateStatus(id int, status models.OrderStatus) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	order.Status = status
	return order, nil
}

// MockRegistrationRepository for testing
type MockRegistrationRepository struct {
	registrations map[int]*models.Registration
}

func NewMockRegistrationRepository() *MockRegistrationRepository {
	return &MockRegistrationRepository{registrations: make(map[int]*models.Registration)}
}

func (m *MockRegistrationRepository) Create(req *models.RegistrationCreateRequest) (*models.Registration, error) {
	reg := &models.Registration{
		ID:            len(m.registrations) + 1,
		EventID:       req.EventID,
		UserID:        req.UserID,
		Status:        models.RegistrationDraft,
		Type:          req.Type,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CreatedAt:     time.Now(),
	}
	m.registrations[reg.ID] = reg
	return reg, nil
}

func (m *MockRegistrationRepository) GetByID(id int) (*models.Registration, error) {
	reg, ok := m.registrations[id]
	if !ok {
		return nil, models.ErrRegistrationNotFound
	}
	return reg, nil
}

func (m *MockRegistrationRepository) GetByEventAndUser(eventID, userID int) (*models.Registration, error) {
	for _, reg := range m.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return reg, nil
		}
	}
	return nil, models.ErrRegistrationNotFound
}

func (m *MockRegistrationRepository) ListByEvent(eventID, limit, offset int) ([]*models.Registration, int, error) {
	var result []*models.Registration
	for _, reg := range m.registrations {
		if reg.EventID == eventID {
			result = append(result, reg)
		}
	}
	return result, len(result), nil
}

func (m *MockRegistrationRepository) UpdateStatus(id int, status models.RegistrationStatus) (*models.Registration, error) {
	reg, ok := m.registrations[id]
	if !ok {
		return nil, models.ErrRegistrationNotFound
	}
	if !reg.CanTransitionTo(status) {
		return nil, models.NewValidationError("invalid transition")
	}
	reg.Status = status
	return reg, nil
}

func (m *MockRegistrationRepository) Patch(id int, req *models.RegistrationPatchRequest) (*models.Registration, error) {
	return m.GetByID(id)
}

func (m *MockRegistrationRepository) SetCertificate(id int, certificateID string) error {
	reg, ok := m.registrations[id]
	if !ok {
		return models.ErrRegistrationNotFound
	}
	reg.CertificateID = &certificateID
	return nil
}

func (m *MockRegistrationRepository) GetLog(registrationID int) ([]*models.RegistrationLogEntry, error) {
	return nil, nil
}

// MockEventRepository for testing
type MockEventRepository struct {
	events   map[int]*models.Event
	promoted []*models.Registration
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{events: make(map[int]*models.Event)}
}

func (m *MockEventRepository) Create(organizerID int, req *models.EventCreateRequest) (*models.Event, error) {
	event := &models.Event{
		ID:              len(m.events) + 1,
		OrganizerID:     organizerID,
		Title:           req.Title,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          req.Status,
		MaxParticipants: req.MaxParticipants,
	}
	m.events[event.ID] = event
	return event, nil
}

func (m *MockEventRepository) GetByID(id int) (*models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return event, nil
}

func (m *MockEventRepository) List(status models.EventStatus, limit, offset int) ([]*models.Event, error) {
	var result []*models.Event
	for _, e := range m.events {
		if status == "" || e.Status == status {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockEventRepository) ListByOrganizer(organizerID int) ([]*models.Event, error) {
	var result []*models.Event
	for _, e := range m.events {
		if e.OrganizerID == organizerID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockEventRepository) Update(id int, req *models.EventUpdateRequest) (*models.Event, error) {
	return m.GetByID(id)
}

func (m *MockEventRepository) PromoteWaitingList(eventID int) ([]*models.Registration, error) {
	return m.promoted, nil
}

// MockPublisher captures published notification messages
type MockPublisher struct {
	messages []notifications.Message
}

func (m *MockPublisher) Publish(body []byte) error {
	var msg notifications.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func newOrderTestFixture() (*OrderService, *MockOrderRepository, *MockRegistrationRepository, *MockEventRepository, *MockPublisher) {
	orderRepo := NewMockOrderRepository()
	regRepo := NewMockRegistrationRepository()
	eventRepo := NewMockEventRepository()
	publisher := &MockPublisher{}

	eventRepo.events[1] = &models.Event{
		ID:          1,
		OrganizerID: 10,
		Title:       "Go Conference",
		Status:      models.EventPublished,
	}
	regRepo.registrations[1] = &models.Registration{
		ID:            1,
		EventID:       1,
		UserID:        20,
		Status:        models.RegistrationDraft,
		CustomerName:  "Alice Smith",
		CustomerEmail: "alice@example.com",
	}

	service := NewOrderService(orderRepo, regRepo, eventRepo, nil, publisher)
	return service, orderRepo, regRepo, eventRepo, publisher
}

func participant(id int) *models.User {
	return &models.User{ID: id, Role: models.RoleParticipant}
}

func TestOrderService_SetProducts_OwnRegistration(t *testing.T) {
	service, orderRepo, _, _, _ := newOrderTestFixture()

	orderRepo.reconcileResult = &repositories.ReconcileResult{
		Order:   &models.Order{ID: 1, RegistrationID: 1, OrderNumber: "REG-ORD-20260101-000001", Status: models.OrderDraft},
		Created: true,
		Registration: &models.Registration{
			ID: 1, EventID: 1, UserID: 20,
			Status:        models.RegistrationVerified,
			CustomerName:  "Alice Smith",
			CustomerEmail: "alice@example.com",
		},
	}

	result, err := service.SetProducts(participant(20), 1, []orders.TargetLine{
		{ProductID: 1, Quantity: 2},
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, 1, orderRepo.reconcileCalls)
}

func TestOrderService_SetProducts_ForeignRegistrationForbidden(t *testing.T) {
	service, _, _, _, _ := newOrderTestFixture()

	_, err := service.SetProducts(participant(99), 1, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestOrderService_SetProducts_OrganizerAllowed(t *testing.T) {
	service, orderRepo, _, _, _ := newOrderTestFixture()
	orderRepo.reconcileResult = &repositories.ReconcileResult{}

	organizer := &models.User{ID: 10, Role: models.RoleOrganizer}
	_, err := service.SetProducts(organizer, 1, nil)
	assert.NoError(t, err)
}

func TestOrderService_SetProducts_RetriesOnConflict(t *testing.T) {
	service, orderRepo, _, _, _ := newOrderTestFixture()
	orderRepo.reconcileFailures = 2
	orderRepo.reconcileResult = &repositories.ReconcileResult{}

	_, err := service.SetProducts(participant(20), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, orderRepo.reconcileCalls)
}

func TestOrderService_SetProducts_GivesUpAfterBoundedRetries(t *testing.T) {
	service, orderRepo, _, _, _ := newOrderTestFixture()
	orderRepo.reconcileFailures = 10

	_, err := service.SetProducts(participant(20), 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConcurrencyConflict)
	assert.Equal(t, conflictRetries+1, orderRepo.reconcileCalls)
}

func TestOrderService_SetProducts_PublishesNotifications(t *testing.T) {
	service, orderRepo, _, _, publisher := newOrderTestFixture()

	orderRepo.reconcileResult = &repositories.ReconcileResult{
		Order:   &models.Order{ID: 1, RegistrationID: 1, OrderNumber: "REG-ORD-20260101-000001"},
		Created: true,
		Registration: &models.Registration{
			ID: 1, EventID: 1, UserID: 20,
			Status:        models.RegistrationWaitingList,
			CustomerName:  "Alice Smith",
			CustomerEmail: "alice@example.com",
		},
	}

	_, err := service.SetProducts(participant(20), 1, []orders.TargetLine{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)

	require.Len(t, publisher.messages, 2)
	assert.Equal(t, notifications.KindOrderCommitted, publisher.messages[0].Kind)
	assert.Equal(t, notifications.KindRegistrationWaiting, publisher.messages[1].Kind)
	assert.Equal(t, "alice@example.com", publisher.messages[0].Email)
}

func TestOrderService_SetProducts_NoopPublishesNothing(t *testing.T) {
	service, orderRepo, _, _, publisher := newOrderTestFixture()

	// Target already matched; no order touched.
	orderRepo.reconcileResult = &repositories.ReconcileResult{
		Registration: &models.Registration{ID: 1, EventID: 1, Status: models.RegistrationVerified},
	}

	_, err := service.SetProducts(participant(20), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, publisher.messages)
}

func TestOrderService_UpdateOrderStatus_RequiresManagement(t *testing.T) {
	service, orderRepo, _, _, _ := newOrderTestFixture()
	orderRepo.orders[5] = &models.Order{ID: 5, RegistrationID: 1, Status: models.OrderDraft}

	_, err := service.UpdateOrderStatus(participant(20), 5, models.OrderVerified)
	assert.ErrorIs(t, err, models.ErrForbidden)

	organizer := &models.User{ID: 10, Role: models.RoleOrganizer}
	order, err := service.UpdateOrderStatus(organizer, 5, models.OrderVerified)
	require.NoError(t, err)
	assert.Equal(t, models.OrderVerified, order.Status)
}
