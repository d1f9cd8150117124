package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/notifications"
)

// MockCertificateRepository for testing
type MockCertificateRepository struct {
	certs map[string]*models.Certificate
}

func NewMockCertificateRepository() *MockCertificateRepository {
	return &MockCertificateRepository{certs: make(map[string]*models.Certificate)}
}

func (m *MockCertificateRepository) Create(cert *models.Certificate) error {
	if _, exists := m.certs[cert.ID]; exists {
		return models.ErrDuplicateEntry
	}
	m.certs[cert.ID] = cert
	return nil
}

func (m *MockCertificateRepository) GetByID(id string) (*models.Certificate, error) {
	cert, ok := m.certs[id]
	if !ok {
		return nil, models.ErrCertificateNotFound
	}
	return cert, nil
}

func (m *MockCertificateRepository) GetByVerificationCode(code string) (*models.Certificate, error) {
	for _, cert := range m.certs {
		if cert.VerificationCode == code {
			return cert, nil
		}
	}
	return nil, models.ErrCertificateNotFound
}

func (m *MockCertificateRepository) GetByRegistration(registrationID int) (*models.Certificate, error) {
	for _, cert := range m.certs {
		if cert.RegistrationID == registrationID {
			return cert, nil
		}
	}
	return nil, models.ErrCertificateNotFound
}

func newCertificateTestFixture() (*CertificateService, *MockCertificateRepository, *MockRegistrationRepository, *MockPublisher) {
	certRepo := NewMockCertificateRepository()
	regRepo := NewMockRegistrationRepository()
	eventRepo := NewMockEventRepository()
	publisher := &MockPublisher{}

	eventRepo.events[1] = &models.Event{
		ID:                     1,
		OrganizerID:            10,
		Title:                  "Go Conference",
		CertificateTitle:       "Certificate of Attendance",
		CertificateDescription: "Awarded for attending all three days.",
		Status:                 models.EventPublished,
	}
	regRepo.registrations[1] = &models.Registration{
		ID: 1, EventID: 1, UserID: 20,
		Status:        models.RegistrationAttended,
		CustomerName:  "Alice Smith",
		CustomerEmail: "alice@example.com",
	}

	service := NewCertificateService(
		certRepo, regRepo, eventRepo,
		NewPDFService(),
		NewMemoryStorage("http://localhost:8080/files"),
		publisher,
		"http://localhost:8080",
	)
	return service, certRepo, regRepo, publisher
}

func organizer() *models.User {
	return &models.User{ID: 10, Role: models.RoleOrganizer}
}

func TestCertificateService_Issue(t *testing.T) {
	service, certRepo, regRepo, publisher := newCertificateTestFixture()

	cert, err := service.Issue(organizer(), 1)
	require.NoError(t, err)

	assert.NotEmpty(t, cert.ID)
	assert.Equal(t, "Alice Smith", cert.RecipientName)
	assert.Equal(t, "Go Conference", cert.EventTitle)
	assert.Equal(t, "Certificate of Attendance", cert.Title)
	assert.NotEmpty(t, cert.VerificationCode)
	assert.Contains(t, cert.StorageKey, cert.ID)

	// Stored and retrievable
	stored, err := certRepo.GetByID(cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.VerificationCode, stored.VerificationCode)

	// Downloadable as a PDF
	regRepo.registrations[1].CertificateID = &cert.ID
	_, data, err := service.Download(participant(20), cert.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	// Notification published
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, notifications.KindCertificateIssued, publisher.messages[0].Kind)
}

func TestCertificateService_Issue_RequiresAttendance(t *testing.T) {
	service, _, regRepo, _ := newCertificateTestFixture()
	regRepo.registrations[1].Status = models.RegistrationVerified

	_, err := service.Issue(organizer(), 1)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestCertificateService_Issue_Idempotent(t *testing.T) {
	service, _, regRepo, _ := newCertificateTestFixture()

	first, err := service.Issue(organizer(), 1)
	require.NoError(t, err)

	regRepo.registrations[1].CertificateID = &first.ID
	second, err := service.Issue(organizer(), 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCertificateService_Issue_ParticipantForbidden(t *testing.T) {
	service, _, _, _ := newCertificateTestFixture()

	_, err := service.Issue(participant(20), 1)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCertificateService_Verify(t *testing.T) {
	service, _, _, _ := newCertificateTestFixture()

	cert, err := service.Issue(organizer(), 1)
	require.NoError(t, err)

	found, err := service.Verify(cert.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)

	_, err = service.Verify("no-such-code")
	assert.ErrorIs(t, err, models.ErrCertificateNotFound)
}
