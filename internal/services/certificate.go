package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/notifications"
	"event-registration-platform/internal/utils"
)

// CertificateRepository interface for certificate data operations
type CertificateRepository interface {
	Create(cert *models.Certificate) error
	GetByID(id string) (*models.Certificate, error)
	GetByVerificationCode(code string) (*models.Certificate, error)
	GetByRegistration(registrationID int) (*models.Certificate, error)
}

// CertificateService issues, serves and verifies participation certificates
type CertificateService struct {
	certRepo         CertificateRepository
	registrationRepo RegistrationRepository
	eventRepo        EventRepository
	pdf              *PDFService
	storage          StorageService
	publisher        Publisher
	baseURL          string
}

// NewCertificateService creates a new certificate service. baseURL is the
// public address certificates verify against, e.g. https://events.example.com.
func NewCertificateService(
	certRepo CertificateRepository,
	registrationRepo RegistrationRepository,
	eventRepo EventRepository,
	pdf *PDFService,
	storage StorageService,
	publisher Publisher,
	baseURL string,
) *CertificateService {
	return &CertificateService{
		certRepo:         certRepo,
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		pdf:              pdf,
		storage:          storage,
		publisher:        publisher,
		baseURL:          baseURL,
	}
}

// Issue renders and stores a certificate for a registration. Only attended
// or finished registrations qualify; a registration gets at most one
// certificate.
func (s *CertificateService) Issue(actor *models.User, registrationID int) (*models.Certificate, error) {
	reg, err := s.registrationRepo.GetByID(registrationID)
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

	if !reg.CanReceiveCertificate() {
		return nil, models.NewValidationError(
			"registration %d has status %s and cannot receive a certificate", reg.ID, reg.Status)
	}

	if reg.CertificateID != nil {
		return s.certRepo.GetByID(*reg.CertificateID)
	}

	code, err := utils.GenerateSecureToken(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	cert := &models.Certificate{
		ID:               uuid.NewString(),
		RegistrationID:   reg.ID,
		Title:            event.CertificateTitle,
		Description:      event.CertificateDescription,
		RecipientName:    reg.CustomerName,
		EventTitle:       event.Title,
		VerificationCode: code,
		IssuedAt:         time.Now(),
	}

	pdfBytes, err := s.pdf.GenerateCertificatePDF(cert, s.VerifyURL(cert))
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	cert.StorageKey = fmt.Sprintf("certificates/%s.pdf", cert.ID)
	url, err := s.storage.Upload(context.Background(), cert.StorageKey,
		bytes.NewReader(pdfBytes), "application/pdf", int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to store certificate: %w", err)
	}
	cert.StorageURL = url

	if err := s.certRepo.Create(cert); err != nil {
		// Creation failed after upload; remove the orphan object.
		if delErr := s.storage.Delete(context.Background(), cert.StorageKey); delErr != nil {
			log.Printf("WARNING: failed to clean up orphaned certificate %s: %v", cert.StorageKey, delErr)
		}
		return nil, err
	}

	s.notifyIssued(reg, cert)

	return cert, nil
}

// Download retrieves the PDF bytes of a certificate
func (s *CertificateService) Download(actor *models.User, certificateID string) (*models.Certificate, []byte, error) {
	cert, err := s.certRepo.GetByID(certificateID)
	if err != nil {
		return nil, nil, err
	}

	reg, err := s.registrationRepo.GetByID(cert.RegistrationID)
	if err != nil {
		return nil, nil, err
	}

	if !actor.IsAdmin() && reg.UserID != actor.ID {
		event, err := s.eventRepo.GetByID(reg.EventID)
		if err != nil {
			return nil, nil, err
		}
		if !actor.CanManageEvent(event) {
			return nil, nil, models.ErrForbidden
		}
	}

	data, err := s.storage.Download(context.Background(), cert.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch certificate: %w", err)
	}

	return cert, data, nil
}

// Verify resolves a certificate from its public verification code. No
// authentication; the code itself is the capability.
func (s *CertificateService) Verify(code string) (*models.Certificate, error) {
	return s.certRepo.GetByVerificationCode(code)
}

// VerifyURL returns the public verification address baked into the QR code
func (s *CertificateService) VerifyURL(cert *models.Certificate) string {
	return fmt.Sprintf("%s/api/v1/certificates/verify/%s", s.baseURL, cert.VerificationCode)
}

func (s *CertificateService) notifyIssued(reg *models.Registration, cert *models.Certificate) {
	if s.publisher == nil {
		return
	}

	msg := notifications.Message{
		Kind:           notifications.KindCertificateIssued,
		RegistrationID: reg.ID,
		Email:          reg.CustomerEmail,
		Name:           reg.CustomerName,
		EventTitle:     cert.EventTitle,
		DownloadURL:    cert.StorageURL,
	}
	body, err := msg.Encode()
	if err != nil {
		log.Printf("WARNING: failed to encode notification: %v", err)
		return
	}
	if err := s.publisher.Publish(body); err != nil {
		log.Printf("WARNING: failed to publish certificate notification: %v", err)
	}
}
