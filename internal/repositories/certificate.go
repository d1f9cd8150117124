package repositories

import (
	"database/sql"
	"fmt"

	"event-registration-platform/internal/models"
)

// CertificateRepository handles certificate data operations
type CertificateRepository struct {
	db *sql.DB
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(db *sql.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateColumns = `id, registration_id, title, description, recipient_name, event_title, verification_code, storage_key, storage_url, issued_at`

func scanCertificate(row interface {
	Scan(dest ...interface{}) error
}) (*models.Certificate, error) {
	cert := &models.Certificate{}
	err := row.Scan(
		&cert.ID,
		&cert.RegistrationID,
		&cert.Title,
		&cert.Description,
		&cert.RecipientName,
		&cert.EventTitle,
		&cert.VerificationCode,
		&cert.StorageKey,
		&cert.StorageURL,
		&cert.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// Create stores an issued certificate and links it to its registration
func (r *CertificateRepository) Create(cert *models.Certificate) error {
	if err := cert.Validate(); err != nil {
		return models.NewValidationError("%s", err.Error())
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO certificates (id, registration_id, title, description, recipient_name, event_title, verification_code, storage_key, storage_url, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		cert.ID, cert.RegistrationID, cert.Title, cert.Description,
		cert.RecipientName, cert.EventTitle, cert.VerificationCode,
		cert.StorageKey, cert.StorageURL, cert.IssuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE registrations SET certificate_id = $2, updated_at = $3 WHERE id = $1`,
		cert.RegistrationID, cert.ID, cert.IssuedAt)
	if err != nil {
		return fmt.Errorf("failed to link certificate: %w", err)
	}

	if err := appendRegistrationLog(tx, cert.RegistrationID,
		fmt.Sprintf("certificate %s issued", cert.ID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit certificate: %w", err)
	}

	return nil
}

// GetByID retrieves a certificate by ID
func (r *CertificateRepository) GetByID(id string) (*models.Certificate, error) {
	cert, err := scanCertificate(r.db.QueryRow(
		`SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return cert, nil
}

// GetByVerificationCode resolves a certificate from its public code
func (r *CertificateRepository) GetByVerificationCode(code string) (*models.Certificate, error) {
	cert, err := scanCertificate(r.db.QueryRow(
		`SELECT `+certificateColumns+` FROM certificates WHERE verification_code = $1`, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to verify certificate: %w", err)
	}
	return cert, nil
}

// GetByRegistration retrieves the certificate issued for a registration
func (r *CertificateRepository) GetByRegistration(registrationID int) (*models.Certificate, error) {
	cert, err := scanCertificate(r.db.QueryRow(
		`SELECT `+certificateColumns+` FROM certificates WHERE registration_id = $1 ORDER BY issued_at DESC LIMIT 1`,
		registrationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return cert, nil
}
