package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-registration-platform/internal/models"
)

// RegistrationRepository handles registration data operations
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, event_id, user_id, status, type, notes, customer_name, customer_email, certificate_id, created_at, updated_at`

func scanRegistration(row interface {
	Scan(dest ...interface{}) error
}) (*models.Registration, error) {
	reg := &models.Registration{}
	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.Status,
		&reg.Type,
		&reg.Notes,
		&reg.CustomerName,
		&reg.CustomerEmail,
		&reg.CertificateID,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Create creates a new registration for an event. The event row is locked for
// the duration of the transaction so that the capacity decision cannot race
// with concurrent registrations for the same event: when the event is full the
// registration starts on the waiting list instead of as a draft.
func (r *RegistrationRepository) Create(req *models.RegistrationCreateRequest) (*models.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	event := &models.Event{}
	err = tx.QueryRow(`
		SELECT id, status, max_participants
		FROM events
		WHERE id = $1
		FOR UPDATE`, req.EventID).Scan(&event.ID, &event.Status, &event.MaxParticipants)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	if !event.AcceptsRegistrations() && event.Status != models.EventWaitingList {
		return nil, models.NewValidationError("event is not open for registration")
	}

	var exists bool
	err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		req.EventID, req.UserID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if exists {
		return nil, models.ErrDuplicateEntry
	}

	status := models.RegistrationDraft
	if event.HasCapacityLimit() || event.Status == models.EventWaitingList {
		active, err := countActiveRegistrations(tx, event.ID)
		if err != nil {
			return nil, err
		}
		if event.Status == models.EventWaitingList ||
			(event.HasCapacityLimit() && active >= event.MaxParticipants) {
			status = models.RegistrationWaitingList
		}
	}

	now := time.Now()
	reg := &models.Registration{}
	err = tx.QueryRow(`
		INSERT INTO registrations (event_id, user_id, status, type, notes, customer_name, customer_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+registrationColumns,
		req.EventID, req.UserID, status, req.Type, req.Notes,
		req.CustomerName, req.CustomerEmail, now, now,
	).Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.Type, &reg.Notes,
		&reg.CustomerName, &reg.CustomerEmail, &reg.CertificateID, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if err := appendRegistrationLog(tx, reg.ID, fmt.Sprintf("registration created with status %s", reg.Status)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(fmt.Errorf("failed to commit registration creation: %w", err))
	}

	return reg, nil
}

// GetByID retrieves a registration by ID
func (r *RegistrationRepository) GetByID(id int) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// GetByEventAndUser retrieves the registration for an (event, user) pair
func (r *RegistrationRepository) GetByEventAndUser(eventID, userID int) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// ListByEvent retrieves registrations for an event with pagination
func (r *RegistrationRepository) ListByEvent(eventID int, limit, offset int) ([]*models.Registration, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var registrations []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan registration: %w", err)
		}
		registrations = append(registrations, reg)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating registrations: %w", err)
	}

	return registrations, total, nil
}

// UpdateStatus transitions a registration to a new status. Invalid
// transitions are rejected; the change is logged on the registration.
func (r *RegistrationRepository) UpdateStatus(id int, status models.RegistrationStatus) (*models.Registration, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanRegistration(tx.QueryRow(
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to lock registration: %w", err)
	}

	if !current.CanTransitionTo(status) {
		return nil, models.NewValidationError(
			"registration cannot move from %s to %s", current.Status, status)
	}

	reg, err := scanRegistration(tx.QueryRow(`
		UPDATE registrations
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+registrationColumns, id, status, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}

	message := fmt.Sprintf("status changed from %s to %s", current.Status, status)
	if err := appendRegistrationLog(tx, id, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(fmt.Errorf("failed to commit status update: %w", err))
	}

	return reg, nil
}

// Patch updates the mutable free-form fields of a registration
func (r *RegistrationRepository) Patch(id int, req *models.RegistrationPatchRequest) (*models.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	current, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	regType := current.Type
	if req.Type != nil {
		regType = *req.Type
	}
	notes := current.Notes
	if req.Notes != nil {
		notes = *req.Notes
	}

	reg, err := scanRegistration(r.db.QueryRow(`
		UPDATE registrations
		SET type = $2, notes = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+registrationColumns, id, regType, notes, time.Now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to patch registration: %w", err)
	}

	return reg, nil
}

// SetCertificate stores the issued certificate reference on a registration
func (r *RegistrationRepository) SetCertificate(id int, certificateID string) error {
	result, err := r.db.Exec(`
		UPDATE registrations SET certificate_id = $2, updated_at = $3 WHERE id = $1`,
		id, certificateID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set certificate: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrRegistrationNotFound
	}

	return nil
}

// GetLog retrieves a registration's append-only log, oldest first
func (r *RegistrationRepository) GetLog(registrationID int) ([]*models.RegistrationLogEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, registration_id, message, created_at
		FROM registration_log
		WHERE registration_id = $1
		ORDER BY created_at ASC, id ASC`, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration log: %w", err)
	}
	defer rows.Close()

	var entries []*models.RegistrationLogEntry
	for rows.Next() {
		entry := &models.RegistrationLogEntry{}
		if err := rows.Scan(&entry.ID, &entry.RegistrationID, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// appendRegistrationLog appends one line to a registration's log inside an
// existing transaction
func appendRegistrationLog(tx *sql.Tx, registrationID int, message string) error {
	_, err := tx.Exec(`
		INSERT INTO registration_log (registration_id, message, created_at)
		VALUES ($1, $2, $3)`, registrationID, message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append registration log: %w", err)
	}
	return nil
}

// countActiveRegistrations counts the registrations that occupy capacity for
// an event (waiting-list and cancelled registrations do not)
func countActiveRegistrations(tx *sql.Tx, eventID int) (int, error) {
	var count int
	err := tx.QueryRow(`
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1
		  AND status IN ('draft', 'verified', 'attended', 'finished')`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active registrations: %w", err)
	}
	return count, nil
}
