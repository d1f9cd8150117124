package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-registration-platform/internal/models"
)

// EventRepository handles event data operations
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, organizer_id, title, description, location, start_date, end_date, status, max_participants, certificate_title, certificate_description, created_at, updated_at`

func scanEvent(row interface {
	Scan(dest ...interface{}) error
}) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.StartDate,
		&event.EndDate,
		&event.Status,
		&event.MaxParticipants,
		&event.CertificateTitle,
		&event.CertificateDescription,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Create creates a new event
func (r *EventRepository) Create(organizerID int, req *models.EventCreateRequest) (*models.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	now := time.Now()
	event, err := scanEvent(r.db.QueryRow(`
		INSERT INTO events (organizer_id, title, description, location, start_date, end_date, status, max_participants, certificate_title, certificate_description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+eventColumns,
		organizerID, req.Title, req.Description, req.Location,
		req.StartDate, req.EndDate, req.Status, req.MaxParticipants,
		req.CertificateTitle, req.CertificateDescription, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(id int) (*models.Event, error) {
	event, err := scanEvent(r.db.QueryRow(
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// List retrieves events, optionally filtered by status, newest first
func (r *EventRepository) List(status models.EventStatus, limit, offset int) ([]*models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY start_date DESC, id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		result = append(result, event)
	}

	return result, rows.Err()
}

// ListByOrganizer retrieves all events owned by an organizer
func (r *EventRepository) ListByOrganizer(organizerID int) ([]*models.Event, error) {
	rows, err := r.db.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE organizer_id = $1
		ORDER BY start_date DESC, id DESC`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		result = append(result, event)
	}

	return result, rows.Err()
}

// Update updates an event's mutable fields
func (r *EventRepository) Update(id int, req *models.EventUpdateRequest) (*models.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	event, err := scanEvent(r.db.QueryRow(`
		UPDATE events
		SET title = $2, description = $3, location = $4, start_date = $5, end_date = $6, status = $7, max_participants = $8, certificate_title = $9, certificate_description = $10, updated_at = $11
		WHERE id = $1
		RETURNING `+eventColumns,
		id, req.Title, req.Description, req.Location, req.StartDate, req.EndDate,
		req.Status, req.MaxParticipants, req.CertificateTitle, req.CertificateDescription,
		time.Now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return event, nil
}

// PromoteWaitingList moves the oldest waiting-list registrations of an event
// back to verified while capacity allows. Called after a cancellation frees a
// spot. Returns the promoted registrations.
func (r *EventRepository) PromoteWaitingList(eventID int) ([]*models.Registration, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	event := &models.Event{}
	err = tx.QueryRow(`
		SELECT id, status, max_participants FROM events WHERE id = $1 FOR UPDATE`,
		eventID).Scan(&event.ID, &event.Status, &event.MaxParticipants)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEventNotFound
		}
		return nil, mapConflict(fmt.Errorf("failed to lock event: %w", err))
	}

	free := -1
	if event.HasCapacityLimit() {
		active, err := countActiveRegistrations(tx, eventID)
		if err != nil {
			return nil, err
		}
		free = event.MaxParticipants - active
		if free <= 0 {
			if err := tx.Commit(); err != nil {
				return nil, mapConflict(err)
			}
			return nil, nil
		}
	}

	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND status = 'waiting_list'
		ORDER BY created_at ASC, id ASC`
	if free > 0 {
		query += fmt.Sprintf(` LIMIT %d`, free)
	}
	query += ` FOR UPDATE`

	rows, err := tx.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load waiting list: %w", err)
	}

	var waiting []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		waiting = append(waiting, reg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var promoted []*models.Registration
	for _, reg := range waiting {
		updated, err := scanRegistration(tx.QueryRow(`
			UPDATE registrations
			SET status = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+registrationColumns,
			reg.ID, models.RegistrationVerified, time.Now()))
		if err != nil {
			return nil, fmt.Errorf("failed to promote registration %d: %w", reg.ID, err)
		}
		if err := appendRegistrationLog(tx, reg.ID, "promoted from waiting list"); err != nil {
			return nil, err
		}
		promoted = append(promoted, updated)
	}

	// Capacity freed up again, reopen the event for direct registrations.
	if len(promoted) > 0 && event.Status == models.EventWaitingList {
		active, err := countActiveRegistrations(tx, eventID)
		if err != nil {
			return nil, err
		}
		if !event.HasCapacityLimit() || active < event.MaxParticipants {
			_, err = tx.Exec(`UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`,
				eventID, models.EventPublished, time.Now())
			if err != nil {
				return nil, fmt.Errorf("failed to reopen event: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(fmt.Errorf("failed to commit waiting-list promotion: %w", err))
	}

	return promoted, nil
}
