package repositories

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"event-registration-platform/internal/models"
)

// mapConflict translates postgres serialization failures and deadlocks into
// models.ErrConcurrencyConflict so callers can retry them. Everything else
// passes through unchanged.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", models.ErrConcurrencyConflict, pqErr.Message)
		}
	}

	return err
}

// isUniqueViolation reports whether err is a postgres unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
