package repositories

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/orders"
)

// OrderRepository handles order data operations. The reconciliation flow
// (Reconcile) is the write path behind "set this registration's products to
// exactly this state": it loads the registration's order history, lets the
// pure planning core in internal/orders decide the line deltas, and applies
// them in a single transaction.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, registration_id, order_number, status, customer_name, customer_email, comments, ordered_at, created_at, updated_at`

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.RegistrationID,
		&order.OrderNumber,
		&order.Status,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.Comments,
		&order.OrderedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReconcileResult reports what a reconciliation did
type ReconcileResult struct {
	// Order is the order the deltas were appended to; nil when the target
	// already matched the current net state and nothing was written.
	Order *models.Order
	// Created is true when a fresh draft order was opened for the deltas
	Created bool
	// Deltas are the applied line adjustments
	Deltas []orders.Delta
	// Registration is the post-commit registration state
	Registration *models.Registration
}

// Reconcile moves a registration's net product quantities to the requested
// target state. The registration row is locked first, which serializes
// concurrent reconciliations for the same registration; the whole flow is one
// transaction, so a failure anywhere leaves no partial order-line set behind.
func (r *OrderRepository) Reconcile(registrationID int, target []orders.TargetLine) (*ReconcileResult, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reg, err := lockRegistration(tx, registrationID)
	if err != nil {
		return nil, err
	}

	if reg.IsCancelled() {
		return nil, models.NewValidationError("registration %d is cancelled", registrationID)
	}

	existing, lines, err := loadOrderHistory(tx, registrationID)
	if err != nil {
		return nil, err
	}

	ownerStatus := make(map[int]models.OrderStatus, len(existing))
	for _, order := range existing {
		ownerStatus[order.ID] = order.Status
	}

	deltas, err := orders.PlanOrderLines(orders.NetQuantities(lines, ownerStatus), target)
	if err != nil {
		return nil, err
	}

	if len(deltas) == 0 {
		// Target already matches the net state; nothing to write.
		if err := tx.Commit(); err != nil {
			return nil, mapConflict(err)
		}
		return &ReconcileResult{Registration: reg}, nil
	}

	if err := validateDeltaProducts(tx, reg.EventID, target, deltas); err != nil {
		return nil, err
	}

	chosen, skipped := orders.SelectTargetOrder(existing)
	for _, order := range skipped {
		log.Printf("WARNING: registration %d has multiple editable orders; skipping order %s in favor of a newer one",
			registrationID, order.OrderNumber)
	}

	created := false
	if chosen == nil {
		chosen, err = insertOrder(tx, reg)
		if err != nil {
			return nil, err
		}
		created = true
	}

	if err := insertOrderLines(tx, chosen.ID, deltas); err != nil {
		return nil, err
	}

	action := "amended"
	if created {
		action = "created"
	}
	message := fmt.Sprintf("order %s %s with %d line adjustment(s)", chosen.OrderNumber, action, len(deltas))
	if err := appendRegistrationLog(tx, registrationID, message); err != nil {
		return nil, err
	}

	reg, err = applyCapacityRule(tx, reg)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(fmt.Errorf("failed to commit reconciliation: %w", err))
	}

	return &ReconcileResult{
		Order:        chosen,
		Created:      created,
		Deltas:       deltas,
		Registration: reg,
	}, nil
}

// CreateWithLines creates a new order with exactly the given lines, without
// diffing against the registration's current net state. Line quantities may
// be negative (an explicit refund entry); a zero quantity is rejected.
func (r *OrderRepository) CreateWithLines(registrationID int, lines []orders.TargetLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, models.NewValidationError("order must contain at least one line")
	}

	deltas := make([]orders.Delta, 0, len(lines))
	for _, line := range lines {
		if line.Quantity == 0 {
			return nil, models.NewValidationError("order line quantity cannot be zero")
		}
		deltas = append(deltas, orders.Delta{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reg, err := lockRegistration(tx, registrationID)
	if err != nil {
		return nil, err
	}

	if reg.IsCancelled() {
		return nil, models.NewValidationError("registration %d is cancelled", registrationID)
	}

	if err := validateDeltaProducts(tx, reg.EventID, nil, deltas); err != nil {
		return nil, err
	}

	order, err := insertOrder(tx, reg)
	if err != nil {
		return nil, err
	}

	if err := insertOrderLines(tx, order.ID, deltas); err != nil {
		return nil, err
	}

	if err := appendRegistrationLog(tx, registrationID,
		fmt.Sprintf("order %s created with %d line(s)", order.OrderNumber, len(deltas))); err != nil {
		return nil, err
	}

	reg, err = applyCapacityRule(tx, reg)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(fmt.Errorf("failed to commit order creation: %w", err))
	}

	return order, nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(id int) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRow(
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetLines retrieves the lines of an order, oldest first
func (r *OrderRepository) GetLines(orderID int) ([]*models.OrderLine, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, product_id, variant_id, quantity, unit_price, vat_percent, description, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}
	defer rows.Close()

	return scanOrderLines(rows)
}

// ListByRegistration retrieves all orders of a registration, newest first
func (r *OrderRepository) ListByRegistration(registrationID int) ([]*models.Order, error) {
	rows, err := r.db.Query(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE registration_id = $1
		ORDER BY created_at DESC, id DESC`, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var result []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, order)
	}

	return result, rows.Err()
}

// GetNetProducts computes the net ordered quantity per (product, variant)
// pair across all non-cancelled orders of a registration. This is the SQL
// twin of orders.AggregateProducts and must follow the same rules: cancelled
// orders excluded, zero sums dropped.
func (r *OrderRepository) GetNetProducts(registrationID int) ([]orders.ProductQuantity, error) {
	rows, err := r.db.Query(`
		SELECT ol.product_id, ol.variant_id, SUM(ol.quantity) AS net_quantity
		FROM order_lines ol
		JOIN orders o ON ol.order_id = o.id
		WHERE o.registration_id = $1
		  AND o.status <> 'cancelled'
		GROUP BY ol.product_id, ol.variant_id
		HAVING SUM(ol.quantity) <> 0
		ORDER BY ol.product_id, ol.variant_id NULLS FIRST`, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate products: %w", err)
	}
	defer rows.Close()

	result := []orders.ProductQuantity{}
	for rows.Next() {
		var pq orders.ProductQuantity
		if err := rows.Scan(&pq.ProductID, &pq.VariantID, &pq.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan net product: %w", err)
		}
		result = append(result, pq)
	}

	return result, rows.Err()
}

// UpdateStatus transitions an order to a new status
func (r *OrderRepository) UpdateStatus(id int, status models.OrderStatus) (*models.Order, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanOrder(tx.QueryRow(
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	if !current.CanTransitionTo(status) {
		return nil, models.NewValidationError(
			"order cannot move from %s to %s", current.Status, status)
	}

	order, err := scanOrder(tx.QueryRow(`
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns, id, status, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	message := fmt.Sprintf("order %s moved from %s to %s", order.OrderNumber, current.Status, status)
	if err := appendRegistrationLog(tx, order.RegistrationID, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(fmt.Errorf("failed to commit order status update: %w", err))
	}

	return order, nil
}

// lockRegistration loads a registration under FOR UPDATE, serializing all
// order mutations for it
func lockRegistration(tx *sql.Tx, registrationID int) (*models.Registration, error) {
	reg, err := scanRegistration(tx.QueryRow(
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, registrationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, mapConflict(fmt.Errorf("failed to lock registration: %w", err))
	}
	return reg, nil
}

// loadOrderHistory loads all orders of a registration together with every
// order line, inside the current transaction
func loadOrderHistory(tx *sql.Tx, registrationID int) ([]*models.Order, []*models.OrderLine, error) {
	rows, err := tx.Query(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE registration_id = $1
		ORDER BY created_at ASC, id ASC`, registrationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load orders: %w", err)
	}
	defer rows.Close()

	var history []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan order: %w", err)
		}
		history = append(history, order)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	lineRows, err := tx.Query(`
		SELECT ol.id, ol.order_id, ol.product_id, ol.variant_id, ol.quantity, ol.unit_price, ol.vat_percent, ol.description, ol.created_at
		FROM order_lines ol
		JOIN orders o ON ol.order_id = o.id
		WHERE o.registration_id = $1`, registrationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	defer lineRows.Close()

	lines, err := scanOrderLines(lineRows)
	if err != nil {
		return nil, nil, err
	}

	return history, lines, nil
}

func scanOrderLines(rows *sql.Rows) ([]*models.OrderLine, error) {
	var lines []*models.OrderLine
	for rows.Next() {
		line := &models.OrderLine{}
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.VariantID,
			&line.Quantity,
			&line.UnitPrice,
			&line.VATPercent,
			&line.Description,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// insertOrder opens a fresh draft order for a registration
func insertOrder(tx *sql.Tx, reg *models.Registration) (*models.Order, error) {
	now := time.Now()
	order, err := scanOrder(tx.QueryRow(`
		INSERT INTO orders (registration_id, order_number, status, customer_name, customer_email, comments, ordered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderColumns,
		reg.ID, models.GenerateOrderNumber(), models.OrderDraft,
		reg.CustomerName, reg.CustomerEmail, "", now, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// insertOrderLines appends one line per delta, snapshotting the current
// product or variant price onto each line
func insertOrderLines(tx *sql.Tx, orderID int, deltas []orders.Delta) error {
	now := time.Now()
	for _, delta := range deltas {
		var name string
		var price, vatPercent int

		if delta.VariantID != nil {
			err := tx.QueryRow(`
				SELECT p.name || ' (' || v.name || ')', v.price, v.vat_percent
				FROM product_variants v
				JOIN products p ON v.product_id = p.id
				WHERE v.id = $1 AND v.product_id = $2`,
				*delta.VariantID, delta.ProductID).Scan(&name, &price, &vatPercent)
			if err != nil {
				if err == sql.ErrNoRows {
					return models.ErrProductNotFound
				}
				return fmt.Errorf("failed to load variant %d: %w", *delta.VariantID, err)
			}
		} else {
			err := tx.QueryRow(`
				SELECT name, price, vat_percent FROM products WHERE id = $1`,
				delta.ProductID).Scan(&name, &price, &vatPercent)
			if err != nil {
				if err == sql.ErrNoRows {
					return models.ErrProductNotFound
				}
				return fmt.Errorf("failed to load product %d: %w", delta.ProductID, err)
			}
		}

		_, err := tx.Exec(`
			INSERT INTO order_lines (order_id, product_id, variant_id, quantity, unit_price, vat_percent, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			orderID, delta.ProductID, delta.VariantID, delta.Quantity, price, vatPercent, name, now)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return nil
}

// validateDeltaProducts checks that every product touched by the plan exists,
// is orderable from the registration's event, and that requested quantities
// respect the product's minimum quantity
func validateDeltaProducts(tx *sql.Tx, eventID int, target []orders.TargetLine, deltas []orders.Delta) error {
	desired := make(map[int]int, len(target))
	for _, t := range target {
		desired[t.ProductID] += t.Quantity
	}

	seen := make(map[int]bool)
	for _, delta := range deltas {
		if seen[delta.ProductID] {
			continue
		}
		seen[delta.ProductID] = true

		product := &models.Product{}
		err := tx.QueryRow(`
			SELECT id, event_id, name, minimum_quantity, visibility, archived
			FROM products
			WHERE id = $1`, delta.ProductID).Scan(
			&product.ID, &product.EventID, &product.Name,
			&product.MinimumQuantity, &product.Visibility, &product.Archived)
		if err != nil {
			if err == sql.ErrNoRows {
				return models.ErrProductNotFound
			}
			return fmt.Errorf("failed to load product %d: %w", delta.ProductID, err)
		}

		if !product.OrderableFrom(eventID) {
			return models.NewValidationError(
				"product %q is not available for this event", product.Name)
		}

		if quantity, ok := desired[delta.ProductID]; ok && quantity > 0 && quantity < product.MinimumQuantity {
			return models.NewValidationError(
				"product %q requires a minimum quantity of %d", product.Name, product.MinimumQuantity)
		}
	}

	return nil
}

// applyCapacityRule couples an order commit to the registration and event
// statuses: a draft registration is verified by its first committed order
// unless the event just ran out of capacity, in which case both the event and
// the registration move to the waiting list. Runs inside the order
// transaction; the event row is locked to keep the capacity check race-free.
func applyCapacityRule(tx *sql.Tx, reg *models.Registration) (*models.Registration, error) {
	if reg.Status != models.RegistrationDraft {
		return reg, nil
	}

	event := &models.Event{}
	err := tx.QueryRow(`
		SELECT id, status, max_participants
		FROM events
		WHERE id = $1
		FOR UPDATE`, reg.EventID).Scan(&event.ID, &event.Status, &event.MaxParticipants)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEventNotFound
		}
		return nil, mapConflict(fmt.Errorf("failed to lock event: %w", err))
	}

	newStatus := models.RegistrationVerified
	if event.HasCapacityLimit() {
		active, err := countActiveRegistrations(tx, event.ID)
		if err != nil {
			return nil, err
		}
		// The triggering draft registration is already counted as active, so
		// the event is full only when the others alone reach the limit.
		if active > event.MaxParticipants {
			newStatus = models.RegistrationWaitingList
			if event.Status != models.EventWaitingList {
				_, err = tx.Exec(`UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`,
					event.ID, models.EventWaitingList, time.Now())
				if err != nil {
					return nil, fmt.Errorf("failed to update event status: %w", err)
				}
			}
		}
	}

	updated, err := scanRegistration(tx.QueryRow(`
		UPDATE registrations
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+registrationColumns, reg.ID, newStatus, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}

	message := fmt.Sprintf("status changed from %s to %s by order commit", reg.Status, newStatus)
	if err := appendRegistrationLog(tx, reg.ID, message); err != nil {
		return nil, err
	}

	return updated, nil
}
