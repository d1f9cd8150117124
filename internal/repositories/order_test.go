package repositories

import (
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"event-registration-platform/internal/database"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/orders"
)

// setupTestDB connects to the test database named by TEST_DATABASE_URL and
// runs migrations. Tests are skipped when no database is configured.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Skipf("Failed to connect to test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Failed to ping test database: %v", err)
	}

	if err := database.NewMigrator(db).RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *sql.DB) int {
	t.Helper()

	var userID int
	err := db.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, phone, role, created_at, updated_at)
		VALUES ($1, 'x', 'Test', 'User', '', 'participant', $2, $2)
		RETURNING id`,
		"reconcile-"+models.GenerateOrderNumber()+"@example.com", time.Now()).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return userID
}

func createTestEvent(t *testing.T, db *sql.DB, organizerID, maxParticipants int) int {
	t.Helper()

	now := time.Now()
	var eventID int
	err := db.QueryRow(`
		INSERT INTO events (organizer_id, title, description, location, start_date, end_date, status, max_participants, certificate_title, certificate_description, created_at, updated_at)
		VALUES ($1, 'Reconcile Test Event', '', '', $2, $3, 'published', $4, '', '', $2, $2)
		RETURNING id`,
		organizerID, now, now.Add(24*time.Hour), maxParticipants).Scan(&eventID)
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	return eventID
}

func createTestProduct(t *testing.T, db *sql.DB, eventID int, name string, price int) int {
	t.Helper()

	var productID int
	err := db.QueryRow(`
		INSERT INTO products (event_id, name, description, price, vat_percent, minimum_quantity, visibility, archived, created_at, updated_at)
		VALUES ($1, $2, '', $3, 20, 0, 'event', false, $4, $4)
		RETURNING id`, eventID, name, price, time.Now()).Scan(&productID)
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return productID
}

func eventStatus(t *testing.T, db *sql.DB, eventID int) string {
	t.Helper()

	var status string
	if err := db.QueryRow(`SELECT status FROM events WHERE id = $1`, eventID).Scan(&status); err != nil {
		t.Fatalf("Failed to read event status: %v", err)
	}
	return status
}

// setupReconcileFixture seeds a user, event, registration and two products
// (the second with a variant) and returns their IDs
func setupReconcileFixture(t *testing.T, db *sql.DB) (registrationID, productA, productB, variantB int) {
	t.Helper()

	userID := createTestUser(t, db)
	eventID := createTestEvent(t, db, userID, 0)

	now := time.Now()
	err := db.QueryRow(`
		INSERT INTO registrations (event_id, user_id, status, type, notes, customer_name, customer_email, created_at, updated_at)
		VALUES ($1, $2, 'draft', 'participant', '', 'Test User', 'test@example.com', $3, $3)
		RETURNING id`,
		eventID, userID, now).Scan(&registrationID)
	if err != nil {
		t.Fatalf("Failed to create registration: %v", err)
	}

	productA = createTestProduct(t, db, eventID, "Conference Ticket", 10000)
	productB = createTestProduct(t, db, eventID, "T-Shirt", 2000)

	err = db.QueryRow(`
		INSERT INTO product_variants (product_id, name, price, vat_percent, archived, created_at)
		VALUES ($1, 'Size L', 2000, 20, false, $2)
		RETURNING id`, productB, now).Scan(&variantB)
	if err != nil {
		t.Fatalf("Failed to create variant: %v", err)
	}

	return registrationID, productA, productB, variantB
}

func netFor(t *testing.T, repo *OrderRepository, registrationID int) map[orders.ProductKey]int {
	t.Helper()

	list, err := repo.GetNetProducts(registrationID)
	if err != nil {
		t.Fatalf("GetNetProducts failed: %v", err)
	}
	net := make(map[orders.ProductKey]int)
	for _, pq := range list {
		net[orders.KeyFor(pq.ProductID, pq.VariantID)] = pq.Quantity
	}
	return net
}

func TestOrderRepository_Reconcile(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewOrderRepository(db)
	registrationID, productA, productB, variantB := setupReconcileFixture(t, db)

	// First reconciliation creates an order with the full target.
	result, err := repo.Reconcile(registrationID, []orders.TargetLine{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, VariantID: &variantB, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !result.Created {
		t.Error("expected a new order to be created")
	}
	if len(result.Deltas) != 2 {
		t.Errorf("expected 2 deltas, got %d", len(result.Deltas))
	}

	net := netFor(t, repo, registrationID)
	if net[orders.KeyFor(productA, nil)] != 2 {
		t.Errorf("expected net 2 for product A, got %d", net[orders.KeyFor(productA, nil)])
	}

	// Registration was verified by the order commit (no capacity limit).
	if result.Registration.Status != models.RegistrationVerified {
		t.Errorf("expected registration verified, got %s", result.Registration.Status)
	}

	// Reconciling to the same target is a no-op.
	again, err := repo.Reconcile(registrationID, []orders.TargetLine{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, VariantID: &variantB, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("idempotent Reconcile failed: %v", err)
	}
	if again.Order != nil || len(again.Deltas) != 0 {
		t.Error("expected no-op reconciliation to write nothing")
	}

	// Lowering a quantity appends a negative delta to the same draft order.
	lowered, err := repo.Reconcile(registrationID, []orders.TargetLine{
		{ProductID: productA, Quantity: 1},
		{ProductID: productB, VariantID: &variantB, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Reconcile with lowered target failed: %v", err)
	}
	if lowered.Created {
		t.Error("expected the existing draft order to be amended")
	}
	if len(lowered.Deltas) != 1 || lowered.Deltas[0].Quantity != -1 {
		t.Errorf("expected one -1 delta, got %+v", lowered.Deltas)
	}

	net = netFor(t, repo, registrationID)
	if net[orders.KeyFor(productA, nil)] != 1 {
		t.Errorf("expected net 1 for product A, got %d", net[orders.KeyFor(productA, nil)])
	}

	// Emptying the target removes everything from the listing.
	_, err = repo.Reconcile(registrationID, nil)
	if err != nil {
		t.Fatalf("Reconcile to empty failed: %v", err)
	}
	if net := netFor(t, repo, registrationID); len(net) != 0 {
		t.Errorf("expected empty net state, got %+v", net)
	}
}

func TestOrderRepository_Reconcile_NegativeTargetRejected(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewOrderRepository(db)
	registrationID, productA, _, _ := setupReconcileFixture(t, db)

	_, err := repo.Reconcile(registrationID, []orders.TargetLine{
		{ProductID: productA, Quantity: -1},
	})
	if !models.IsValidationError(err) {
		t.Errorf("expected validation error for negative target, got %v", err)
	}
}

func TestOrderRepository_CreateWithLines_AllowsNegatives(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewOrderRepository(db)
	registrationID, productA, _, _ := setupReconcileFixture(t, db)

	_, err := repo.CreateWithLines(registrationID, []orders.TargetLine{
		{ProductID: productA, Quantity: 5},
	})
	if err != nil {
		t.Fatalf("CreateWithLines failed: %v", err)
	}

	// A correction order with a negative line.
	order, err := repo.CreateWithLines(registrationID, []orders.TargetLine{
		{ProductID: productA, Quantity: -2},
	})
	if err != nil {
		t.Fatalf("negative CreateWithLines failed: %v", err)
	}
	if order.Status != models.OrderDraft {
		t.Errorf("expected draft order, got %s", order.Status)
	}

	net := netFor(t, repo, registrationID)
	if net[orders.KeyFor(productA, nil)] != 3 {
		t.Errorf("expected net 3 after refund, got %d", net[orders.KeyFor(productA, nil)])
	}

	// Zero-quantity lines are rejected.
	_, err = repo.CreateWithLines(registrationID, []orders.TargetLine{
		{ProductID: productA, Quantity: 0},
	})
	if !models.IsValidationError(err) {
		t.Errorf("expected validation error for zero quantity, got %v", err)
	}
}

func TestOrderRepository_Reconcile_LastSeatVerified(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	orderRepo := NewOrderRepository(db)
	regRepo := NewRegistrationRepository(db)

	organizerID := createTestUser(t, db)
	eventID := createTestEvent(t, db, organizerID, 1)
	productID := createTestProduct(t, db, eventID, "Conference Ticket", 10000)

	// The only seat goes to the first registrant.
	first, err := regRepo.Create(&models.RegistrationCreateRequest{
		EventID:       eventID,
		UserID:        createTestUser(t, db),
		CustomerName:  "First User",
		CustomerEmail: "first@example.com",
	})
	if err != nil {
		t.Fatalf("Failed to create registration: %v", err)
	}
	if first.Status != models.RegistrationDraft {
		t.Fatalf("expected draft registration, got %s", first.Status)
	}

	// Committing an order on the last seat verifies the registration.
	result, err := orderRepo.Reconcile(first.ID, []orders.TargetLine{
		{ProductID: productID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Registration.Status != models.RegistrationVerified {
		t.Errorf("expected last-seat registration verified, got %s", result.Registration.Status)
	}
	if status := eventStatus(t, db, eventID); status != string(models.EventPublished) {
		t.Errorf("expected event to stay published, got %s", status)
	}

	// The event is now full, so the next registrant waits.
	second, err := regRepo.Create(&models.RegistrationCreateRequest{
		EventID:       eventID,
		UserID:        createTestUser(t, db),
		CustomerName:  "Second User",
		CustomerEmail: "second@example.com",
	})
	if err != nil {
		t.Fatalf("Failed to create second registration: %v", err)
	}
	if second.Status != models.RegistrationWaitingList {
		t.Errorf("expected second registration on waiting list, got %s", second.Status)
	}
}

func TestOrderRepository_Reconcile_OverCapacitySendsToWaitingList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	orderRepo := NewOrderRepository(db)
	regRepo := NewRegistrationRepository(db)

	organizerID := createTestUser(t, db)
	eventID := createTestEvent(t, db, organizerID, 2)
	productID := createTestProduct(t, db, eventID, "Conference Ticket", 10000)

	reg, err := regRepo.Create(&models.RegistrationCreateRequest{
		EventID:       eventID,
		UserID:        createTestUser(t, db),
		CustomerName:  "First User",
		CustomerEmail: "first@example.com",
	})
	if err != nil {
		t.Fatalf("Failed to create registration: %v", err)
	}
	if _, err := regRepo.Create(&models.RegistrationCreateRequest{
		EventID:       eventID,
		UserID:        createTestUser(t, db),
		CustomerName:  "Second User",
		CustomerEmail: "second@example.com",
	}); err != nil {
		t.Fatalf("Failed to create second registration: %v", err)
	}

	// The organizer shrinks the event after both were admitted.
	if _, err := db.Exec(`UPDATE events SET max_participants = 1 WHERE id = $1`, eventID); err != nil {
		t.Fatalf("Failed to shrink event capacity: %v", err)
	}

	result, err := orderRepo.Reconcile(reg.ID, []orders.TargetLine{
		{ProductID: productID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Registration.Status != models.RegistrationWaitingList {
		t.Errorf("expected overbooked registration on waiting list, got %s", result.Registration.Status)
	}
	if status := eventStatus(t, db, eventID); status != string(models.EventWaitingList) {
		t.Errorf("expected event demoted to waiting_list, got %s", status)
	}
}
