package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-registration-platform/internal/models"
)

// ProductRepository handles product data operations
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, event_id, name, description, price, vat_percent, minimum_quantity, visibility, archived, created_at, updated_at`

func scanProduct(row interface {
	Scan(dest ...interface{}) error
}) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.EventID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.VATPercent,
		&product.MinimumQuantity,
		&product.Visibility,
		&product.Archived,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create creates a new product with its variants
func (r *ProductRepository) Create(req *models.ProductCreateRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	product, err := scanProduct(tx.QueryRow(`
		INSERT INTO products (event_id, name, description, price, vat_percent, minimum_quantity, visibility, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $9)
		RETURNING `+productColumns,
		req.EventID, req.Name, req.Description, req.Price, req.VATPercent,
		req.MinimumQuantity, req.Visibility, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	for _, v := range req.Variants {
		variant := &models.ProductVariant{}
		err := tx.QueryRow(`
			INSERT INTO product_variants (product_id, name, price, vat_percent, archived, created_at)
			VALUES ($1, $2, $3, $4, false, $5)
			RETURNING id, product_id, name, price, vat_percent, archived, created_at`,
			product.ID, v.Name, v.Price, v.VATPercent, now).Scan(
			&variant.ID, &variant.ProductID, &variant.Name,
			&variant.Price, &variant.VATPercent, &variant.Archived, &variant.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create variant: %w", err)
		}
		product.Variants = append(product.Variants, variant)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}

	return product, nil
}

// GetByID retrieves a product with its variants
func (r *ProductRepository) GetByID(id int) (*models.Product, error) {
	product, err := scanProduct(r.db.QueryRow(
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	variants, err := r.getVariants(product.ID)
	if err != nil {
		return nil, err
	}
	product.Variants = variants

	return product, nil
}

// ListByEvent retrieves the products orderable from an event. Archived
// products stay listed when includeArchived is set so past orders can still
// be displayed with their product names.
func (r *ProductRepository) ListByEvent(eventID int, includeArchived bool) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE event_id = $1`
	if !includeArchived {
		query += ` AND archived = false`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.db.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var result []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, product := range result {
		variants, err := r.getVariants(product.ID)
		if err != nil {
			return nil, err
		}
		product.Variants = variants
	}

	return result, nil
}

// Update updates a product's mutable fields
func (r *ProductRepository) Update(id int, req *models.ProductUpdateRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	product, err := scanProduct(r.db.QueryRow(`
		UPDATE products
		SET name = $2, description = $3, price = $4, vat_percent = $5, minimum_quantity = $6, visibility = $7, archived = $8, updated_at = $9
		WHERE id = $1
		RETURNING `+productColumns,
		id, req.Name, req.Description, req.Price, req.VATPercent,
		req.MinimumQuantity, req.Visibility, req.Archived, time.Now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Archive marks a product as no longer orderable. Products are never
// deleted; existing order lines keep referencing them.
func (r *ProductRepository) Archive(id int) error {
	result, err := r.db.Exec(`
		UPDATE products SET archived = true, updated_at = $2 WHERE id = $1`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to archive product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check archive result: %w", err)
	}
	if affected == 0 {
		return models.ErrProductNotFound
	}

	return nil
}

// AddVariant adds a variant to a product
func (r *ProductRepository) AddVariant(productID int, req *models.ProductVariantCreateRequest) (*models.ProductVariant, error) {
	if req.Name == "" {
		return nil, models.NewValidationError("variant name is required")
	}
	if req.Price < 0 {
		return nil, models.NewValidationError("variant price cannot be negative")
	}

	variant := &models.ProductVariant{}
	err := r.db.QueryRow(`
		INSERT INTO product_variants (product_id, name, price, vat_percent, archived, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING id, product_id, name, price, vat_percent, archived, created_at`,
		productID, req.Name, req.Price, req.VATPercent, time.Now()).Scan(
		&variant.ID, &variant.ProductID, &variant.Name,
		&variant.Price, &variant.VATPercent, &variant.Archived, &variant.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add variant: %w", err)
	}

	return variant, nil
}

func (r *ProductRepository) getVariants(productID int) ([]*models.ProductVariant, error) {
	rows, err := r.db.Query(`
		SELECT id, product_id, name, price, vat_percent, archived, created_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY name ASC, id ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get variants: %w", err)
	}
	defer rows.Close()

	var variants []*models.ProductVariant
	for rows.Next() {
		variant := &models.ProductVariant{}
		err := rows.Scan(
			&variant.ID, &variant.ProductID, &variant.Name,
			&variant.Price, &variant.VATPercent, &variant.Archived, &variant.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, variant)
	}

	return variants, rows.Err()
}
