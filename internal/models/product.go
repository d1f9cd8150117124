package models

import (
	"errors"
	"strings"
	"time"
)

// ProductVisibility controls where a product may be ordered from
type ProductVisibility string

const (
	// VisibilityEvent limits the product to registrations for its own event
	VisibilityEvent ProductVisibility = "event"
	// VisibilityCollection makes the product orderable across the event collection
	VisibilityCollection ProductVisibility = "collection"
)

// Product is a catalog item scoped to an event: a ticket, merchandise, or an
// add-on such as a conference dinner.
type Product struct {
	ID              int               `json:"id" db:"id"`
	EventID         int               `json:"event_id" db:"event_id"`
	Name            string            `json:"name" db:"name"`
	Description     string            `json:"description" db:"description"`
	Price           int               `json:"price" db:"price"` // Amount in cents
	VATPercent      int               `json:"vat_percent" db:"vat_percent"`
	MinimumQuantity int               `json:"minimum_quantity" db:"minimum_quantity"` // > 0 = mandatory add-on
	Visibility      ProductVisibility `json:"visibility" db:"visibility"`
	Archived        bool              `json:"archived" db:"archived"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`

	// Related data
	Variants []*ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a concrete option of a product (e.g. t-shirt size) with
// its own price.
type ProductVariant struct {
	ID          int       `json:"id" db:"id"`
	ProductID   int       `json:"product_id" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Price       int       `json:"price" db:"price"`
	VATPercent  int       `json:"vat_percent" db:"vat_percent"`
	Archived    bool      `json:"archived" db:"archived"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductCreateRequest represents the data needed to create a product
type ProductCreateRequest struct {
	EventID         int                           `json:"event_id"`
	Name            string                        `json:"name"`
	Description     string                        `json:"description"`
	Price           int                           `json:"price"`
	VATPercent      int                           `json:"vat_percent"`
	MinimumQuantity int                           `json:"minimum_quantity"`
	Visibility      ProductVisibility             `json:"visibility"`
	Variants        []ProductVariantCreateRequest `json:"variants"`
}

// ProductVariantCreateRequest represents the data needed to create a variant
type ProductVariantCreateRequest struct {
	Name       string `json:"name"`
	Price      int    `json:"price"`
	VATPercent int    `json:"vat_percent"`
}

// ProductUpdateRequest represents the data that can be updated for a product
type ProductUpdateRequest struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Price           int               `json:"price"`
	VATPercent      int               `json:"vat_percent"`
	MinimumQuantity int               `json:"minimum_quantity"`
	Visibility      ProductVisibility `json:"visibility"`
	Archived        bool              `json:"archived"`
}

// Validate validates product creation data
func (req *ProductCreateRequest) Validate() error {
	if req.EventID <= 0 {
		return errors.New("event id is required")
	}

	if req.Visibility == "" {
		req.Visibility = VisibilityEvent
	}

	if err := validateProductFields(req.Name, req.Price, req.VATPercent, req.MinimumQuantity, req.Visibility); err != nil {
		return err
	}

	for _, v := range req.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return errors.New("variant name is required")
		}
		if v.Price < 0 {
			return errors.New("variant price cannot be negative")
		}
	}

	return nil
}

// Validate validates product update data
func (req *ProductUpdateRequest) Validate() error {
	return validateProductFields(req.Name, req.Price, req.VATPercent, req.MinimumQuantity, req.Visibility)
}

func validateProductFields(name string, price, vatPercent, minimumQuantity int, visibility ProductVisibility) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("product name is required")
	}

	if len(name) > 255 {
		return errors.New("product name must be less than 255 characters")
	}

	if price < 0 {
		return errors.New("price cannot be negative")
	}

	if vatPercent < 0 || vatPercent > 100 {
		return errors.New("vat percent must be between 0 and 100")
	}

	if minimumQuantity < 0 {
		return errors.New("minimum quantity cannot be negative")
	}

	switch visibility {
	case VisibilityEvent, VisibilityCollection:
		return nil
	default:
		return errors.New("invalid product visibility")
	}
}

// IsMandatory returns true if every registration must order the product
func (p *Product) IsMandatory() bool {
	return p.MinimumQuantity > 0
}

// OrderableFrom returns true if the product may be ordered by a registration
// for the given event
func (p *Product) OrderableFrom(eventID int) bool {
	if p.Archived {
		return false
	}

	switch p.Visibility {
	case VisibilityCollection:
		return true
	case VisibilityEvent:
		return p.EventID == eventID
	default:
		return false
	}
}

// Variant returns the variant with the given id, or nil
func (p *Product) Variant(variantID int) *ProductVariant {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v
		}
	}
	return nil
}
