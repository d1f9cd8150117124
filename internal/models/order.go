package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderVerified  OrderStatus = "verified"
	OrderInvoiced  OrderStatus = "invoiced"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// Order represents one purchase or adjustment transaction attached to a
// registration. A registration accumulates orders over its lifetime; the net
// product quantities are always computed across all of its non-cancelled
// orders.
type Order struct {
	ID             int         `json:"id" db:"id"`
	RegistrationID int         `json:"registration_id" db:"registration_id"`
	OrderNumber    string      `json:"order_number" db:"order_number"`
	Status         OrderStatus `json:"status" db:"status"`
	CustomerName   string      `json:"customer_name" db:"customer_name"`
	CustomerEmail  string      `json:"customer_email" db:"customer_email"`
	Comments       string      `json:"comments" db:"comments"`
	OrderedAt      time.Time   `json:"ordered_at" db:"ordered_at"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`

	// Related data
	Lines []*OrderLine `json:"lines,omitempty"`
}

// OrderLine is one product/variant/quantity entry within an order. Lines are
// immutable once created; adjustments are expressed as new lines, so Quantity
// may be negative to represent a refund or reduction.
type OrderLine struct {
	ID          int       `json:"id" db:"id"`
	OrderID     int       `json:"order_id" db:"order_id"`
	ProductID   int       `json:"product_id" db:"product_id"`
	VariantID   *int      `json:"variant_id,omitempty" db:"variant_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   int       `json:"unit_price" db:"unit_price"` // Amount in cents
	VATPercent  int       `json:"vat_percent" db:"vat_percent"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LineTotal returns the signed total for the line in cents
func (l *OrderLine) LineTotal() int {
	return l.Quantity * l.UnitPrice
}

var (
	// Order number format: REG-ORD-YYYYMMDD-XXXXXX
	orderNumberRegex = regexp.MustCompile(`^REG-ORD-\d{8}-\d{6}$`)
	// Email validation regex for orders
	orderEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Validate validates the order data
func (o *Order) Validate() error {
	if o.RegistrationID <= 0 {
		return errors.New("order must belong to a registration")
	}

	if err := o.validateOrderNumber(); err != nil {
		return err
	}

	if err := validateOrderStatus(o.Status); err != nil {
		return err
	}

	return validateOrderCustomerInfo(o.CustomerEmail, o.CustomerName)
}

// validateOrderNumber validates the order number
func (o *Order) validateOrderNumber() error {
	if o.OrderNumber == "" {
		return errors.New("order number is required")
	}

	if !orderNumberRegex.MatchString(o.OrderNumber) {
		return errors.New("order number format is invalid")
	}

	return nil
}

// validateOrderStatus validates an order status
func validateOrderStatus(status OrderStatus) error {
	switch status {
	case OrderDraft, OrderVerified, OrderInvoiced, OrderCancelled, OrderRefunded:
		return nil
	default:
		return fmt.Errorf("invalid order status: %s", status)
	}
}

// validateOrderCustomerInfo validates order customer information
func validateOrderCustomerInfo(customerEmail, customerName string) error {
	if customerEmail == "" {
		return errors.New("customer email is required")
	}

	if len(customerEmail) > 255 {
		return errors.New("customer email must be less than 255 characters")
	}

	if !orderEmailRegex.MatchString(customerEmail) {
		return errors.New("customer email format is invalid")
	}

	if strings.TrimSpace(customerName) == "" {
		return errors.New("customer name is required")
	}

	if len(customerName) > 255 {
		return errors.New("customer name must be less than 255 characters")
	}

	return nil
}

// GenerateOrderNumber generates a unique order number
func GenerateOrderNumber() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	// Generate a 6-digit random number using crypto/rand for better uniqueness
	max := big.NewInt(1000000)
	randomNum, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fallback to timestamp-based generation if crypto/rand fails
		timestamp := now.UnixNano()
		return fmt.Sprintf("REG-ORD-%s-%06d", dateStr, timestamp%1000000)
	}

	return fmt.Sprintf("REG-ORD-%s-%06d", dateStr, randomNum.Int64())
}

// IsEditable returns true if order lines may still be appended to the order.
// The switch is exhaustive over the status enum so that adding a new status
// forces a decision here.
func (o *Order) IsEditable() bool {
	switch o.Status {
	case OrderDraft:
		return true
	case OrderVerified, OrderInvoiced, OrderCancelled, OrderRefunded:
		return false
	default:
		return false
	}
}

// IsCancelled returns true if the order is cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderCancelled
}

// CanTransitionTo returns true if the order status may change to newStatus
func (o *Order) CanTransitionTo(newStatus OrderStatus) bool {
	validTransitions := map[OrderStatus][]OrderStatus{
		OrderDraft:     {OrderVerified, OrderCancelled},
		OrderVerified:  {OrderInvoiced, OrderCancelled},
		OrderInvoiced:  {OrderRefunded},
		OrderCancelled: {},
		OrderRefunded:  {},
	}

	for _, allowed := range validTransitions[o.Status] {
		if newStatus == allowed {
			return true
		}
	}

	return false
}

// TotalAmount returns the signed sum of all line totals in cents
func (o *Order) TotalAmount() int {
	total := 0
	for _, line := range o.Lines {
		total += line.LineTotal()
	}
	return total
}

// GetStatusDisplayName returns a human-readable status name
func (o *Order) GetStatusDisplayName() string {
	switch o.Status {
	case OrderDraft:
		return "Draft"
	case OrderVerified:
		return "Verified"
	case OrderInvoiced:
		return "Invoiced"
	case OrderCancelled:
		return "Cancelled"
	case OrderRefunded:
		return "Refunded"
	default:
		return string(o.Status)
	}
}
